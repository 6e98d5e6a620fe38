package model

import (
	"time"

	"github.com/fundaciones-espana/catalog-backend/document"
)

// Bucket is one group of an aggregation, keyed by _id like the dashboard expects.
type Bucket struct {
	ID    any   `json:"_id"`
	Count int64 `json:"count"`
}

// PaginatedResponse is the listing payload.
type PaginatedResponse struct {
	Data       []document.Doc `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int64          `json:"totalPages"`
}

// FilterOptions lists the selectable values of each filter with their counts.
type FilterOptions struct {
	Provincias  []Bucket `json:"provincias"`
	Estados     []Bucket `json:"estados"`
	Actividades []Bucket `json:"actividades"`
	Funciones   []Bucket `json:"funciones"`
}

// YearCount is one point of the constitution year trend.
type YearCount struct {
	Year  int64 `json:"year"`
	Count int64 `json:"count"`
}

// PatronosStats summarises trustee list sizes over foundations that have trustees.
type PatronosStats struct {
	TotalPatronos int64   `json:"totalPatronos"`
	AvgPatronos   float64 `json:"avgPatronos"`
	MaxPatronos   int64   `json:"maxPatronos"`
	MinPatronos   int64   `json:"minPatronos"`
}

// FundadoresStats summarises founder list sizes over foundations that have founders.
type FundadoresStats struct {
	TotalFundadores int64   `json:"totalFundadores"`
	AvgFundadores   float64 `json:"avgFundadores"`
}

// Stats is the dashboard statistics payload.
type Stats struct {
	Total                        int64           `json:"total"`
	ByEstado                     []Bucket        `json:"byEstado"`
	ByProvincia                  []Bucket        `json:"byProvincia"`
	ByActividad                  []Bucket        `json:"byActividad"`
	ByFuncion                    []Bucket        `json:"byFuncion"`
	YearlyTrends                 []YearCount     `json:"yearlyTrends"`
	PatronosStats                PatronosStats   `json:"patronosStats"`
	FundadoresStats              FundadoresStats `json:"fundadoresStats"`
	ActiveFundacionesWithContact int64           `json:"activeFundacionesWithContact"`
	ActivitiesDistribution       []Bucket        `json:"activitiesDistribution"`
	AvgPatronosPerFoundation     float64         `json:"avgPatronosPerFoundation"`
}

// RestoreResponse is returned by both restore endpoints.
type RestoreResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	DocumentsInserted int64  `json:"documentsInserted"`
}

// RestoreMode tells a full replace from a batch.
type RestoreMode string

// Restore modes carried on restore events.
const (
	RestoreFull  RestoreMode = "full"
	RestoreBatch RestoreMode = "batch"
)

// RestoreSummary describes one completed restore call.
type RestoreSummary struct {
	Mode              RestoreMode `json:"mode"`
	DocumentsInserted int64       `json:"documents_inserted"`
	BatchNumber       int         `json:"batch_number,omitempty"`
	TotalBatches      int         `json:"total_batches,omitempty"`
	Cleared           bool        `json:"cleared"`
	IndexesEnsured    bool        `json:"indexes_ensured"`
	CompletedAt       time.Time   `json:"completed_at"`
}
