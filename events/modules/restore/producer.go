package restore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/fundaciones-espana/catalog-backend/model"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// MessageWriter is the part of kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes restore events to Kafka
type Producer struct {
	Writer     MessageWriter
	Database   string
	Collection string
}

// Credentials enable SASL/PLAIN over TLS, as hosted brokers require. Leave
// them empty for a local plaintext broker.
type Credentials struct {
	Username string
	Password string
}

// transport returns nil, meaning kafka-go's default, when no credentials are set.
func transport(creds Credentials) *kafka.Transport {
	if creds.Username == "" || creds.Password == "" {
		return nil
	}
	return &kafka.Transport{
		DialTimeout: 10 * time.Second,
		SASL: plain.Mechanism{
			Username: creds.Username,
			Password: creds.Password,
		},
		TLS: &tls.Config{MinVersion: tls.VersionTLS12},
	}
}

// NewProducer initializes a Kafka writer for restore events
func NewProducer(brokers []string, topic string, creds Credentials, database, collection string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	if t := transport(creds); t != nil {
		w.Transport = t
	}
	return &Producer{
		Writer:     w,
		Database:   database,
		Collection: collection,
	}
}

// NewEvent builds the event for a completed restore.
func (p *Producer) NewEvent(summary model.RestoreSummary) DatasetRestoredEvent {
	return DatasetRestoredEvent{
		EventType:     EventTypeDatasetRestored,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		Database:      p.Database,
		Collection:    p.Collection,
		Restore:       summary,
	}
}

// PublishRestored sends the event to the Kafka topic, keyed by collection so
// events for one dataset stay ordered.
func (p *Producer) PublishRestored(ctx context.Context, summary model.RestoreSummary) error {
	payload, err := json.Marshal(p.NewEvent(summary))
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.Database + "/" + p.Collection),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *Producer) Close() error {
	return p.Writer.Close()
}
