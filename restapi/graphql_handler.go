// Package restapi mounts the REST and GraphQL routes of the catalog API.
package restapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// GraphQLHandler executes dashboard queries against schema. The operation
// name is stored in the graphql_op local for the request log.
func GraphQLHandler(schema graphql.Schema) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req graphqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if strings.TrimSpace(req.Query) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing query"})
		}

		op := req.OperationName
		if op == "" {
			op = "-"
		}
		c.Locals("graphql_op", op)

		return c.JSON(graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		}))
	}
}
