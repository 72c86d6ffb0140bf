package schema

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/foretagq/typedstore/pkg/catalog"
)

// Schema wraps a graphql-go schema built from one catalog load, holding
// onto the catalog it was built from so internal/reload can compare
// checksums before deciding to rebuild and swap.
type Schema struct {
	Catalog  *catalog.Catalog
	GraphQL  graphql.Schema
	Entities map[string]*graphql.Object
}

// Build compiles cat into a full graphql.Schema: object types, every input
// family, and the seven generated operations per entity registered onto
// root Query and Mutation types.
func Build(cat *catalog.Catalog) (*Schema, error) {
	b := newBuilder(cat)
	b.buildEnums()
	b.buildObjectShells()
	b.populateObjectFields()

	queryFields := graphql.Fields{}
	mutationFields := graphql.Fields{}
	for _, e := range cat.Entities {
		for _, op := range b.buildOperations(e) {
			if op.Mutates {
				mutationFields[op.Name] = op.Field
			} else {
				queryFields[op.Name] = op.Field
			}
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: queryFields})
	schemaConfig := graphql.SchemaConfig{Query: queryType}
	if len(mutationFields) > 0 {
		schemaConfig.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutationFields})
	}

	gqlSchema, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return nil, fmt.Errorf("building graphql schema: %w", err)
	}

	return &Schema{Catalog: cat, GraphQL: gqlSchema, Entities: b.objects}, nil
}
