// Package gateway declares the Store Gateway contract:
// the one collaborator this engine treats as external. Nothing in this
// repo talks to the document store except through this interface.
package gateway

import "context"

// Gateway abstracts the document store. Submit runs a rendered query
// (queryir.Emit's output) with its bindings and returns the ordered result
// documents. ListDocuments performs an unfiltered scan of a collection,
// used only by the Meta Catalog loader to read the two meta-collections.
type Gateway interface {
	Submit(ctx context.Context, queryText string, bindings map[string]any) ([]map[string]any, error)
	ListDocuments(ctx context.Context, collection string) ([]map[string]any, error)
}
