// Package queryir defines the tree representation of a store query (spec
// §3.2) and the single Emit pass that renders it to wire-format query text.
// Emit returns only the text; the bind values travel in a separate
// bindings map that the caller builds.
package queryir

import "strconv"

// Method is the operation a Query node performs.
type Method int

const (
	MethodGet Method = iota
	MethodUpdate
	MethodRemove
	MethodCreate
	MethodCreateRelationship
)

// RelationshipDescriptor attaches traversal metadata to a Query that is
// nested under a parent as a relationship field.
type RelationshipDescriptor struct {
	EdgeCollection   string
	Direction        string // "OUTBOUND" | "INBOUND" | "ANY"
	ReturnsArray     bool
	ParentVariable   string // e.g. "i_1"
}

// Projection is one entry of a Query's return shape: either a plain scalar
// property reference or a nested Query rendered inline.
type Projection struct {
	Alias    string
	Property string     // set iff Nested == nil
	Nested   *Query     // set iff this projection is a relationship field
}

// Query is one node of the Query IR tree.
type Query struct {
	ID         int
	Method     Method
	Collection string // store collection this query is rooted on

	// CollectionBind overrides the literal bind name a root Get query
	// iterates, without the "@@" prefix the emitter adds, e.g.
	// "inner_collection" (rendered "@@inner_collection") for the inner
	// lookup query of a CreateRelationship. Empty means the default
	// "@@collection".
	CollectionBind string

	Properties []Projection
	Filter     FilterNode
	Limit      int // 0 means "no limit"

	Relationship *RelationshipDescriptor // nil for a root query

	CreatesPayload string // set iff Method == MethodCreate
	UpdatesPayload string // set iff Method == MethodUpdate

	// CreateRelationship-only fields.
	FromBind        string
	ToBind          string
	InnerLookup     *Query // non-nil when the target is looked up by filter rather than given directly
	InnerCollection string
}

// Variable is this query's AQL loop variable, e.g. "i_3".
func (q *Query) Variable() string {
	return variableName(q.ID)
}

func variableName(id int) string {
	return "i_" + strconv.Itoa(id)
}
