package pgjsonb

// operand mirrors pkg/queryir's Operand sum type, reconstructed from text
// rather than shared as a Go type, since the Gateway only ever sees the
// rendered wire text, never the IR value itself.
type operand interface{ isOperand() }

type fieldOperand struct{ variable, field string }
type bindOperand struct{ key string }
type literalOperand struct{ text string } // quoted-string/number/true/false, used verbatim

func (fieldOperand) isOperand()   {}
func (bindOperand) isOperand()    {}
func (literalOperand) isOperand() {}

// filterExpr mirrors pkg/queryir's FilterNode sum type.
type filterExpr interface{ isFilter() }

type compareExpr struct {
	left  operand
	op    string
	right operand
}
type inExpr struct {
	left operand
	list []operand
}
type funcExpr struct {
	name string
	args []operand
}
type notExpr struct{ child filterExpr }
type logicalExpr struct {
	op       string // "AND" or "OR"
	children []filterExpr
}

func (compareExpr) isFilter()  {}
func (inExpr) isFilter()       {}
func (funcExpr) isFilter()     {}
func (notExpr) isFilter()      {}
func (logicalExpr) isFilter()  {}

// projectionItem is one {"alias": ...} entry in a RETURN clause.
type projectionItem struct {
	alias string
	field string      // set when the value is "<var>.<field>"
	query *getQuery   // set when the value is a nested subquery
	first bool         // true when followed by "[0]" (single-relationship collapse)
	extractField string // set when followed by ["field"], e.g. ["_id"]
}

type getQuery struct {
	variable   string
	collection string // plain collection name, or "" if collectionBind is set
	collectionBind string // @@name token with one leading "@" stripped, i.e. the "@name" bindings key

	// relationship traversal, set when this FOR iterates "DIRECTION parentVar edgeCollection"
	direction      string // OUTBOUND | INBOUND | ANY
	parentVariable string
	edgeCollection string

	filter     filterExpr
	limit      int
	projection []projectionItem
}

type updateStmt struct {
	variable   string
	collection string
	filter     filterExpr
	payload    []payloadField
	limit      int
}

type removeStmt struct {
	variable   string
	collection string
	filter     filterExpr
	limit      int
}

type insertStmt struct {
	payload        []payloadField
	collection     string
	collectionBind string
}

type insertRelationshipStmt struct {
	fromBind       bindOperand
	toInline       *bindOperand
	toLookup       *getQuery
	toLookupFirst  bool
	toLookupField  string
	collectionBind string
}

type payloadField struct {
	key   string
	value operand
}

// statement is the parsed form of one Gateway.Submit call.
type statement interface{ isStatement() }

func (*getQuery) isStatement()               {}
func (*updateStmt) isStatement()             {}
func (*removeStmt) isStatement()             {}
func (*insertStmt) isStatement()             {}
func (*insertRelationshipStmt) isStatement() {}
