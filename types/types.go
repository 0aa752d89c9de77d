package types

// Operator tokens accepted by the backend. The set is closed; anything else
// in a filter row is a client bug.
const (
	OpEq        = "eq"
	OpNeq       = "neq"
	OpLt        = "lt"
	OpLte       = "lte"
	OpGt        = "gt"
	OpGte       = "gte"
	OpLike      = "like"
	OpIn        = "in"
	OpBetween   = "between"
	OpInRange   = "in_range"
	OpIsNull    = "is_null"
	OpIsNotNull = "is_not_null"
)

const (
	LogicalAnd = "AND"
	LogicalOr  = "OR"
)

// ValidOperator reports whether op is one of the backend's operator tokens.
func ValidOperator(op string) bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpLike,
		OpIn, OpBetween, OpInRange, OpIsNull, OpIsNotNull:
		return true
	}
	return false
}

// FilterRow is a mutable draft of one filter line as the user edits it.
// Column and Value stay raw strings until compilation.
type FilterRow struct {
	Column   string
	Operator string
	Value    string
}

// FilterClause is one compiled, validated filter condition. Value is nil for
// the no-value operators, a scalar for comparison operators, and an ordered
// []any for between / in / in_range.
type FilterClause struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value,omitempty"`
}

type OrderBy struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// QueryDescriptor is the immutable request contract for one query. Two
// descriptors that are equal by value describe the same request; the Table
// travels in the URL, not the body.
type QueryDescriptor struct {
	Table           string         `json:"-"`
	Filters         []FilterClause `json:"filters"`
	LogicalOperator string         `json:"logical_operator"`
	OrderBy         *OrderBy       `json:"order_by,omitempty"`
	Limit           int            `json:"limit"`
	Offset          int            `json:"offset"`
	Fields          []string       `json:"fields,omitempty"`
}

// QueryResult is one page of rows plus the unpaginated match count.
type QueryResult struct {
	Rows  []map[string]any `json:"rows"`
	Total int              `json:"total"`
}

type TablesResponse struct {
	Tables []string `json:"tables"`
}

type ColumnsResponse struct {
	Columns []string `json:"columns"`
}

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}
