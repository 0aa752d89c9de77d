package query

import (
	"strings"

	"github.com/dkarlsson/tabview/types"
)

// Value arity classes. Which class an operator belongs to fully determines
// the shape of the compiled clause value.
var (
	noValueOps = map[string]bool{
		types.OpIsNull:    true,
		types.OpIsNotNull: true,
	}
	listOps = map[string]bool{
		types.OpIn:      true,
		types.OpInRange: true,
	}
)

// CompileRows turns the draft filter rows into backend-ready clauses. Rows
// that fail validation yield no clause and are reported by index in rejected;
// a malformed row never blocks compilation of the others. Callers are free to
// ignore rejected.
func CompileRows(rows []types.FilterRow) (clauses []types.FilterClause, rejected []int) {
	clauses = make([]types.FilterClause, 0, len(rows))
	for i, row := range rows {
		clause, ok := compileRow(row)
		if !ok {
			rejected = append(rejected, i)
			continue
		}
		clauses = append(clauses, clause)
	}
	return clauses, rejected
}

func compileRow(row types.FilterRow) (types.FilterClause, bool) {
	if row.Column == "" {
		return types.FilterClause{}, false
	}

	switch {
	case noValueOps[row.Operator]:
		// Any stray value the row carries is dropped with it.
		return types.FilterClause{Column: row.Column, Op: row.Operator}, true

	case row.Operator == types.OpBetween:
		parts := splitTokens(row.Value)
		if len(parts) != 2 {
			return types.FilterClause{}, false
		}
		return types.FilterClause{
			Column: row.Column,
			Op:     row.Operator,
			Value:  []any{Coerce(parts[0]), Coerce(parts[1])},
		}, true

	case listOps[row.Operator]:
		parts := splitTokens(row.Value)
		if len(parts) == 0 {
			return types.FilterClause{}, false
		}
		values := make([]any, len(parts))
		for i, p := range parts {
			values[i] = Coerce(p)
		}
		return types.FilterClause{Column: row.Column, Op: row.Operator, Value: values}, true

	default:
		token := strings.TrimSpace(row.Value)
		if token == "" {
			return types.FilterClause{}, false
		}
		return types.FilterClause{Column: row.Column, Op: row.Operator, Value: Coerce(token)}, true
	}
}

// splitTokens splits on commas, trims whitespace and discards empty parts.
func splitTokens(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
