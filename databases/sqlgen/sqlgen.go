package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dkarlsson/tabview/types"
)

// Dialect covers the differences that matter for descriptor translation:
// placeholder style and identifier quoting.
type Dialect int

const (
	DialectQuestion Dialect = iota // mysql, sqlite: ?, `ident` / "ident"
	DialectDollar                  // postgres: $1, "ident"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent validates and quotes a table or column identifier. Descriptors
// come off the wire, so anything outside the safe pattern is rejected rather
// than interpolated.
func quoteIdent(name string, dialect Dialect) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	if dialect == DialectQuestion {
		return "`" + name + "`", nil
	}
	return `"` + name + `"`, nil
}

type sqlBuilder struct {
	dialect Dialect
	args    []any
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	if b.dialect == DialectDollar {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

// BuildSelect translates a descriptor into one SELECT statement with bound
// arguments. Fields projection, WHERE from the compiled clauses joined by the
// descriptor's logical operator, ORDER BY, LIMIT and OFFSET.
func BuildSelect(d *types.QueryDescriptor, dialect Dialect) (string, []any, error) {
	b := &sqlBuilder{dialect: dialect}

	table, err := quoteIdent(d.Table, dialect)
	if err != nil {
		return "", nil, err
	}

	projection := "*"
	if len(d.Fields) > 0 {
		quoted := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			if quoted[i], err = quoteIdent(f, dialect); err != nil {
				return "", nil, err
			}
		}
		projection = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", projection, table)

	where, err := b.whereClause(d)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if d.OrderBy != nil {
		col, err := quoteIdent(d.OrderBy.Column, dialect)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if strings.EqualFold(d.OrderBy.Direction, "desc") {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", col, dir)
	}

	fmt.Fprintf(&sb, " LIMIT %s", b.bind(d.Limit))
	fmt.Fprintf(&sb, " OFFSET %s", b.bind(d.Offset))

	return sb.String(), b.args, nil
}

// BuildCount translates a descriptor into the matching unpaginated COUNT.
func BuildCount(d *types.QueryDescriptor, dialect Dialect) (string, []any, error) {
	b := &sqlBuilder{dialect: dialect}

	table, err := quoteIdent(d.Table, dialect)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT COUNT(*) FROM %s", table)

	where, err := b.whereClause(d)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	return sb.String(), b.args, nil
}

func (b *sqlBuilder) whereClause(d *types.QueryDescriptor) (string, error) {
	if len(d.Filters) == 0 {
		return "", nil
	}

	joiner := " AND "
	if d.LogicalOperator == types.LogicalOr {
		joiner = " OR "
	}

	parts := make([]string, 0, len(d.Filters))
	for _, clause := range d.Filters {
		part, err := b.condition(clause)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, joiner), nil
}

// NormalizeRow makes a scanned row JSON-friendly: drivers hand text columns
// back as []byte, which would otherwise marshal as base64.
func NormalizeRow(row map[string]any) map[string]any {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}

var comparisonOps = map[string]string{
	types.OpEq:   "=",
	types.OpNeq:  "<>",
	types.OpLt:   "<",
	types.OpLte:  "<=",
	types.OpGt:   ">",
	types.OpGte:  ">=",
	types.OpLike: "LIKE",
}

func (b *sqlBuilder) condition(clause types.FilterClause) (string, error) {
	col, err := quoteIdent(clause.Column, b.dialect)
	if err != nil {
		return "", err
	}

	switch clause.Op {
	case types.OpIsNull:
		return col + " IS NULL", nil
	case types.OpIsNotNull:
		return col + " IS NOT NULL", nil

	case types.OpBetween:
		pair, ok := clause.Value.([]any)
		if !ok || len(pair) != 2 {
			return "", fmt.Errorf("between on %s needs a two-element list", clause.Column)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, b.bind(pair[0]), b.bind(pair[1])), nil

	case types.OpIn, types.OpInRange:
		list, ok := clause.Value.([]any)
		if !ok || len(list) == 0 {
			return "", fmt.Errorf("%s on %s needs a non-empty list", clause.Op, clause.Column)
		}
		holes := make([]string, len(list))
		for i, v := range list {
			holes[i] = b.bind(v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(holes, ", ")), nil

	default:
		op, ok := comparisonOps[clause.Op]
		if !ok {
			return "", fmt.Errorf("unsupported operator %q", clause.Op)
		}
		return fmt.Sprintf("%s %s %s", col, op, b.bind(clause.Value)), nil
	}
}
