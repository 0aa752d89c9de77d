package query

import (
	"reflect"
	"sort"

	"github.com/dkarlsson/tabview/types"
)

const DefaultLimit = 100

// Session holds the draft exploration state one descriptor is computed from:
// the selected table, the editable filter rows, sort, pagination and the
// optional column projection.
type Session struct {
	Table           string
	Rows            []types.FilterRow
	LogicalOperator string
	SortColumn      string
	SortDirection   string
	Limit           int
	Offset          int
	Fields          []string
}

func NewSession() *Session {
	return &Session{
		LogicalOperator: types.LogicalAnd,
		SortDirection:   "asc",
		Limit:           DefaultLimit,
	}
}

// SelectTable switches the session to a different table. Filters, projected
// fields and the page offset are reset first so state built against the old
// table never applies to the new one.
func (s *Session) SelectTable(table string) {
	if table == s.Table {
		return
	}
	s.Table = table
	s.Rows = nil
	s.Fields = nil
	s.Offset = 0
	s.SortColumn = ""
}

func (s *Session) AddRow() {
	s.Rows = append(s.Rows, types.FilterRow{Operator: types.OpEq})
}

func (s *Session) RemoveRow(i int) {
	if i < 0 || i >= len(s.Rows) {
		return
	}
	s.Rows = append(s.Rows[:i], s.Rows[i+1:]...)
}

// NextPage and PrevPage step the offset in whole limit increments, keeping it
// a non-negative multiple of the page size.
func (s *Session) NextPage() {
	s.Offset += s.limit()
}

func (s *Session) PrevPage() {
	s.Offset -= s.limit()
	if s.Offset < 0 {
		s.Offset = 0
	}
}

func (s *Session) limit() int {
	if s.Limit <= 0 {
		return DefaultLimit
	}
	return s.Limit
}

// Descriptor compiles the current draft into the immutable request contract.
// It returns nil while no table is selected, which is the signal to issue no
// request at all. Rejected filter rows are silently omitted per CompileRows.
func (s *Session) Descriptor() *types.QueryDescriptor {
	if s.Table == "" {
		return nil
	}

	clauses, _ := CompileRows(s.Rows)

	d := &types.QueryDescriptor{
		Table:           s.Table,
		Filters:         clauses,
		LogicalOperator: s.LogicalOperator,
		Limit:           s.limit(),
		Offset:          s.Offset,
	}
	if d.LogicalOperator == "" {
		d.LogicalOperator = types.LogicalAnd
	}
	if s.SortColumn != "" {
		dir := s.SortDirection
		if dir == "" {
			dir = "asc"
		}
		d.OrderBy = &types.OrderBy{Column: s.SortColumn, Direction: dir}
	}
	if len(s.Fields) > 0 {
		d.Fields = append([]string(nil), s.Fields...)
	}
	return d
}

// Columns derives the visible column set: the explicit projection wins,
// otherwise the key order of the first returned row, otherwise nothing.
func Columns(d *types.QueryDescriptor, result *types.QueryResult) []string {
	if d != nil && len(d.Fields) > 0 {
		return d.Fields
	}
	if result == nil || len(result.Rows) == 0 {
		return nil
	}
	return sortedKeys(result.Rows[0])
}

func sortedKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DescriptorsEqual reports value equality of two descriptors; equal
// descriptors mean no new request is needed.
func DescriptorsEqual(a, b *types.QueryDescriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(*a, *b)
}
