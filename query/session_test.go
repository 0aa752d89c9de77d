package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarlsson/tabview/types"
)

func TestSession_NoTableNoDescriptor(t *testing.T) {
	s := NewSession()
	assert.Nil(t, s.Descriptor())
}

func TestSession_DescriptorDefaults(t *testing.T) {
	s := NewSession()
	s.SelectTable("orders")

	d := s.Descriptor()
	require.NotNil(t, d)
	assert.Equal(t, "orders", d.Table)
	assert.Equal(t, types.LogicalAnd, d.LogicalOperator)
	assert.Equal(t, DefaultLimit, d.Limit)
	assert.Equal(t, 0, d.Offset)
	assert.Nil(t, d.OrderBy)
	assert.Nil(t, d.Fields)
}

func TestSession_TableChangeResetsState(t *testing.T) {
	s := NewSession()
	s.SelectTable("orders")
	s.Rows = []types.FilterRow{{Column: "status", Operator: types.OpEq, Value: "shipped"}}
	s.Fields = []string{"id", "status"}
	s.NextPage()
	s.SortColumn = "id"

	s.SelectTable("customers")

	assert.Empty(t, s.Rows)
	assert.Empty(t, s.Fields)
	assert.Zero(t, s.Offset)
	assert.Empty(t, s.SortColumn)

	d := s.Descriptor()
	require.NotNil(t, d)
	assert.Empty(t, d.Filters)
	assert.Nil(t, d.Fields)
	assert.Zero(t, d.Offset)
}

func TestSession_ReselectingSameTableKeepsState(t *testing.T) {
	s := NewSession()
	s.SelectTable("orders")
	s.Rows = []types.FilterRow{{Column: "status", Operator: types.OpEq, Value: "shipped"}}

	s.SelectTable("orders")
	assert.Len(t, s.Rows, 1)
}

func TestSession_Paging(t *testing.T) {
	s := NewSession()
	s.SelectTable("orders")
	s.Limit = 50

	s.NextPage()
	s.NextPage()
	assert.Equal(t, 100, s.Offset)

	s.PrevPage()
	assert.Equal(t, 50, s.Offset)

	s.PrevPage()
	s.PrevPage()
	assert.Equal(t, 0, s.Offset, "offset never goes negative")
}

func TestSession_DescriptorWireShape(t *testing.T) {
	s := NewSession()
	s.SelectTable("orders")
	s.Rows = []types.FilterRow{{Column: "status", Operator: types.OpEq, Value: "shipped"}}

	body, err := json.Marshal(s.Descriptor())
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"filters":[{"column":"status","op":"eq","value":"shipped"}],"logical_operator":"AND","limit":100,"offset":0}`,
		string(body))
}

func TestSession_OrderByAndFieldsIncludedOnlyWhenSet(t *testing.T) {
	s := NewSession()
	s.SelectTable("orders")
	s.SortColumn = "created_at"
	s.SortDirection = "desc"
	s.Fields = []string{"id", "created_at"}

	d := s.Descriptor()
	require.NotNil(t, d.OrderBy)
	assert.Equal(t, "created_at", d.OrderBy.Column)
	assert.Equal(t, "desc", d.OrderBy.Direction)
	assert.Equal(t, []string{"id", "created_at"}, d.Fields)

	body, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"order_by"`)

	s.Fields = nil
	s.SortColumn = ""
	body, err = json.Marshal(s.Descriptor())
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"order_by"`)
	assert.NotContains(t, string(body), `"fields"`)
}

func TestColumns(t *testing.T) {
	d := &types.QueryDescriptor{Fields: []string{"b", "a"}}
	assert.Equal(t, []string{"b", "a"}, Columns(d, nil), "explicit projection wins")

	res := &types.QueryResult{Rows: []map[string]any{{"z": 1, "a": 2}}}
	assert.Equal(t, []string{"a", "z"}, Columns(&types.QueryDescriptor{}, res))

	assert.Nil(t, Columns(&types.QueryDescriptor{}, &types.QueryResult{}))
}

func TestDescriptorsEqual(t *testing.T) {
	s := NewSession()
	s.SelectTable("orders")
	a := s.Descriptor()
	b := s.Descriptor()
	assert.True(t, DescriptorsEqual(a, b))

	s.NextPage()
	c := s.Descriptor()
	assert.False(t, DescriptorsEqual(a, c))
	assert.False(t, DescriptorsEqual(a, nil))
	assert.True(t, DescriptorsEqual(nil, nil))
}
