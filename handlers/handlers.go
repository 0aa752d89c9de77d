package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dkarlsson/tabview/databases"
	"github.com/dkarlsson/tabview/types"
)

// ListTablesHandler creates a handler for the list_tables tool
func ListTablesHandler(executor databases.Executor) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := executor.ListTables(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("List tables failed: %v", err)), nil
		}

		jsonData, err := json.MarshalIndent(types.TablesResponse{Tables: tables}, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// QueryTableHandler creates a handler for the query_table tool. Filters
// arrive as a JSON array of clauses in the wire shape the HTTP contract uses.
func QueryTableHandler(executor databases.Executor) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := request.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing table parameter: %v", err)), nil
		}

		d := &types.QueryDescriptor{
			Table:           table,
			Filters:         []types.FilterClause{},
			LogicalOperator: types.LogicalAnd,
			Limit:           100,
		}

		if args, ok := request.Params.Arguments.(map[string]any); ok {
			if raw, exists := args["filters"]; exists {
				if encoded, ok := raw.(string); ok && encoded != "" {
					if err := json.Unmarshal([]byte(encoded), &d.Filters); err != nil {
						return mcp.NewToolResultError(fmt.Sprintf("Invalid filters parameter: %v", err)), nil
					}
				}
			}
			if op, ok := args["logical_operator"].(string); ok && op == types.LogicalOr {
				d.LogicalOperator = types.LogicalOr
			}
			if limit, ok := args["limit"].(float64); ok && limit > 0 {
				d.Limit = int(limit)
			}
			if offset, ok := args["offset"].(float64); ok && offset >= 0 {
				d.Offset = int(offset)
			}
		}

		result, err := executor.Query(ctx, d)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Query failed: %v", err)), nil
		}

		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// SampleTableHandler creates a handler for the sample_table tool
func SampleTableHandler(executor databases.Executor) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := request.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing table parameter: %v", err)), nil
		}

		limit := 10
		if args, ok := request.Params.Arguments.(map[string]any); ok {
			if n, ok := args["limit"].(float64); ok && n > 0 {
				limit = int(n)
			}
		}

		d := &types.QueryDescriptor{
			Table:           table,
			Filters:         []types.FilterClause{},
			LogicalOperator: types.LogicalAnd,
			Limit:           limit,
		}

		result, err := executor.Query(ctx, d)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Sample failed: %v", err)), nil
		}

		jsonData, err := json.MarshalIndent(result.Rows, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
