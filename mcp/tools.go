package mcp

import (
	goMCP "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dkarlsson/tabview/databases"
	"github.com/dkarlsson/tabview/handlers"
)

func RegisterTools(s *server.MCPServer, executor databases.Executor) {
	// List tool
	listTool := goMCP.NewTool("list_tables",
		goMCP.WithDescription("List the tables available in the dataset"),
	)

	// Query tool
	queryTool := goMCP.NewTool("query_table",
		goMCP.WithDescription("Run a structured filter/sort/pagination query against a table"),
		goMCP.WithString("table",
			goMCP.Required(),
			goMCP.Description("Name of the table to query"),
		),
		goMCP.WithString("filters",
			goMCP.Description(`JSON array of filter clauses, e.g. [{"column":"status","op":"eq","value":"shipped"}]`),
		),
		goMCP.WithString("logical_operator",
			goMCP.Description("How clauses combine: AND (default) or OR"),
		),
		goMCP.WithNumber("limit",
			goMCP.Description("Page size (default: 100)"),
		),
		goMCP.WithNumber("offset",
			goMCP.Description("Page offset (default: 0)"),
		),
	)

	// Sample tool
	sampleTool := goMCP.NewTool("sample_table",
		goMCP.WithDescription("Get sample data from a specific table"),
		goMCP.WithString("table",
			goMCP.Required(),
			goMCP.Description("Name of the table to sample"),
		),
		goMCP.WithNumber("limit",
			goMCP.Description("Number of rows to return (default: 10)"),
		),
	)

	s.AddTool(listTool, handlers.ListTablesHandler(executor))
	s.AddTool(queryTool, handlers.QueryTableHandler(executor))
	s.AddTool(sampleTool, handlers.SampleTableHandler(executor))
}
