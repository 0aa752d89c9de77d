package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dkarlsson/tabview/client"
	"github.com/dkarlsson/tabview/config"
	"github.com/dkarlsson/tabview/controller"
	"github.com/dkarlsson/tabview/databases"
	"github.com/dkarlsson/tabview/export"
	"github.com/dkarlsson/tabview/grid"
	"github.com/dkarlsson/tabview/mcp"
	"github.com/dkarlsson/tabview/query"
	"github.com/dkarlsson/tabview/server"
	"github.com/dkarlsson/tabview/types"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var filters stringList

	configPath := flag.String("config", "config.yaml", "path to config file")
	serveMode := flag.Bool("serve", false, "serve the dataset API over HTTP")
	mcpMode := flag.Bool("mcp", false, "serve the dataset tools over MCP stdio")
	table := flag.String("table", "", "table to query (omit to list tables)")
	flag.Var(&filters, "filter", "filter as column:op[:value], repeatable")
	orMode := flag.Bool("or", false, "combine filters with OR instead of AND")
	sortBy := flag.String("sort", "", "column to sort by")
	desc := flag.Bool("desc", false, "sort descending")
	limit := flag.Int("limit", query.DefaultLimit, "page size")
	offset := flag.Int("offset", 0, "page offset")
	fields := flag.String("fields", "", "comma-separated column projection")
	doExport := flag.Bool("export", false, "stream the full result set to an NDJSON file")
	outDir := flag.String("out", ".", "directory for exported files")
	height := flag.Int("rows", 40, "visible grid rows")
	top := flag.Int("top", 0, "first visible grid row")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	var runErr error
	switch {
	case *serveMode:
		runErr = runServe(cfg)
	case *mcpMode:
		runErr = runMCP(cfg)
	default:
		opts := exploreOptions{
			table:    *table,
			filters:  filters,
			orMode:   *orMode,
			sortBy:   *sortBy,
			desc:     *desc,
			limit:    *limit,
			offset:   *offset,
			fields:   *fields,
			doExport: *doExport,
			outDir:   *outDir,
			height:   *height,
			top:      *top,
		}
		runErr = runExplore(cfg, opts)
	}
	if runErr != nil {
		color.Red("error: %v", runErr)
		os.Exit(1)
	}
}

func runServe(cfg *config.Config) error {
	connStr, err := cfg.Database.GetConnectionString()
	if err != nil {
		return err
	}

	executor, err := databases.NewExecutor(cfg.Database.DBType, connStr)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	s := server.New(cfg.Server, executor)
	defer s.Close()
	return s.ListenAndServe(cfg.Server.Addr)
}

func runMCP(cfg *config.Config) error {
	connStr, err := cfg.Database.GetConnectionString()
	if err != nil {
		return err
	}

	executor, err := databases.NewExecutor(cfg.Database.DBType, connStr)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	defer executor.Close()

	s := mcpserver.NewMCPServer(
		"tabview",
		"0.1.0",
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithLogging(),
	)
	mcp.RegisterTools(s, executor)
	slog.Info("serving dataset tools over stdio")

	return mcpserver.ServeStdio(s)
}

type exploreOptions struct {
	table    string
	filters  []string
	orMode   bool
	sortBy   string
	desc     bool
	limit    int
	offset   int
	fields   string
	doExport bool
	outDir   string
	height   int
	top      int
}

func runExplore(cfg *config.Config, opts exploreOptions) error {
	c := client.New(cfg.Backend)
	ctx := context.Background()

	if opts.table == "" {
		tables, err := c.Tables(ctx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			fmt.Println(t)
		}
		return nil
	}

	session, err := buildSession(opts)
	if err != nil {
		return err
	}
	d := session.Descriptor()

	if opts.doExport {
		return runExport(ctx, c, d, opts.outDir)
	}
	return runQuery(c, d, opts)
}

func buildSession(opts exploreOptions) (*query.Session, error) {
	session := query.NewSession()
	session.SelectTable(opts.table)
	if opts.orMode {
		session.LogicalOperator = types.LogicalOr
	}
	session.Limit = opts.limit
	session.Offset = opts.offset
	session.SortColumn = opts.sortBy
	if opts.desc {
		session.SortDirection = "desc"
	}
	if opts.fields != "" {
		for _, f := range strings.Split(opts.fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				session.Fields = append(session.Fields, f)
			}
		}
	}

	for _, raw := range opts.filters {
		row, err := parseFilter(raw)
		if err != nil {
			return nil, err
		}
		session.Rows = append(session.Rows, row)
	}
	return session, nil
}

// parseFilter reads column:op[:value]. The value keeps any further colons.
func parseFilter(raw string) (types.FilterRow, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return types.FilterRow{}, fmt.Errorf("invalid filter %q: want column:op[:value]", raw)
	}
	row := types.FilterRow{Column: parts[0], Operator: parts[1]}
	if len(parts) == 3 {
		row.Value = parts[2]
	}
	if !types.ValidOperator(row.Operator) {
		return types.FilterRow{}, fmt.Errorf("invalid filter %q: unknown operator %q", raw, row.Operator)
	}
	return row, nil
}

func runQuery(c *client.Client, d *types.QueryDescriptor, opts exploreOptions) error {
	errCh := make(chan error, 1)
	ctrl := controller.New(c,
		controller.WithDebounce(10*time.Millisecond),
		controller.WithNotify(func(err error) {
			select {
			case errCh <- err:
			default:
			}
		}))
	defer ctrl.Close()

	ctrl.SetDescriptor(d)

	for {
		select {
		case <-ctrl.Updates():
			snap := ctrl.Snapshot()
			if snap.Busy || snap.Result == nil {
				continue
			}
			renderResult(d, snap.Result, opts)
			return nil
		case err := <-errCh:
			return err
		case <-time.After(60 * time.Second):
			return errors.New("timed out waiting for query result")
		}
	}
}

func renderResult(d *types.QueryDescriptor, result *types.QueryResult, opts exploreOptions) {
	columns := query.Columns(d, result)
	widths := grid.EstimateWidths(columns, result.Rows)
	g := grid.New(columns, widths)
	g.Render(os.Stdout, result.Rows, grid.Window{Top: opts.top, Height: opts.height}, false)

	faint := color.New(color.Faint)
	faint.Printf("rows %d-%d of %d\n", d.Offset, d.Offset+len(result.Rows), result.Total)
}

func runExport(ctx context.Context, c *client.Client, d *types.QueryDescriptor, outDir string) error {
	progress := color.New(color.FgYellow)
	e := export.New(c,
		export.WithDir(outDir),
		export.WithProgress(func(p export.Progress) {
			progress.Printf("\rexport %s: %d records, %d bytes", p.JobID[:8], p.Records, p.Bytes)
		}))

	path, records, err := e.Run(ctx, d)
	fmt.Println()
	if err != nil {
		return err
	}
	color.Green("exported %d records to %s", records, path)
	return nil
}
