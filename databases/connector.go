package databases

import (
	"context"
	"fmt"

	"github.com/dkarlsson/tabview/databases/mysql"
	"github.com/dkarlsson/tabview/databases/postgres"
	"github.com/dkarlsson/tabview/databases/sqlite"
	"github.com/dkarlsson/tabview/types"
)

// Executor runs descriptor queries against one previously-ingested dataset.
type Executor interface {
	Ping(ctx context.Context) error
	ListTables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
	Query(ctx context.Context, d *types.QueryDescriptor) (*types.QueryResult, error)
	Close() error
}

func NewExecutor(dbType, connectionString string) (Executor, error) {
	switch dbType {
	case "postgres":
		return postgres.NewConnector(connectionString)
	case "mysql":
		return mysql.NewConnector(connectionString)
	case "sqlite":
		return sqlite.NewConnector(connectionString)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
