package records

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// Source provides the rows of a table and its column ids in order
type Source interface {
	Rows(ctx context.Context) ([]models.Row, []string, error)
}

// PGConfig locates a Postgres table to read rows from
type PGConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Table    string
}

// PGSource reads every row of one Postgres table through a pool
type PGSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGSource connects to Postgres and checks the connection
func NewPGSource(ctx context.Context, config PGConfig) (*PGSource, error) {
	if strings.TrimSpace(config.Table) == "" {
		return nil, fmt.Errorf("postgres source needs a table name")
	}

	config, err := config.withCredentials(os.Getenv, defaultPgPassPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(buildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGSource{pool: pool, table: config.Table}, nil
}

// Rows reads the whole table. Column ids follow the table's column order.
func (p *PGSource) Rows(ctx context.Context) ([]models.Row, []string, error) {
	rows, err := p.pool.Query(ctx, "SELECT * FROM "+quoteTable(p.table))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s: %w", p.table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var results []models.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}

		row := make(models.Row, len(columns))
		for i, name := range columns {
			row[name] = values[i]
		}
		results = append(results, row)
	}

	return results, columns, rows.Err()
}

// Close closes the connection pool
func (p *PGSource) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// quoteTable quotes a possibly schema-qualified table name
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	return pgx.Identifier(parts).Sanitize()
}

func buildConnectionString(config PGConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	port := config.Port
	if port == 0 {
		port = 5432
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s database=%s sslmode=%s",
		config.Host,
		port,
		config.User,
		config.Database,
		sslMode,
	)

	if config.Password != "" {
		connStr += fmt.Sprintf(" password=%s", config.Password)
	}

	return connStr
}
