package clickhouse

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Secure   bool
	Debug    bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "bsops",
		Secure:   false,
		Debug:    false,
	}
}

// ConfigFromEnv creates a Config from environment variables
func ConfigFromEnv(usernameEnv, passwordEnv string) *Config {
	cfg := DefaultConfig()
	cfg.Username = os.Getenv(usernameEnv)
	cfg.Password = os.Getenv(passwordEnv)
	return cfg
}

// Client wraps a ClickHouse connection
type Client struct {
	conn   driver.Conn
	config *Config
}

// NewClient creates a new ClickHouse client
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{config: cfg}
}

// Connect establishes a connection to ClickHouse
func (c *Client) Connect(ctx context.Context) error {
	protocol := clickhouse.Native
	if c.config.Secure {
		protocol = clickhouse.HTTP
	}

	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)},
		Auth: clickhouse.Auth{
			Database: c.config.Database,
			Username: c.config.Username,
			Password: c.config.Password,
		},
		Protocol: protocol,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}

	if c.config.Debug {
		options.Debug = true
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	// Verify connection
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	c.conn = conn
	return nil
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Conn returns the underlying connection
func (c *Client) Conn() driver.Conn {
	return c.conn
}

// Ping checks if the connection is alive
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.Ping(ctx)
}

// InitSchema creates the required ClickHouse tables
func (c *Client) InitSchema(ctx context.Context) error {
	queries := []string{
		// Catalog snapshot table: one row per product per sync run
		`CREATE TABLE IF NOT EXISTS catalog_snapshots (
			asin String,
			title String,
			brand String,
			price Nullable(Decimal(12, 2)),
			currency String DEFAULT 'EUR',
			sales_rank Nullable(Int32),
			category_name Nullable(String),
			is_active UInt8 DEFAULT 1,
			captured_at DateTime64(3),
			captured_date Date
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(captured_date)
		ORDER BY (asin, captured_at)
		TTL captured_date + INTERVAL 2 YEAR`,

		// Daily price aggregation materialized view
		`CREATE MATERIALIZED VIEW IF NOT EXISTS snapshot_daily_mv
		ENGINE = SummingMergeTree()
		PARTITION BY toYYYYMM(date)
		ORDER BY (asin, date)
		AS SELECT
			asin,
			toDate(captured_at) as date,
			min(price) as min_price,
			max(price) as max_price,
			avg(price) as avg_price,
			min(sales_rank) as best_rank,
			count() as snapshot_count
		FROM catalog_snapshots
		GROUP BY asin, date`,
	}

	for _, query := range queries {
		if err := c.conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// SnapshotRecord is one catalog snapshot row
type SnapshotRecord struct {
	ASIN         string
	Title        string
	Brand        string
	Price        *float64
	Currency     string
	SalesRank    *int32
	CategoryName *string
	IsActive     bool
	CapturedAt   time.Time
}

// InsertSnapshots inserts a batch of snapshot records
func (c *Client) InsertSnapshots(ctx context.Context, records []SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO catalog_snapshots (
			asin, title, brand, price, currency, sales_rank,
			category_name, is_active, captured_at, captured_date
		)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, r := range records {
		active := uint8(0)
		if r.IsActive {
			active = 1
		}
		err := batch.Append(
			r.ASIN,
			r.Title,
			r.Brand,
			r.Price,
			r.Currency,
			r.SalesRank,
			r.CategoryName,
			active,
			r.CapturedAt,
			r.CapturedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append row for %s: %w", r.ASIN, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// GetSnapshotCount returns the total number of snapshot rows
func (c *Client) GetSnapshotCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.conn.QueryRow(ctx, "SELECT count() FROM catalog_snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// TableInfo holds information about a ClickHouse table
type TableInfo struct {
	Name      string
	Rows      uint64
	BytesSize uint64
	Engine    string
}

// GetTableInfo returns information about tables in the database
func (c *Client) GetTableInfo(ctx context.Context) ([]TableInfo, error) {
	query := `
		SELECT
			name,
			total_rows,
			total_bytes,
			engine
		FROM system.tables
		WHERE database = currentDatabase()
		ORDER BY total_bytes DESC
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []TableInfo
	for rows.Next() {
		var t TableInfo
		var totalRows, totalBytes *uint64
		if err := rows.Scan(&t.Name, &totalRows, &totalBytes, &t.Engine); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if totalRows != nil {
			t.Rows = *totalRows
		}
		if totalBytes != nil {
			t.BytesSize = *totalBytes
		}
		tables = append(tables, t)
	}

	return tables, rows.Err()
}
