// Package writer persists an epoch's heavy-hitter reports once a restore
// completes, mirroring the teacher's writer_clickhouse.go/writer_text.go
// split between a durable sink and a plain-text one.
package writer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/hovering-clouds/acsengine/internal/config"
	"github.com/hovering-clouds/acsengine/internal/driver"
)

const createHeavyHittersTableStatement = `
CREATE TABLE IF NOT EXISTS %s (
    Timestamp DateTime,
    TaskName  String,
    Flow      String,
    Value     Int64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (TaskName, Timestamp);
`

// ClickHouseWriter persists heavy-hitter reports to a ClickHouse table.
type ClickHouseWriter struct {
	conn  chdriver.Conn
	table string
}

// NewClickHouseWriter connects to ClickHouse and ensures the heavy-hitter
// table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	table := cfg.Table
	if table == "" {
		table = "heavy_hitters"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	if err := conn.Exec(context.Background(), fmt.Sprintf(createHeavyHittersTableStatement, table)); err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", table, err)
	}
	log.Printf("Connected to ClickHouse, heavy hitters will be written to %s", table)

	return &ClickHouseWriter{conn: conn, table: table}, nil
}

func (w *ClickHouseWriter) GetInterval() time.Duration { return 0 }

// Write appends the epoch's heavy-hitter reports for one task to the
// ClickHouse table in a single batch.
func (w *ClickHouseWriter) Write(payload interface{}, timestamp, name string) error {
	reports, ok := payload.([]driver.Report)
	if !ok {
		return fmt.Errorf("invalid payload type for ClickHouse writer: expected []driver.Report, got %T", payload)
	}

	snapshotTime, err := time.Parse("2006-01-02_15-04-05", timestamp)
	if err != nil {
		return fmt.Errorf("invalid snapshot timestamp %q: %w", timestamp, err)
	}

	batch, err := w.conn.PrepareBatch(context.Background(), fmt.Sprintf("INSERT INTO %s", w.table))
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, r := range reports {
		if err := batch.Append(snapshotTime, name, r.Flow, r.Value); err != nil {
			return fmt.Errorf("failed to append heavy hitter to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	log.Printf("Wrote %d heavy hitters for task %s to ClickHouse", len(reports), name)
	return nil
}
