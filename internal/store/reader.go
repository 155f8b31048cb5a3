package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
)

// BandRow summarizes stored contacts of one band.
type BandRow struct {
	Band       string
	Contacts   uint64
	AvgKm      float64
	MaxKm      float64
	DXContacts uint64
}

// CountryRow summarizes stored contacts of one country.
type CountryRow struct {
	Country  string
	Contacts uint64
	Bands    uint64
}

// RunRow describes one ingest run.
type RunRow struct {
	RunID    uuid.UUID
	Source   string
	Contacts uint64
	First    time.Time
	Last     time.Time
}

// Reader runs summary queries through clickhouse-go.
type Reader struct {
	conn driver.Conn
	fqn  string
}

// OpenReader connects and pings ClickHouse.
func OpenReader(ctx context.Context, opts Options) (*Reader, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Host},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.User,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", opts.Host, err)
	}
	return &Reader{conn: conn, fqn: opts.FQN()}, nil
}

func (r *Reader) Close() error {
	return r.conn.Close()
}

func bandSummarySQL(fqn string) string {
	return fmt.Sprintf(`SELECT
    band,
    count() AS contacts,
    avgIf(distance_km, has_location) AS avg_km,
    maxIf(distance_km, has_location) AS max_km,
    countIf(is_dx) AS dx
FROM %s
GROUP BY band, band_id
ORDER BY band_id = 0, band_id`, fqn)
}

func countrySummarySQL(fqn string) string {
	return fmt.Sprintf(`SELECT
    country,
    count() AS contacts,
    uniqExact(band) AS bands
FROM %s
GROUP BY country
ORDER BY contacts DESC, country
LIMIT ?`, fqn)
}

func runsSQL(fqn string) string {
	return fmt.Sprintf(`SELECT
    run_id,
    any(source),
    count(),
    min(qso_time),
    max(qso_time)
FROM %s
GROUP BY run_id
ORDER BY min(qso_time)`, fqn)
}

// BandSummary returns one row per stored band in band order.
func (r *Reader) BandSummary(ctx context.Context) ([]BandRow, error) {
	rows, err := r.conn.Query(ctx, bandSummarySQL(r.fqn))
	if err != nil {
		return nil, fmt.Errorf("band summary: %w", err)
	}
	defer rows.Close()

	var out []BandRow
	for rows.Next() {
		var b BandRow
		if err := rows.Scan(&b.Band, &b.Contacts, &b.AvgKm, &b.MaxKm, &b.DXContacts); err != nil {
			return nil, fmt.Errorf("scan band summary: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountrySummary returns the limit busiest countries.
func (r *Reader) CountrySummary(ctx context.Context, limit int) ([]CountryRow, error) {
	rows, err := r.conn.Query(ctx, countrySummarySQL(r.fqn), limit)
	if err != nil {
		return nil, fmt.Errorf("country summary: %w", err)
	}
	defer rows.Close()

	var out []CountryRow
	for rows.Next() {
		var c CountryRow
		if err := rows.Scan(&c.Country, &c.Contacts, &c.Bands); err != nil {
			return nil, fmt.Errorf("scan country summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Runs lists ingest runs, oldest first.
func (r *Reader) Runs(ctx context.Context) ([]RunRow, error) {
	rows, err := r.conn.Query(ctx, runsSQL(r.fqn))
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var run RunRow
		if err := rows.Scan(&run.RunID, &run.Source, &run.Contacts, &run.First, &run.Last); err != nil {
			return nil, fmt.Errorf("scan runs: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
