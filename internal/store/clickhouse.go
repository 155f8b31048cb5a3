package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultBatchSize rows per native insert
const DefaultBatchSize = 100_000

// Options locate the ClickHouse table.
type Options struct {
	Host      string // host:port of the native protocol
	Database  string
	Table     string
	User      string
	Password  string
	BatchSize int
}

// FQN is database.table.
func (o Options) FQN() string {
	return o.Database + "." + o.Table
}

// =============================================================================
// ContactBatch - columnar buffer for native insert
// =============================================================================

// ContactBatch holds column data for one native INSERT block.
type ContactBatch struct {
	RunID       *proto.ColUUID
	Source      *proto.ColStr
	QSOTime     *proto.ColDateTime
	Call        *proto.ColStr
	Mode        *proto.ColStr
	Grid        *proto.ColStr
	FreqHz      *proto.ColUInt64
	Band        *proto.ColStr
	BandID      *proto.ColInt32
	Lat         *proto.ColFloat64
	Lon         *proto.ColFloat64
	HasLocation *proto.ColBool
	DistanceKm  *proto.ColFloat64
	Bearing     *proto.ColFloat64
	SNR         *proto.ColInt16
	HasSNR      *proto.ColBool
	Country     *proto.ColStr
	Continent   *proto.ColStr
	CQZone      *proto.ColUInt8
	IsDX        *proto.ColBool
	Greyline    *proto.ColBool
}

func NewContactBatch() *ContactBatch {
	return &ContactBatch{
		RunID:       new(proto.ColUUID),
		Source:      new(proto.ColStr),
		QSOTime:     new(proto.ColDateTime),
		Call:        new(proto.ColStr),
		Mode:        new(proto.ColStr),
		Grid:        new(proto.ColStr),
		FreqHz:      new(proto.ColUInt64),
		Band:        new(proto.ColStr),
		BandID:      new(proto.ColInt32),
		Lat:         new(proto.ColFloat64),
		Lon:         new(proto.ColFloat64),
		HasLocation: new(proto.ColBool),
		DistanceKm:  new(proto.ColFloat64),
		Bearing:     new(proto.ColFloat64),
		SNR:         new(proto.ColInt16),
		HasSNR:      new(proto.ColBool),
		Country:     new(proto.ColStr),
		Continent:   new(proto.ColStr),
		CQZone:      new(proto.ColUInt8),
		IsDX:        new(proto.ColBool),
		Greyline:    new(proto.ColBool),
	}
}

// Append adds one row. An unparseable RunID is stored as the nil UUID.
func (b *ContactBatch) Append(r Row) {
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		id = uuid.Nil
	}
	b.RunID.Append(id)
	b.Source.Append(r.Source)
	b.QSOTime.Append(time.Unix(r.QSOTime, 0).UTC())
	b.Call.Append(r.Call)
	b.Mode.Append(r.Mode)
	b.Grid.Append(r.Grid)
	b.FreqHz.Append(r.FreqHz)
	b.Band.Append(r.Band)
	b.BandID.Append(r.BandID)
	b.Lat.Append(r.Lat)
	b.Lon.Append(r.Lon)
	b.HasLocation.Append(r.HasLocation)
	b.DistanceKm.Append(r.DistanceKm)
	b.Bearing.Append(r.Bearing)
	b.SNR.Append(r.SNR)
	b.HasSNR.Append(r.HasSNR)
	b.Country.Append(r.Country)
	b.Continent.Append(r.Continent)
	b.CQZone.Append(r.CQZone)
	b.IsDX.Append(r.IsDX)
	b.Greyline.Append(r.Greyline)
}

func (b *ContactBatch) Reset() {
	for _, c := range b.Input() {
		c.Data.(proto.Resettable).Reset()
	}
}

func (b *ContactBatch) Len() int {
	return b.Call.Rows()
}

// Input lists the columns in table order.
func (b *ContactBatch) Input() proto.Input {
	return proto.Input{
		{Name: "run_id", Data: b.RunID},
		{Name: "source", Data: b.Source},
		{Name: "qso_time", Data: b.QSOTime},
		{Name: "call", Data: b.Call},
		{Name: "mode", Data: b.Mode},
		{Name: "grid", Data: b.Grid},
		{Name: "freq_hz", Data: b.FreqHz},
		{Name: "band", Data: b.Band},
		{Name: "band_id", Data: b.BandID},
		{Name: "lat", Data: b.Lat},
		{Name: "lon", Data: b.Lon},
		{Name: "has_location", Data: b.HasLocation},
		{Name: "distance_km", Data: b.DistanceKm},
		{Name: "bearing", Data: b.Bearing},
		{Name: "snr", Data: b.SNR},
		{Name: "has_snr", Data: b.HasSNR},
		{Name: "country", Data: b.Country},
		{Name: "continent", Data: b.Continent},
		{Name: "cq_zone", Data: b.CQZone},
		{Name: "is_dx", Data: b.IsDX},
		{Name: "greyline", Data: b.Greyline},
	}
}

var batchPool = sync.Pool{
	New: func() interface{} {
		return NewContactBatch()
	},
}

// CreateTableSQL returns the DDL for the contacts table.
func CreateTableSQL(fqn string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id       UUID,
    source       String,
    qso_time     DateTime,
    call         String,
    mode         String,
    grid         String,
    freq_hz      UInt64,
    band         String,
    band_id      Int32,
    lat          Float64,
    lon          Float64,
    has_location Bool,
    distance_km  Float64,
    bearing      Float64,
    snr          Int16,
    has_snr      Bool,
    country      String,
    continent    String,
    cq_zone      UInt8,
    is_dx        Bool,
    greyline     Bool
) ENGINE = MergeTree
PARTITION BY toYYYYMM(qso_time)
ORDER BY (band_id, qso_time, call)`, fqn)
}

// InsertSQL returns the INSERT header matching ContactBatch.Input.
func InsertSQL(fqn string) string {
	names := make([]string, 0, 21)
	for _, c := range NewContactBatch().Input() {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES", fqn, strings.Join(names, ", "))
}

func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// =============================================================================
// Writer - ch-go native protocol
// =============================================================================

// Writer buffers rows and inserts them in blocks over the native protocol.
// Not safe for concurrent use.
type Writer struct {
	conn      *ch.Client
	opts      Options
	batch     *ContactBatch
	log       *zap.SugaredLogger
	inserted  int
	flushes   int
	lastFlush time.Duration
}

// Dial connects to ClickHouse.
func Dial(ctx context.Context, opts Options, log *zap.SugaredLogger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	conn, err := ch.Dial(ctx, ch.Options{
		Address:     opts.Host,
		Database:    opts.Database,
		User:        opts.User,
		Password:    opts.Password,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect %s: %w", opts.Host, err)
	}

	return &Writer{
		conn:  conn,
		opts:  opts,
		batch: batchPool.Get().(*ContactBatch),
		log:   log,
	}, nil
}

// EnsureTable creates the contacts table when missing.
func (w *Writer) EnsureTable(ctx context.Context) error {
	if err := w.conn.Do(ctx, ch.Query{Body: CreateTableSQL(w.opts.FQN())}); err != nil {
		return fmt.Errorf("create table %s: %w", w.opts.FQN(), err)
	}
	return nil
}

// DropSource deletes rows previously ingested from the same source so a
// re-ingest replaces instead of duplicating.
func (w *Writer) DropSource(ctx context.Context, source string) error {
	query := fmt.Sprintf("ALTER TABLE %s DELETE WHERE source = %s", w.opts.FQN(), quoteString(source))
	if err := w.conn.Do(ctx, ch.Query{Body: query}); err != nil {
		if !strings.Contains(err.Error(), "not found") && !strings.Contains(err.Error(), "NO_SUCH_DATA_PART") {
			return err
		}
	}
	return nil
}

// Write buffers rows, flushing whenever the batch is full.
func (w *Writer) Write(ctx context.Context, rows []Row) error {
	for i := range rows {
		w.batch.Append(rows[i])
		if w.batch.Len() >= w.opts.BatchSize {
			if err := w.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush sends the buffered rows.
func (w *Writer) Flush(ctx context.Context) error {
	n := w.batch.Len()
	if n == 0 {
		return nil
	}
	start := time.Now()
	err := w.conn.Do(ctx, ch.Query{
		Body:  InsertSQL(w.opts.FQN()),
		Input: w.batch.Input(),
	})
	w.batch.Reset()
	if err != nil {
		return fmt.Errorf("insert %d rows: %w", n, err)
	}
	w.lastFlush = time.Since(start)
	w.inserted += n
	w.flushes++
	w.log.Debugw("batch flushed", "rows", n, "elapsed", w.lastFlush)
	return nil
}

// Inserted returns rows successfully sent.
func (w *Writer) Inserted() int { return w.inserted }

// LastFlush returns the duration of the most recent insert.
func (w *Writer) LastFlush() time.Duration { return w.lastFlush }

// Close flushes what is left and closes the connection.
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush(ctx)
	w.batch.Reset()
	batchPool.Put(w.batch)
	w.batch = nil
	return multierr.Append(err, w.conn.Close())
}
