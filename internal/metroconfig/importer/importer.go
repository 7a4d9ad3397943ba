package importer

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/mnmetro-config/internal/common/db"
	"github.com/mnmetro-config/pkg/metro/models"
)

//go:embed schema.sql
var schemaSQL string

// Source is the read side of a loaded metro config.
type Source interface {
	Source() string
	TimeStamp() (string, error)
	ListCorridors() ([]models.Corridor, error)
	ListNodes(c models.Corridor) ([]models.Node, error)
}

type Importer struct {
	db        *db.DB
	versions  *db.VersionChecker
	batchSize int
	force     bool
}

type Option func(*Importer)

// WithBatchSize sets the number of rows per INSERT statement.
func WithBatchSize(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithForce imports even when the active version has the same time stamp.
func WithForce(force bool) Option {
	return func(i *Importer) {
		i.force = force
	}
}

func NewImporter(database *db.DB, opts ...Option) *Importer {
	i := &Importer{
		db:        database,
		versions:  db.NewVersionChecker(database),
		batchSize: 1000,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Result summarizes one import run.
type Result struct {
	VersionID int
	Skipped   bool
	Corridors int
	Nodes     int
	Detectors int
}

// EnsureSchema creates the metro schema and tables if missing.
func (i *Importer) EnsureSchema(ctx context.Context) error {
	if _, err := i.db.DB().ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating metro schema: %w", err)
	}
	return nil
}

// Import copies every corridor and r_node of src into a new active version.
func (i *Importer) Import(ctx context.Context, src Source) (*Result, error) {
	log := i.db.Logger()

	timeStamp, err := src.TimeStamp()
	if err != nil {
		return nil, fmt.Errorf("reading time stamp: %w", err)
	}

	if !i.force {
		current, err := i.versions.IsCurrent(ctx, timeStamp)
		if err != nil {
			return nil, err
		}
		if current {
			log.Info("Metro config already imported, skipping", "time_stamp", timeStamp)
			return &Result{Skipped: true}, nil
		}
	}

	corridors, err := src.ListCorridors()
	if err != nil {
		return nil, fmt.Errorf("listing corridors: %w", err)
	}

	tx, err := i.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	versionID, err := i.versions.CreateVersion(ctx, tx, timeStamp, src.Source())
	if err != nil {
		return nil, err
	}

	result, err := i.copyRecords(ctx, tx, versionID, src, corridors)
	if err != nil {
		return nil, err
	}

	if err := i.versions.ActivateVersion(ctx, tx, versionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	log.Info("Import completed successfully",
		"version_id", versionID,
		"corridors", result.Corridors,
		"r_nodes", result.Nodes,
		"detectors", result.Detectors)

	return result, nil
}

func (i *Importer) copyRecords(ctx context.Context, tx execer, versionID int, src Source, corridors []models.Corridor) (*Result, error) {
	log := i.db.Logger()

	corridorBatch := i.newBatchInserter("corridors")
	nodeBatch := i.newBatchInserter("r_nodes")
	detectorBatch := i.newBatchInserter("detectors")
	batches := []*batchInserter{corridorBatch, nodeBatch, detectorBatch}
	for _, batch := range batches {
		batch.tx = tx
	}

	result := &Result{VersionID: versionID}
	seen := make(map[models.Corridor]bool, len(corridors))

	for seq, c := range corridors {
		if seen[c] {
			// the reader only ever resolves the first corridor with a given key
			log.Warn("Skipping duplicate corridor", "route", c.Route, "dir", c.Direction, "seq", seq)
			continue
		}
		seen[c] = true

		nodes, err := src.ListNodes(c)
		if err != nil {
			return nil, fmt.Errorf("listing r_nodes of %s: %w", c, err)
		}

		if err := corridorBatch.Add(ctx, versionID, seq, c.Route, c.Direction); err != nil {
			return nil, err
		}
		result.Corridors++

		for nodeSeq, n := range nodes {
			if err := nodeBatch.Add(ctx, nodeRow(versionID, seq, nodeSeq, n)...); err != nil {
				return nil, err
			}
			result.Nodes++

			for detSeq, d := range n.Detectors {
				if err := detectorBatch.Add(ctx, detectorRow(versionID, n.Name, detSeq, d)...); err != nil {
					return nil, err
				}
				result.Detectors++
			}
		}
	}

	for _, batch := range batches {
		if err := batch.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flushing %s batch: %w", batch.tableName, err)
		}
	}

	return result, nil
}

func nodeRow(versionID, corridorSeq, seq int, n models.Node) []interface{} {
	return []interface{}{
		versionID,
		corridorSeq,
		seq,
		n.Name,
		sql.NullString{String: n.Type, Valid: n.Type != ""},
		nullString(n.Label),
		nullFloat(n.Latitude),
		nullFloat(n.Longitude),
		nullString(n.Lanes),
		nullString(n.Shift),
		nullString(n.StationID),
		nullInt(n.SpeedLimit),
		nullString(n.AttachSide),
		nullString(n.Transition),
		nullString(n.Above),
		nullString(n.Pickable),
		nullString(n.Forks),
		nullString(n.Active),
	}
}

func detectorRow(versionID int, nodeName string, seq int, d models.Detector) []interface{} {
	return []interface{}{
		versionID,
		nodeName,
		seq,
		d.Name,
		nullString(d.Label),
		nullString(d.Category),
		nullString(d.Lane),
		nullString(d.Field),
		nullString(d.Abandoned),
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type batchInserter struct {
	tableName  string
	columns    []string
	values     []interface{}
	valueCount int
	batchSize  int
	tx         execer
}

// maxBindParams is the Postgres limit on parameters in one statement.
const maxBindParams = 65535

func (i *Importer) newBatchInserter(tableName string) *batchInserter {
	columns := getColumnsForTable(tableName)
	size := i.batchSize
	if len(columns) > 0 && size > maxBindParams/len(columns) {
		size = maxBindParams / len(columns)
	}
	return &batchInserter{
		tableName: tableName,
		columns:   columns,
		values:    make([]interface{}, 0, size*len(columns)),
		batchSize: size,
	}
}

func (b *batchInserter) Add(ctx context.Context, values ...interface{}) error {
	if len(values) != len(b.columns) {
		return fmt.Errorf("%s row has %d values, want %d", b.tableName, len(values), len(b.columns))
	}

	b.values = append(b.values, values...)
	b.valueCount++

	if b.valueCount >= b.batchSize {
		return b.Flush(ctx)
	}

	return nil
}

func (b *batchInserter) Flush(ctx context.Context) error {
	if b.valueCount == 0 {
		return nil
	}

	query := b.buildInsertQuery()
	if _, err := b.tx.ExecContext(ctx, query, b.values...); err != nil {
		return fmt.Errorf("executing batch insert into %s: %w", b.tableName, err)
	}

	// Reset
	b.values = b.values[:0]
	b.valueCount = 0

	return nil
}

func (b *batchInserter) buildInsertQuery() string {
	var sb strings.Builder
	fieldCount := len(b.columns)

	fmt.Fprintf(&sb, "INSERT INTO metro.%s (%s) VALUES ",
		b.tableName,
		strings.Join(b.columns, ", "))

	for i := 0; i < b.valueCount; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < fieldCount; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*fieldCount+j+1)
		}
		sb.WriteString(")")
	}

	sb.WriteString(" ON CONFLICT DO NOTHING")

	return sb.String()
}

func getColumnsForTable(tableName string) []string {
	switch tableName {
	case "corridors":
		return []string{"version_id", "seq", "route", "dir"}
	case "r_nodes":
		return []string{"version_id", "corridor_seq", "seq", "name", "n_type", "label", "lat", "lon", "lanes", "shift", "station_id", "s_limit", "attach_side", "transition", "above", "pickable", "forks", "active"}
	case "detectors":
		return []string{"version_id", "r_node_name", "seq", "name", "label", "category", "lane", "field", "abandoned"}
	default:
		return nil
	}
}
