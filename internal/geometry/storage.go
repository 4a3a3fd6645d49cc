package geometry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"print-roll-console/pkg"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `create table if not exists file_measurements (
	checksum      text primary key,
	mime_type     text not null,
	width_meters  double precision not null,
	height_meters double precision not null,
	dpi_x         double precision,
	dpi_y         double precision,
	page_count    integer,
	measured_at   timestamptz not null default now()
)`

type DBMeasurement struct {
	Checksum     string
	MimeType     string
	WidthMeters  float64
	HeightMeters float64
	DPIX         *float64
	DPIY         *float64
	PageCount    *int
	MeasuredAt   time.Time
}

// Repo caches successful measurements by content checksum so a re-uploaded
// file is not parsed twice.
type Repo interface {
	EnsureSchema(ctx context.Context) error
	GetMeasurement(ctx context.Context, checksum string) (*DBMeasurement, error)
	SaveMeasurement(ctx context.Context, m DBMeasurement) error
}

type DefaultRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewDefaultRepo(db *pgxpool.Pool) Repo {
	return &DefaultRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (d *DefaultRepo) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.Exec(ctx, schema); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to create file_measurements table",
			Err:   err,
		}
	}
	return nil
}

func (d *DefaultRepo) GetMeasurement(ctx context.Context, checksum string) (*DBMeasurement, error) {
	query, args, err := d.sb.
		Select("checksum", "mime_type", "width_meters", "height_meters", "dpi_x", "dpi_y", "page_count", "measured_at").
		From("file_measurements").
		Where(sq.Eq{"checksum": checksum}).
		ToSql()
	if err != nil {
		return nil, &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	var m DBMeasurement
	err = d.db.QueryRow(ctx, query, args...).Scan(
		&m.Checksum, &m.MimeType, &m.WidthMeters, &m.HeightMeters, &m.DPIX, &m.DPIY, &m.PageCount, &m.MeasuredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &pkg.ErrDBProcedure{
			Cause: "failed to select measurement",
			Info:  fmt.Sprintf("checksum: %s", checksum),
			Err:   err,
		}
	}
	return &m, nil
}

func (d *DefaultRepo) SaveMeasurement(ctx context.Context, m DBMeasurement) error {
	query, args, err := d.sb.
		Insert("file_measurements").
		Columns("checksum", "mime_type", "width_meters", "height_meters", "dpi_x", "dpi_y", "page_count").
		Values(m.Checksum, m.MimeType, m.WidthMeters, m.HeightMeters, m.DPIX, m.DPIY, m.PageCount).
		Suffix(`on conflict (checksum) do update set
			mime_type = excluded.mime_type,
			width_meters = excluded.width_meters,
			height_meters = excluded.height_meters,
			dpi_x = excluded.dpi_x,
			dpi_y = excluded.dpi_y,
			page_count = excluded.page_count,
			measured_at = now()`).
		ToSql()
	if err != nil {
		return &pkg.ErrDBProcedure{Cause: "failed to build query", Err: err}
	}

	if _, err := d.db.Exec(ctx, query, args...); err != nil {
		return &pkg.ErrDBProcedure{
			Cause: "failed to upsert measurement",
			Info:  fmt.Sprintf("query: %s", query),
			Err:   err,
		}
	}
	return nil
}
