package infra

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/lib/pq"
)

// PostgresRecordStore reads and rewrites one text column of any table keyed by "id".
// Table and column names are quoted, ids are compared as text.
type PostgresRecordStore struct {
	db DB
}

func NewPostgresRecordStore(db DB) ports.RecordStore {
	return &PostgresRecordStore{db: db}
}

func (r *PostgresRecordStore) SelectWhereNotNull(ctx context.Context, collection, field string) ([]models.ImageRecord, error) {
	col := pq.QuoteIdentifier(field)

	query, args, err := squirrel.Select("id::text AS id", col+" AS path").
		From(pq.QuoteIdentifier(collection)).
		Where(squirrel.NotEq{col: nil}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var records []models.ImageRecord
	if err := pgxscan.Select(ctx, r.db, &records, query, args...); err != nil {
		return nil, fmt.Errorf("select %s.%s: %w", collection, field, err)
	}
	return records, nil
}

func (r *PostgresRecordStore) UpdateByID(ctx context.Context, collection, id, field, value string) error {
	query, args, err := squirrel.Update(pq.QuoteIdentifier(collection)).
		Set(pq.QuoteIdentifier(field), value).
		Where(squirrel.Eq{"id::text": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s %s: %w", collection, id, ports.ErrRecordNotFound)
	}
	return nil
}
