package infra

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPostgresRecordStore_SelectWhereNotNull(t *testing.T) {
	t.Run("Should return records with a path", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		store := NewPostgresRecordStore(mockPool)

		rows := mockPool.NewRows([]string{"id", "path"}).
			AddRow("1", strPtr("/images/[prj1]a.png")).
			AddRow("2", strPtr("prj2-b.png"))
		mockPool.ExpectQuery(regexp.QuoteMeta(
			`SELECT id::text AS id, "image_url" AS path FROM "project_images" WHERE "image_url" IS NOT NULL ORDER BY id`,
		)).WillReturnRows(rows)

		records, err := store.SelectWhereNotNull(context.Background(), "project_images", "image_url")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "1", records[0].ID)
		require.NotNil(t, records[0].Path)
		assert.Equal(t, "/images/[prj1]a.png", *records[0].Path)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should quote hostile identifiers", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		store := NewPostgresRecordStore(mockPool)

		mockPool.ExpectQuery(regexp.QuoteMeta(`FROM "projects""; DROP TABLE x; --"`)).
			WillReturnRows(mockPool.NewRows([]string{"id", "path"}))

		records, err := store.SelectWhereNotNull(context.Background(), `projects"; DROP TABLE x; --`, "featured_image_url")
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should wrap query errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		store := NewPostgresRecordStore(mockPool)

		cause := errors.New("relation does not exist")
		mockPool.ExpectQuery("SELECT (.+) FROM \"nope\"").WillReturnError(cause)

		_, err = store.SelectWhereNotNull(context.Background(), "nope", "image_url")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresRecordStore_UpdateByID(t *testing.T) {
	updateSQL := regexp.QuoteMeta(`UPDATE "project_images" SET "image_url" = $1 WHERE id::text = $2`)

	t.Run("Should update one record", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		store := NewPostgresRecordStore(mockPool)

		mockPool.ExpectExec(updateSQL).
			WithArgs("prj1-a.png", "1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = store.UpdateByID(context.Background(), "project_images", "1", "image_url", "prj1-a.png")
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should report missing record distinctly", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		store := NewPostgresRecordStore(mockPool)

		mockPool.ExpectExec(updateSQL).
			WithArgs("prj1-a.png", "404").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = store.UpdateByID(context.Background(), "project_images", "404", "image_url", "prj1-a.png")
		assert.ErrorIs(t, err, ports.ErrRecordNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should wrap exec errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		store := NewPostgresRecordStore(mockPool)

		cause := errors.New("conn closed")
		mockPool.ExpectExec(updateSQL).
			WithArgs("prj1-a.png", "1").
			WillReturnError(cause)

		err = store.UpdateByID(context.Background(), "project_images", "1", "image_url", "prj1-a.png")
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ports.ErrRecordNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
