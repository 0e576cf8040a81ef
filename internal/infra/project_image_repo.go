package infra

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/georgysavva/scany/v2/pgxscan"
)

var imageColumns = []string{
	"id::text AS id",
	"project_id::text AS project_id",
	"image_url",
	"COALESCE(alt_text, '') AS alt_text",
	"sort_order",
	"is_featured",
	"created_at",
}

type PostgresProjectImageRepo struct {
	db DB
}

func NewPostgresProjectImageRepo(db DB) ports.ProjectImageRepository {
	return &PostgresProjectImageRepo{db: db}
}

func (r *PostgresProjectImageRepo) ListByProject(ctx context.Context, projectID string) ([]models.ProjectImage, error) {
	query, args, err := squirrel.Select(imageColumns...).
		From("project_images").
		Where(squirrel.Eq{"project_id::text": projectID}).
		OrderBy("sort_order ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var images []models.ProjectImage
	if err := pgxscan.Select(ctx, r.db, &images, query, args...); err != nil {
		return nil, fmt.Errorf("list project images: %w", err)
	}
	return images, nil
}

// Insert counts the project's images and inserts the new one in the same
// transaction, so sort order and the featured flag follow the gallery size.
func (r *PostgresProjectImageRepo) Insert(ctx context.Context, projectID, objectName, altText string) (*models.ProjectImage, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin insert image: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM project_images WHERE project_id::text = $1`,
		projectID,
	).Scan(&count); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("count project images: %w", err)
	}

	query, args, err := squirrel.Insert("project_images").
		Columns("project_id", "image_url", "alt_text", "sort_order", "is_featured").
		Values(projectID, objectName, altText, count, count == 0).
		Suffix("RETURNING id::text, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	img := models.ProjectImage{
		ProjectID:  projectID,
		ImageURL:   objectName,
		AltText:    altText,
		SortOrder:  count,
		IsFeatured: count == 0,
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&img.ID, &img.CreatedAt); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("insert project image: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit insert image: %w", err)
	}
	return &img, nil
}

// SetFeatured clears the flag on every image of the project and sets it on
// imageID, atomically.
func (r *PostgresProjectImageRepo) SetFeatured(ctx context.Context, projectID, imageID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set featured: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE project_images SET is_featured = false WHERE project_id::text = $1`,
		projectID,
	); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("unset featured: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE project_images SET is_featured = true WHERE id::text = $1 AND project_id::text = $2`,
		imageID, projectID,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("set featured: %w", err)
	}
	if tag.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return ports.ErrImageNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit set featured: %w", err)
	}
	return nil
}

func (r *PostgresProjectImageRepo) Delete(ctx context.Context, projectID, imageID string) error {
	query, args, err := squirrel.Delete("project_images").
		Where(squirrel.Eq{"id::text": imageID, "project_id::text": projectID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete project image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrImageNotFound
	}
	return nil
}
