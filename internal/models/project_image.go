package models

import "time"

type ProjectImage struct {
	ID         string    `db:"id" json:"id"`
	ProjectID  string    `db:"project_id" json:"projectId"`
	ImageURL   string    `db:"image_url" json:"imageUrl"` // object name inside the bucket
	AltText    string    `db:"alt_text" json:"altText"`
	SortOrder  int       `db:"sort_order" json:"sortOrder"`
	IsFeatured bool      `db:"is_featured" json:"isFeatured"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	PublicURL  string    `db:"-" json:"publicUrl,omitempty"`
}
