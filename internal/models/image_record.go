package models

// ImageRecord is a row of any collection that stores an image path.
type ImageRecord struct {
	ID   string  `db:"id"`
	Path *string `db:"path"` // nil when the column is NULL
}
