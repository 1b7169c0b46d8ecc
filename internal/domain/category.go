package domain

import "time"

// Category описывает категорию каталога
type Category struct {
	ID         int64
	Name       string
	Slug       string
	ParentID   *int64
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	IsArchived bool
}
