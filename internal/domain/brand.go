package domain

import "time"

// Brand: производитель, по имени которого фильтруется каталог.
type Brand struct {
	ID          int64
	Name        string
	Logo        string
	Description string
	Website     string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
