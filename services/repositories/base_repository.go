package repositories

import (
	"gorm.io/gorm"
)

// BaseRepository carries the shared gorm handle embedded by the user and
// practice repositories.
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB exposes the underlying connection for callers that need raw queries.
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}
