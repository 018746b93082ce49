package database

import (
	"gorm.io/gorm"
)

// Paginate limits a query to one page of size rows. Pages start at 1; a
// non-positive size leaves the query unbounded.
func Paginate(page, size int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if size <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}
