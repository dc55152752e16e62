package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one user's score for one store. The composite unique index backs
// the one-rating-per-user-per-store rule at the storage level.
type Rating struct {
	ID        uint   `gorm:"primaryKey"`
	Value     int    `gorm:"not null;check:value >= 1 AND value <= 5"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_ratings_user_store"`
	StoreID   uint   `gorm:"not null;uniqueIndex:idx_ratings_user_store;index"`
	User      *User  `gorm:"foreignKey:UserID"`
	Store     *Store `gorm:"foreignKey:StoreID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
