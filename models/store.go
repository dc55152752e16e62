package models

import "time"

// Store is a rated shop. OwnerID is a weak reference: deleting the owner
// nulls it, it never removes the store.
type Store struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:255;not null"`
	Email     *string `gorm:"size:255"`
	Address   *string `gorm:"type:text"`
	OwnerID   *uint   `gorm:"index"`
	Owner     *User   `gorm:"foreignKey:OwnerID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
