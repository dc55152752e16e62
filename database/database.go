// database.go - Handles database connection and setup

package database // Declares the package name

import ( // Import required packages
	"context" // Request-scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // DSN building

	"go-ratings-backend/models" // Persisted models

	"gorm.io/driver/sqlite" // SQLite driver for GORM
	"gorm.io/gorm"          // GORM ORM
	"gorm.io/gorm/logger"   // Silence GORM's own logger
)

// Connect opens the SQLite database at dbPath and migrates the schema.
// Foreign keys are switched on so that the users/stores/ratings references
// are enforced by the storage layer as well.
func Connect(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection keeps transactions serialized.
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the users, stores and ratings tables, including
// the unique (user_id, store_id) index on ratings.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Store{}, &models.Rating{})
}

// Tx runs fn inside one transaction; every statement commits or none does.
func Tx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// IsNotFound reports whether err is GORM's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Subjects answers token subject lookups against the users table.
type Subjects struct {
	DB *gorm.DB
}

func (s Subjects) SubjectExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func dsn(path string) string {
	params := "_foreign_keys=on&_busy_timeout=5000"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}
