package services

import (
	"testing"

	"go-ratings-backend/database"
	"go-ratings-backend/events"
	"go-ratings-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorder struct{ got []events.Event }

func (r *recorder) Publish(e events.Event) { r.got = append(r.got, e) }

func (r *recorder) types() []events.Type {
	out := make([]events.Type, len(r.got))
	for i, e := range r.got {
		out[i] = e.Type
	}
	return out
}

func addUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User " + email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func addStore(t *testing.T, db *gorm.DB, name string, ownerID *uint) *models.Store {
	t.Helper()
	s := &models.Store{Name: name, OwnerID: ownerID}
	require.NoError(t, db.Create(s).Error)
	return s
}

func addRating(t *testing.T, db *gorm.DB, userID, storeID uint, value int) *models.Rating {
	t.Helper()
	r := &models.Rating{UserID: userID, StoreID: storeID, Value: value}
	require.NoError(t, db.Create(r).Error)
	return r
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return database.OpenTest(t)
}

func uintPtr(v uint) *uint { return &v }

func strPtr(s string) *string { return &s }
