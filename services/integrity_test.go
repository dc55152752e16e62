package services

import (
	"context"
	"testing"

	"go-ratings-backend/apperror"
	"go-ratings-backend/events"
	"go-ratings-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteUserCascades(t *testing.T) {
	db := newTestDB(t)
	rec := &recorder{}
	svc := NewIntegrity(db, rec)
	ratings := NewRatings(db, nil)
	ctx := context.Background()

	owner := addUser(t, db, "owner@example.com", models.RoleOwner)
	rater := addUser(t, db, "rater@example.com", models.RoleUser)
	s1 := addStore(t, db, "One", &owner.ID)
	s2 := addStore(t, db, "Two", nil)
	addRating(t, db, owner.ID, s2.ID, 5)
	addRating(t, db, rater.ID, s1.ID, 2)
	addRating(t, db, rater.ID, s2.ID, 1)

	require.NoError(t, svc.DeleteUser(ctx, owner.ID))

	var n int64
	db.Model(&models.User{}).Where("id = ?", owner.ID).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.Rating{}).Where("user_id = ?", owner.ID).Count(&n)
	assert.Zero(t, n)

	var store models.Store
	require.NoError(t, db.First(&store, s1.ID).Error)
	assert.Nil(t, store.OwnerID)

	// the remaining ratings still count
	avg, err := ratings.Average(ctx, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, avg)
	avg, err = ratings.Average(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, avg)

	assert.Equal(t, []events.Type{events.UserDeleted}, rec.types())

	err = svc.DeleteUser(ctx, owner.ID)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestDeleteStoreCascades(t *testing.T) {
	db := newTestDB(t)
	rec := &recorder{}
	svc := NewIntegrity(db, rec)
	ctx := context.Background()

	owner := addUser(t, db, "owner@example.com", models.RoleOwner)
	u := addUser(t, db, "u@example.com", models.RoleUser)
	s := addStore(t, db, "Doomed", &owner.ID)
	keep := addStore(t, db, "Kept", nil)
	addRating(t, db, u.ID, s.ID, 4)
	addRating(t, db, u.ID, keep.ID, 3)

	require.NoError(t, svc.DeleteStore(ctx, s.ID))

	var n int64
	db.Model(&models.Rating{}).Where("store_id = ?", s.ID).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.Rating{}).Count(&n)
	assert.Equal(t, int64(1), n)
	db.Model(&models.User{}).Count(&n)
	assert.Equal(t, int64(2), n)

	require.Len(t, rec.got, 1)
	assert.Equal(t, events.StoreDeleted, rec.got[0].Type)
	require.NotNil(t, rec.got[0].OwnerID)
	assert.Equal(t, owner.ID, *rec.got[0].OwnerID)

	err := svc.DeleteStore(ctx, s.ID)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestAssignOwner(t *testing.T) {
	db := newTestDB(t)
	rec := &recorder{}
	svc := NewIntegrity(db, rec)
	ctx := context.Background()

	owner := addUser(t, db, "owner@example.com", models.RoleOwner)
	second := addUser(t, db, "second@example.com", models.RoleOwner)
	plain := addUser(t, db, "plain@example.com", models.RoleUser)
	s := addStore(t, db, "Corner Shop", nil)

	got, err := svc.AssignOwner(ctx, s.ID, &owner.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner.ID, *got.OwnerID)

	_, err = svc.AssignOwner(ctx, s.ID, &plain.ID)
	assert.True(t, apperror.Is(err, apperror.IntegrityViolation))

	_, err = svc.AssignOwner(ctx, s.ID, uintPtr(9999))
	assert.True(t, apperror.Is(err, apperror.NotFound))

	_, err = svc.AssignOwner(ctx, 9999, &owner.ID)
	assert.True(t, apperror.Is(err, apperror.NotFound))

	var stored models.Store
	require.NoError(t, db.First(&stored, s.ID).Error)
	require.NotNil(t, stored.OwnerID)
	assert.Equal(t, owner.ID, *stored.OwnerID)

	// moving the store notifies both the new and the previous owner
	rec.got = nil
	_, err = svc.AssignOwner(ctx, s.ID, &second.ID)
	require.NoError(t, err)
	require.Len(t, rec.got, 2)
	assert.Equal(t, second.ID, *rec.got[0].OwnerID)
	assert.Equal(t, owner.ID, *rec.got[1].OwnerID)

	got, err = svc.AssignOwner(ctx, s.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)
	require.NoError(t, db.First(&stored, s.ID).Error)
	assert.Nil(t, stored.OwnerID)
}

func TestChangeRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntegrity(db, nil)
	ctx := context.Background()

	owner := addUser(t, db, "owner@example.com", models.RoleOwner)
	s := addStore(t, db, "Corner Shop", &owner.ID)

	_, err := svc.ChangeRole(ctx, owner.ID, "superuser")
	assert.True(t, apperror.Is(err, apperror.Validation))

	_, err = svc.ChangeRole(ctx, 9999, models.RoleUser)
	assert.True(t, apperror.Is(err, apperror.NotFound))

	u, err := svc.ChangeRole(ctx, owner.ID, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	// existing ownership is kept
	var stored models.Store
	require.NoError(t, db.First(&stored, s.ID).Error)
	require.NotNil(t, stored.OwnerID)
	assert.Equal(t, owner.ID, *stored.OwnerID)
}
