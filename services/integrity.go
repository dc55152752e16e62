package services

import (
	"context"

	"go-ratings-backend/apperror"
	"go-ratings-backend/database"
	"go-ratings-backend/events"
	"go-ratings-backend/models"

	"gorm.io/gorm"
)

// Integrity runs deletions and owner changes as single transactions so that
// users, stores and ratings never reference missing rows, and a store owner,
// when assigned, has the owner role.
type Integrity struct {
	db     *gorm.DB
	events events.Publisher
}

func NewIntegrity(db *gorm.DB, pub events.Publisher) *Integrity {
	if pub == nil {
		pub = events.Discard
	}
	return &Integrity{db: db, events: pub}
}

// DeleteUser removes the user's ratings, releases the stores they own and
// deletes the user, all or nothing.
func (s *Integrity) DeleteUser(ctx context.Context, userID uint) error {
	err := database.Tx(ctx, s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperror.NewNotFound("user")
			}
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Store{}).
			Where("owner_id = ?", userID).
			Update("owner_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return storageErr(err)
	}
	s.events.Publish(events.Event{Type: events.UserDeleted, UserID: userID})
	return nil
}

// DeleteStore removes the store's ratings and then the store.
func (s *Integrity) DeleteStore(ctx context.Context, storeID uint) error {
	var store models.Store
	err := database.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&store, storeID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperror.NewNotFound("store")
			}
			return err
		}
		if err := tx.Where("store_id = ?", storeID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Store{}, storeID).Error
	})
	if err != nil {
		return storageErr(err)
	}
	s.events.Publish(events.Event{Type: events.StoreDeleted, StoreID: storeID, OwnerID: store.OwnerID})
	return nil
}

// AssignOwner sets or, with a nil ownerID, clears the owner of a store. A
// non-nil owner must exist and have the owner role; on failure the store is
// left unchanged.
func (s *Integrity) AssignOwner(ctx context.Context, storeID uint, ownerID *uint) (*models.Store, error) {
	var store models.Store
	var previous *uint
	err := database.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&store, storeID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperror.NewNotFound("store")
			}
			return err
		}
		if ownerID != nil {
			if err := checkOwner(tx, *ownerID); err != nil {
				return err
			}
		}
		previous = store.OwnerID
		if err := tx.Model(&store).Update("owner_id", ownerID).Error; err != nil {
			return err
		}
		store.OwnerID = ownerID
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}

	e := events.Event{Type: events.StoreOwnerAssigned, StoreID: storeID, OwnerID: ownerID}
	s.events.Publish(e)
	if previous != nil && (ownerID == nil || *previous != *ownerID) {
		// the previous owner's feed learns it lost the store
		e.OwnerID = previous
		s.events.Publish(e)
	}
	return &store, nil
}

// ChangeRole sets a user's role. Stores the user already owns are left as
// they are, even when the new role is not owner.
func (s *Integrity) ChangeRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, apperror.NewValidation("role must be one of admin, user, owner")
	}
	var user models.User
	err := database.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperror.NewNotFound("user")
			}
			return err
		}
		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return &user, nil
}

// checkOwner fails with NotFound for a missing user and IntegrityViolation
// for a user without the owner role.
func checkOwner(tx *gorm.DB, ownerID uint) error {
	var owner models.User
	if err := tx.Select("id", "role").First(&owner, ownerID).Error; err != nil {
		if database.IsNotFound(err) {
			return apperror.NewNotFound("owner user")
		}
		return err
	}
	if owner.Role != models.RoleOwner {
		return apperror.E(apperror.IntegrityViolation, "user is not an owner")
	}
	return nil
}
