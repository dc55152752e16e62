package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go-ratings-backend/apperror"
	"go-ratings-backend/database"
	"go-ratings-backend/events"
	"go-ratings-backend/models"

	"gorm.io/gorm"
)

// Ratings enforces one rating per user and store, validates rating values
// and computes store averages from the persisted ratings on every read.
type Ratings struct {
	db     *gorm.DB
	events events.Publisher
}

func NewRatings(db *gorm.DB, pub events.Publisher) *Ratings {
	if pub == nil {
		pub = events.Discard
	}
	return &Ratings{db: db, events: pub}
}

// ValidateRatingValue rejects values outside [1,5].
func ValidateRatingValue(v int) error {
	if v < models.MinRating || v > models.MaxRating {
		return apperror.NewValidation("rating value must be an integer between 1 and 5")
	}
	return nil
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Submit creates the rater's rating for a store. It never updates an
// existing rating: a second submission for the same pair is a Conflict.
func (s *Ratings) Submit(ctx context.Context, storeID, raterID uint, value int) (*models.Rating, error) {
	if err := ValidateRatingValue(value); err != nil {
		return nil, err
	}

	var store models.Store
	rating := &models.Rating{StoreID: storeID, UserID: raterID, Value: value}
	err := database.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&store, storeID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperror.NewNotFound("store")
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.Rating{}).
			Where("store_id = ? AND user_id = ?", storeID, raterID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperror.E(apperror.Conflict, "store already rated, update the existing rating instead")
		}
		// Concurrent submissions can both pass the check above; the unique
		// index on (user_id, store_id) rejects the loser.
		return tx.Create(rating).Error
	})
	if err != nil {
		if database.IsDuplicate(err) {
			return nil, apperror.E(apperror.Conflict, "store already rated, update the existing rating instead")
		}
		return nil, storageErr(err)
	}

	s.publish(ctx, events.RatingSubmitted, rating, store.OwnerID)
	return rating, nil
}

// Update overwrites the value of a rating owned by raterID.
func (s *Ratings) Update(ctx context.Context, ratingID, raterID uint, value int) (*models.Rating, error) {
	var rating models.Rating
	var ownerID *uint
	err := database.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&rating, ratingID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperror.NewNotFound("rating")
			}
			return err
		}
		if rating.UserID != raterID {
			return apperror.E(apperror.Forbidden, "not allowed to change another user's rating")
		}
		if err := ValidateRatingValue(value); err != nil {
			return err
		}
		if err := tx.Model(&rating).Update("value", value).Error; err != nil {
			return err
		}
		rating.Value = value
		var store models.Store
		if err := tx.Select("id", "owner_id").First(&store, rating.StoreID).Error; err != nil {
			return err
		}
		ownerID = store.OwnerID
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}

	s.publish(ctx, events.RatingUpdated, &rating, ownerID)
	return &rating, nil
}

// Average is the mean rating of a store rounded to two decimals, 0 when the
// store has no ratings.
func (s *Ratings) Average(ctx context.Context, storeID uint) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("AVG(value)").
		Where("store_id = ?", storeID).
		Row().Scan(&avg)
	if err != nil {
		return 0, storageErr(err)
	}
	return Round2(avg.Float64), nil
}

// Averages computes Average for many stores with one query. Stores without
// ratings map to 0.
func (s *Ratings) Averages(ctx context.Context, storeIDs []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(storeIDs))
	if len(storeIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		StoreID uint
		Avg     float64
	}
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("store_id, AVG(value) AS avg").
		Where("store_id IN ?", storeIDs).
		Group("store_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr(err)
	}
	for _, id := range storeIDs {
		out[id] = 0
	}
	for _, r := range rows {
		out[r.StoreID] = Round2(r.Avg)
	}
	return out, nil
}

// CallerRating returns the caller's rating for a store, or nil when the
// caller is anonymous or has not rated it.
func (s *Ratings) CallerRating(ctx context.Context, storeID uint, callerID *uint) (*models.Rating, error) {
	if callerID == nil {
		return nil, nil
	}
	var r models.Rating
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND user_id = ?", storeID, *callerID).
		First(&r).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &r, nil
}

// CallerRatings is the batch form of CallerRating, keyed by store id.
func (s *Ratings) CallerRatings(ctx context.Context, storeIDs []uint, callerID *uint) (map[uint]models.Rating, error) {
	out := make(map[uint]models.Rating)
	if callerID == nil || len(storeIDs) == 0 {
		return out, nil
	}
	var rows []models.Rating
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND store_id IN ?", *callerID, storeIDs).
		Find(&rows).Error
	if err != nil {
		return nil, storageErr(err)
	}
	for _, r := range rows {
		out[r.StoreID] = r
	}
	return out, nil
}

// OwnerAverage is the mean over every rating of every store owned by
// ownerID, 0 when the owner has no stores or no ratings.
func (s *Ratings) OwnerAverage(ctx context.Context, ownerID uint) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("AVG(ratings.value)").
		Joins("JOIN stores ON stores.id = ratings.store_id").
		Where("stores.owner_id = ?", ownerID).
		Row().Scan(&avg)
	if err != nil {
		return 0, storageErr(err)
	}
	return Round2(avg.Float64), nil
}

// OwnerRating is a rating on one of an owner's stores, with the rater's name.
type OwnerRating struct {
	ID        uint      `json:"id"`
	StoreID   uint      `json:"storeId"`
	StoreName string    `json:"storeName"`
	Value     int       `json:"value"`
	UserID    uint      `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

// ForOwner lists the ratings on every store owned by ownerID, newest first.
func (s *Ratings) ForOwner(ctx context.Context, ownerID uint) ([]OwnerRating, error) {
	out := []OwnerRating{}
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("ratings.id, ratings.store_id, stores.name AS store_name, ratings.value, ratings.user_id, users.name AS user_name, ratings.created_at").
		Joins("JOIN stores ON stores.id = ratings.store_id").
		Joins("JOIN users ON users.id = ratings.user_id").
		Where("stores.owner_id = ?", ownerID).
		Order("ratings.created_at DESC, ratings.id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (s *Ratings) publish(ctx context.Context, typ events.Type, r *models.Rating, ownerID *uint) {
	e := events.Event{
		Type:     typ,
		StoreID:  r.StoreID,
		UserID:   r.UserID,
		OwnerID:  ownerID,
		RatingID: r.ID,
		Value:    r.Value,
	}
	if avg, err := s.Average(ctx, r.StoreID); err == nil {
		e.Average = &avg
	}
	s.events.Publish(e)
}

// storageErr passes domain errors through and hides everything else.
func storageErr(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(err)
}
