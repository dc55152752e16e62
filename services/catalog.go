package services

import (
	"context"
	"strings"

	"go-ratings-backend/apperror"
	"go-ratings-backend/database"
	"go-ratings-backend/events"
	"go-ratings-backend/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Catalog serves stores with their computed averages.
type Catalog struct {
	db      *gorm.DB
	ratings *Ratings
	events  events.Publisher
}

func NewCatalog(db *gorm.DB, ratings *Ratings, pub events.Publisher) *Catalog {
	if pub == nil {
		pub = events.Discard
	}
	return &Catalog{db: db, ratings: ratings, events: pub}
}

// NewStoreInput is what an administrator submits to create a store.
type NewStoreInput struct {
	Name    string  `json:"name" validate:"required,max=60"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address" validate:"omitempty,max=400"`
	OwnerID *uint   `json:"ownerId"`
}

// StoreFilter narrows store listings by case-insensitive substrings.
type StoreFilter struct {
	Name    string
	Email   string
	Address string
}

// Stats are the admin dashboard totals.
type Stats struct {
	Users   int64 `json:"users"`
	Stores  int64 `json:"stores"`
	Ratings int64 `json:"ratings"`
}

// CreateStore creates a store, optionally owned. The owner must exist and
// have the owner role.
func (s *Catalog) CreateStore(ctx context.Context, in NewStoreInput) (*StoreView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	store := &models.Store{Name: in.Name, Email: in.Email, Address: in.Address, OwnerID: in.OwnerID}
	err := database.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if in.OwnerID != nil {
			if err := checkOwner(tx, *in.OwnerID); err != nil {
				return err
			}
		}
		return tx.Create(store).Error
	})
	if err != nil {
		return nil, storageErr(err)
	}
	if store.OwnerID != nil {
		s.events.Publish(events.Event{Type: events.StoreOwnerAssigned, StoreID: store.ID, OwnerID: store.OwnerID})
	}
	v := newStoreView(store, 0)
	return &v, nil
}

// ListStores returns the stores matching f ordered by name, each with its
// average and, when callerID is set, the caller's own rating.
func (s *Catalog) ListStores(ctx context.Context, f StoreFilter, callerID *uint) ([]StoreView, error) {
	q := s.db.WithContext(ctx).Model(&models.Store{})
	q = whereContains(q, "name", f.Name)
	q = whereContains(q, "email", f.Email)
	q = whereContains(q, "address", f.Address)
	var stores []models.Store
	if err := q.Order("name, id").Find(&stores).Error; err != nil {
		return nil, storageErr(err)
	}
	return s.views(ctx, stores, callerID)
}

// StoreDetail returns one store with its average and the caller's rating.
func (s *Catalog) StoreDetail(ctx context.Context, storeID uint, callerID *uint) (*StoreView, error) {
	var store models.Store
	if err := s.db.WithContext(ctx).First(&store, storeID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NewNotFound("store")
		}
		return nil, storageErr(err)
	}
	avg, err := s.ratings.Average(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	mine, err := s.ratings.CallerRating(ctx, store.ID, callerID)
	if err != nil {
		return nil, err
	}
	v := newStoreView(&store, avg)
	if mine != nil {
		v.UserRating = &RatingRef{ID: mine.ID, Value: mine.Value}
	}
	return &v, nil
}

// OwnedStores lists the stores owned by ownerID with their averages.
func (s *Catalog) OwnedStores(ctx context.Context, ownerID uint) ([]StoreView, error) {
	var stores []models.Store
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name, id").Find(&stores).Error; err != nil {
		return nil, storageErr(err)
	}
	return s.views(ctx, stores, nil)
}

// Stats counts users, stores and ratings.
func (s *Catalog) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	count := func(model interface{}, dst *int64) func() error {
		return func() error {
			return s.db.WithContext(gctx).Model(model).Count(dst).Error
		}
	}
	g.Go(count(&models.User{}, &st.Users))
	g.Go(count(&models.Store{}, &st.Stores))
	g.Go(count(&models.Rating{}, &st.Ratings))
	if err := g.Wait(); err != nil {
		return nil, storageErr(err)
	}
	return &st, nil
}

func (s *Catalog) views(ctx context.Context, stores []models.Store, callerID *uint) ([]StoreView, error) {
	ids := make([]uint, len(stores))
	for i, st := range stores {
		ids[i] = st.ID
	}
	avgs, err := s.ratings.Averages(ctx, ids)
	if err != nil {
		return nil, err
	}
	mine, err := s.ratings.CallerRatings(ctx, ids, callerID)
	if err != nil {
		return nil, err
	}
	out := make([]StoreView, 0, len(stores))
	for i := range stores {
		v := newStoreView(&stores[i], avgs[stores[i].ID])
		if r, ok := mine[stores[i].ID]; ok {
			v.UserRating = &RatingRef{ID: r.ID, Value: r.Value}
		}
		out = append(out, v)
	}
	return out, nil
}
