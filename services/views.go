package services

import "go-ratings-backend/models"

// UserView is the client representation of a user. It never carries the
// credential digest.
type UserView struct {
	ID                 uint     `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Address            *string  `json:"address,omitempty"`
	Role               string   `json:"role"`
	OwnerAverageRating *float64 `json:"ownerAverageRating,omitempty"`
}

func NewUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Address: u.Address, Role: u.Role}
}

// RatingRef is the caller's own rating embedded in a store listing.
type RatingRef struct {
	ID    uint `json:"id"`
	Value int  `json:"value"`
}

// StoreView is the client representation of a store.
type StoreView struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Address       *string    `json:"address"`
	Email         *string    `json:"email,omitempty"`
	AverageRating float64    `json:"averageRating"`
	OwnerID       *uint      `json:"ownerId,omitempty"`
	UserRating    *RatingRef `json:"userRating,omitempty"`
}

func newStoreView(s *models.Store, avg float64) StoreView {
	return StoreView{
		ID:            s.ID,
		Name:          s.Name,
		Address:       s.Address,
		Email:         s.Email,
		AverageRating: avg,
		OwnerID:       s.OwnerID,
	}
}

// RatingView is the client representation of a submitted or updated rating.
type RatingView struct {
	ID      uint `json:"id"`
	Value   int  `json:"value"`
	UserID  uint `json:"userId"`
	StoreID uint `json:"storeId"`
}

func NewRatingView(r *models.Rating) RatingView {
	return RatingView{ID: r.ID, Value: r.Value, UserID: r.UserID, StoreID: r.StoreID}
}
