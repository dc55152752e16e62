// stores.go - Public store browsing and rating submission

package handlers // Declares the package name

import ( // Import required packages
	"net/http" // HTTP status codes

	"go-ratings-backend/apperror"   // Validation errors
	"go-ratings-backend/middleware" // Caller identity
	"go-ratings-backend/services"   // Catalog and rating operations

	"github.com/gin-gonic/gin" // Gin web framework
)

type RatingInput struct { // Struct for rating submission and update
	Value *int `json:"value"` // Rating value, 1 to 5
}

func storeFilter(c *gin.Context) services.StoreFilter {
	return services.StoreFilter{
		Name:    c.Query("name"),
		Email:   c.Query("email"),
		Address: c.Query("address"),
	}
}

// ListStores lists stores with averages; authenticated callers also see
// their own rating.
func (h *Handler) ListStores(c *gin.Context) {
	caller := middleware.PrincipalFrom(c).SubjectID()
	stores, err := h.Catalog.ListStores(c.Request.Context(), storeFilter(c), caller)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// GetStore returns one store.
func (h *Handler) GetStore(c *gin.Context) {
	storeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	caller := middleware.PrincipalFrom(c).SubjectID()
	store, err := h.Catalog.StoreDetail(c.Request.Context(), storeID, caller)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

func ratingValue(c *gin.Context) (int, bool) {
	var input RatingInput
	if !bindJSON(c, &input) {
		return 0, false
	}
	if input.Value == nil {
		fail(c, apperror.NewValidation("value is required"))
		return 0, false
	}
	return *input.Value, true
}

// SubmitRating records the caller's first rating of a store.
func (h *Handler) SubmitRating(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	storeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	value, ok := ratingValue(c)
	if !ok {
		return
	}
	rating, err := h.Ratings.Submit(c.Request.Context(), storeID, id.SubjectID, value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, services.NewRatingView(rating))
}

// UpdateRating changes the value of the caller's rating. The rating id alone
// identifies the rating; the store segment of the path is not consulted.
func (h *Handler) UpdateRating(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ratingID, ok := idParam(c, "ratingId")
	if !ok {
		return
	}
	value, ok := ratingValue(c)
	if !ok {
		return
	}
	rating, err := h.Ratings.Update(c.Request.Context(), ratingID, id.SubjectID, value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewRatingView(rating))
}
