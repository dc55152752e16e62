// admin.go - Administrator dashboard, user directory and store management
// Every route here sits behind the Required gate and the admin role check.

package handlers // Declares the package name

import ( // Import required packages
	"net/http" // HTTP status codes

	"go-ratings-backend/services" // Business operations

	"github.com/gin-gonic/gin" // Gin web framework
)

type RoleInput struct { // Struct for role change input
	Role string `json:"role"` // admin, user or owner
}

type OwnerInput struct { // Struct for owner assignment input
	OwnerID *uint `json:"ownerId"` // Owner user id; null or absent clears
}

// Stats returns user, store and rating totals.
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.Catalog.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ListUsers lists users matching the name, email, address and role filters.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Accounts.ListUsers(c.Request.Context(), services.UserFilter{
		Name:    c.Query("name"),
		Email:   c.Query("email"),
		Address: c.Query("address"),
		Role:    c.Query("role"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns one user, with ownerAverageRating for owners.
func (h *Handler) GetUser(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.Accounts.UserDetail(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser creates a user of any role.
func (h *Handler) CreateUser(c *gin.Context) {
	var input services.NewUserInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.Accounts.CreateUser(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, services.NewUserView(user))
}

// DeleteUser removes a user with their ratings and releases their stores.
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Integrity.DeleteUser(c.Request.Context(), userID); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "user deleted")
}

// ChangeRole sets a user's role.
func (h *Handler) ChangeRole(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input RoleInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.Integrity.ChangeRole(c.Request.Context(), userID, input.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user role updated to " + user.Role, "user": services.NewUserView(user)})
}

// AdminListStores lists every store with owner and email details.
func (h *Handler) AdminListStores(c *gin.Context) {
	stores, err := h.Catalog.ListStores(c.Request.Context(), storeFilter(c), nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// CreateStore creates a store, optionally with an owner.
func (h *Handler) CreateStore(c *gin.Context) {
	var input services.NewStoreInput
	if !bindJSON(c, &input) {
		return
	}
	store, err := h.Catalog.CreateStore(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, store)
}

// DeleteStore removes a store and its ratings.
func (h *Handler) DeleteStore(c *gin.Context) {
	storeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Integrity.DeleteStore(c.Request.Context(), storeID); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "store deleted")
}

// AssignOwner sets or clears a store's owner.
func (h *Handler) AssignOwner(c *gin.Context) {
	storeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input OwnerInput
	if !bindJSON(c, &input) {
		return
	}
	store, err := h.Integrity.AssignOwner(c.Request.Context(), storeID, input.OwnerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      store.ID,
		"name":    store.Name,
		"email":   store.Email,
		"address": store.Address,
		"ownerId": store.OwnerID,
	})
}
