// router.go - Route table for the ratings API

package handlers // Declares the package name

import ( // Import required packages
	"go-ratings-backend/auth"       // Roles
	"go-ratings-backend/middleware" // Gate, logging, rate limiting

	"github.com/gin-gonic/gin" // Gin web framework
)

// NewRouter builds the engine with every route mounted under /api.
func NewRouter(h *Handler, gate *middleware.Gate, limiter *middleware.LoginLimiter, metrics *middleware.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), metrics.Handler(), middleware.Recovery())

	r.GET("/health", h.Health)
	r.GET("/metrics", metrics.Expose())

	api := r.Group("/api")

	// Public and self-service account routes
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", limiter.Handler(), h.Login)
		authGroup.PUT("/password", gate.Required(), h.ChangePassword)
	}

	// Store browsing works anonymously; rating needs a token
	stores := api.Group("/stores")
	{
		stores.GET("", gate.Optional(), h.ListStores)
		stores.GET("/:id", gate.Optional(), h.GetStore)
		stores.POST("/:id/ratings", gate.Required(), h.SubmitRating)
		stores.PUT("/:id/ratings/:ratingId", gate.Required(), h.UpdateRating)
	}

	admin := api.Group("/admin")
	admin.Use(gate.Required(), middleware.Role(auth.RoleAdmin))
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.GET("/users/:id", h.GetUser)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.PUT("/users/:id/role", h.ChangeRole)
		admin.GET("/stores", h.AdminListStores)
		admin.POST("/stores", h.CreateStore)
		admin.DELETE("/stores/:id", h.DeleteStore)
		admin.PUT("/stores/:id/owner", h.AssignOwner)
	}

	owner := api.Group("/owner")
	owner.Use(middleware.TokenFromQuery("token"), gate.Required(), middleware.Role(auth.RoleOwner))
	{
		owner.GET("/stores", h.OwnerStores)
		owner.GET("/ratings", h.OwnerRatings)
		owner.GET("/live", h.OwnerLive)
	}

	return r
}
