// handlers.go - Shared handler state and response helpers

package handlers // Declares the package name

import ( // Import required packages
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing

	"go-ratings-backend/apperror" // Error kinds and HTTP statuses
	"go-ratings-backend/events"   // Live owner feed
	"go-ratings-backend/services" // Business operations

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // Database handle for health checks
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	DB        *gorm.DB
	Accounts  *services.Accounts
	Catalog   *services.Catalog
	Ratings   *services.Ratings
	Integrity *services.Integrity
	Hub       *events.Hub
}

// fail writes the {"error": message} envelope for err. Internal errors are
// attached to the context for the request logger and answered generically.
func fail(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.Internal {
		_ = c.Error(err)
	}
	c.JSON(apperror.Status(kind), gin.H{"error": apperror.Message(err)})
}

// bindJSON decodes the request body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperror.NewValidation("invalid request body"))
		return false
	}
	return true
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		fail(c, apperror.NewValidation("invalid "+name))
		return 0, false
	}
	return uint(n), true
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
