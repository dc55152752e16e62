// owner.go - Store owner dashboard and live rating feed

package handlers // Declares the package name

import ( // Import required packages
	"net/http" // HTTP status codes

	"go-ratings-backend/middleware" // Caller identity

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/gorilla/websocket" // Live feed transport
	"github.com/rs/zerolog/log"    // Structured logging
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The caller is already authenticated by token, so any origin may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// OwnerStores lists the caller's stores with their averages.
func (h *Handler) OwnerStores(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	stores, err := h.Catalog.OwnedStores(c.Request.Context(), id.SubjectID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// OwnerRatings lists ratings on the caller's stores, newest first.
func (h *Handler) OwnerRatings(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ratings, err := h.Ratings.ForOwner(c.Request.Context(), id.SubjectID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}

// OwnerLive upgrades to a websocket that streams rating and store events for
// the caller's stores.
func (h *Handler) OwnerLive(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		log.Debug().Err(err).Uint("owner_id", id.SubjectID).Msg("live feed upgrade failed")
		return
	}
	h.Hub.Serve(conn, id.SubjectID) // Blocks until the client disconnects
}
