// auth.go - Handles signup, login and password changes

package handlers // Declares the package name

import ( // Import required packages
	"net/http" // HTTP status codes

	"go-ratings-backend/middleware" // Authenticated identity
	"go-ratings-backend/services"   // Account operations

	"github.com/gin-gonic/gin" // Gin web framework
)

type LoginInput struct { // Struct for login input
	Email    string `json:"email"`    // Account email
	Password string `json:"password"` // Plaintext password
}

type PasswordInput struct { // Struct for password change input
	Password string `json:"password"` // New plaintext password
}

// Signup registers a normal user account.
func (h *Handler) Signup(c *gin.Context) {
	var input services.SignupInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.Accounts.Signup(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "account created", "user": services.NewUserView(user)})
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	res, err := h.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ChangePassword replaces the caller's own password.
func (h *Handler) ChangePassword(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c) // Set by the Required gate
	var input PasswordInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.Accounts.ChangePassword(c.Request.Context(), id.SubjectID, input.Password); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "password updated")
}
