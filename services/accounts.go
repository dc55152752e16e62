package services

import (
	"context"
	"strings"

	"go-ratings-backend/apperror"
	"go-ratings-backend/auth"
	"go-ratings-backend/database"
	"go-ratings-backend/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TokenIssuer mints the token handed out on login.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// Accounts manages users: signup, login, password changes and the admin
// user directory.
type Accounts struct {
	db      *gorm.DB
	hasher  auth.Hasher
	tokens  TokenIssuer
	ratings *Ratings
}

func NewAccounts(db *gorm.DB, hasher auth.Hasher, tokens TokenIssuer, ratings *Ratings) *Accounts {
	return &Accounts{db: db, hasher: hasher, tokens: tokens, ratings: ratings}
}

// SignupInput is what a visitor submits to create their own account.
type SignupInput struct {
	Name     string  `json:"name" validate:"required,min=20,max=60"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,password"`
	Address  *string `json:"address" validate:"omitempty,max=400"`
}

// NewUserInput is what an administrator submits to create any kind of user.
type NewUserInput struct {
	Name     string  `json:"name" validate:"required,min=20,max=60"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,password"`
	Address  *string `json:"address" validate:"omitempty,max=400"`
	Role     string  `json:"role" validate:"role"`
}

// UserFilter narrows the admin user listing. Text fields match as
// case-insensitive substrings; Role matches exactly.
type UserFilter struct {
	Name    string
	Email   string
	Address string
	Role    string
}

// LoginResult is the token plus the public view of the logged-in user.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Signup creates a user with the user role.
func (s *Accounts) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Name, in.Email, in.Password, in.Address, models.RoleUser)
}

// CreateUser creates a user with the requested role, user when empty.
func (s *Accounts) CreateUser(ctx context.Context, in NewUserInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	return s.create(ctx, in.Name, in.Email, in.Password, in.Address, role)
}

func (s *Accounts) create(ctx context.Context, name, email, password string, address *string, role string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Address:      address,
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, apperror.E(apperror.Conflict, "email already registered")
		}
		return nil, storageErr(err)
	}
	return user, nil
}

// Login checks the credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Accounts) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	bad := apperror.E(apperror.Unauthenticated, "invalid credentials")
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if database.IsNotFound(err) {
		return nil, bad
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, bad
	}
	token, err := s.tokens.Issue(auth.Identity{SubjectID: user.ID, Role: auth.Role(user.Role)})
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &LoginResult{Token: token, User: NewUserView(&user)}, nil
}

// ChangePassword replaces the caller's password.
func (s *Accounts) ChangePassword(ctx context.Context, userID uint, password string) error {
	if !ValidPassword(password) {
		return apperror.NewValidation("password must be 8-16 characters and include an uppercase letter and a special character")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperror.NewInternal(err)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("user")
	}
	return nil
}

// ListUsers returns the users matching f ordered by id.
func (s *Accounts) ListUsers(ctx context.Context, f UserFilter) ([]UserView, error) {
	if f.Role != "" && !models.ValidRole(f.Role) {
		return nil, apperror.NewValidation("role must be one of admin, user, owner")
	}
	q := s.db.WithContext(ctx).Model(&models.User{})
	q = whereContains(q, "name", f.Name)
	q = whereContains(q, "email", f.Email)
	q = whereContains(q, "address", f.Address)
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	var users []models.User
	if err := q.Order("id").Find(&users).Error; err != nil {
		return nil, storageErr(err)
	}
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out, nil
}

// UserDetail returns one user; owners carry the average over all ratings of
// the stores they own.
func (s *Accounts) UserDetail(ctx context.Context, userID uint) (*UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NewNotFound("user")
		}
		return nil, storageErr(err)
	}
	v := NewUserView(&user)
	if user.Role == models.RoleOwner {
		avg, err := s.ratings.OwnerAverage(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		v.OwnerAverageRating = &avg
	}
	return &v, nil
}

// SeedAdmin creates the configured administrator when no admin exists yet.
// It reports whether a user was created.
func (s *Accounts) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	var admins int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return false, storageErr(err)
	}
	if admins > 0 {
		return false, nil
	}
	if _, err := s.create(ctx, name, normalizeEmail(email), password, nil, models.RoleAdmin); err != nil {
		return false, err
	}
	log.Info().Str("email", normalizeEmail(email)).Msg("seeded administrator account")
	return true, nil
}

// whereContains adds a case-insensitive substring match on column when term
// is not empty. LIKE wildcards in term match literally.
func whereContains(q *gorm.DB, column, term string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	return q.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(term))+"%")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
