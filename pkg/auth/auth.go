package auth

import (
	"errors"
	"log"
	"time"

	"greatreads/pkg/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// DefaultTokenTTL is the lifetime of a regular session token.
	DefaultTokenTTL = 30 * time.Minute
	// RememberMeTTL is the lifetime of a "remember me" session token. Both
	// token classes carry identical privileges.
	RememberMeTTL = 30 * 24 * time.Hour
)

// ErrInvalidCredentials is returned for every login failure: unknown email,
// wrong password and inactive account are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a stored hash.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// Authenticate validates credentials and returns the user with its role
// preloaded. It never mutates state.
func Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Preload("RoleInfo").Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// IssueToken signs a session token for the given email. Issuance is pure:
// no session row is written, so tokens survive horizontal scaling.
func IssueToken(email, secret string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ResolveToken verifies a session token and re-looks-up the user by the
// encoded email. Returns nil for any invalid, expired or orphaned token.
func ResolveToken(db *gorm.DB, tokenString, secret string) *models.User {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil
	}
	var user models.User
	if err := db.Preload("RoleInfo").Where("email = ?", claims.Subject).First(&user).Error; err != nil {
		return nil
	}
	return &user
}

// EnsureAdminExists creates the default administrator account when no admin
// user is present. Intended for process start.
func EnsureAdminExists(db *gorm.DB, email, password string) error {
	var admin models.User
	err := db.Where("role = ?", "admin").First(&admin).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	admin = models.User{
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
		IsVerified:     true,
		Role:           "admin",
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Created default admin user: %s", email)
	log.Println("IMPORTANT: change the default admin password in production")
	return nil
}
