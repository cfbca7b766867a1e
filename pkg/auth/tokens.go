package auth

import (
	"time"

	"greatreads/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// VerificationTokenTTL is how long an email verification link stays valid.
	VerificationTokenTTL = 24 * time.Hour
	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = time.Hour
)

// CreateVerificationToken stores a fresh one-time email verification token
// on the user and returns it. A previous unconsumed token is replaced.
func CreateVerificationToken(db *gorm.DB, userID uint) (string, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return "", err
	}
	token := uuid.New().String()
	expires := time.Now().UTC().Add(VerificationTokenTTL)
	err := db.Model(&user).Updates(map[string]interface{}{
		"verification_token":         token,
		"verification_token_expires": expires,
	}).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// VerifyEmail consumes a verification token. The token is cleared on
// success and can never be replayed; expired tokens do not match.
func VerifyEmail(db *gorm.DB, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	var user models.User
	err := db.Where("verification_token = ? AND verification_token_expires > ?",
		token, time.Now().UTC()).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = db.Model(&user).Updates(map[string]interface{}{
		"is_verified":                true,
		"verification_token":         "",
		"verification_token_expires": nil,
	}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreatePasswordResetToken stores a fresh one-time reset token on the user
// identified by email and returns it. Returns an empty token (no error) when
// the email is unknown so callers cannot probe for accounts.
func CreatePasswordResetToken(db *gorm.DB, email string) (string, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token := uuid.New().String()
	expires := time.Now().UTC().Add(ResetTokenTTL)
	err = db.Model(&user).Updates(map[string]interface{}{
		"reset_token":         token,
		"reset_token_expires": expires,
	}).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password. The token
// is cleared on success; expired tokens do not match.
func ResetPassword(db *gorm.DB, token, newPassword string) (bool, error) {
	if token == "" {
		return false, nil
	}
	var user models.User
	err := db.Where("reset_token = ? AND reset_token_expires > ?",
		token, time.Now().UTC()).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	err = db.Model(&user).Updates(map[string]interface{}{
		"hashed_password":     hash,
		"reset_token":         "",
		"reset_token_expires": nil,
	}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
