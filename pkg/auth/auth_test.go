package auth

import (
	"testing"
	"time"

	"greatreads/pkg/models"
	"greatreads/pkg/roles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}, &models.Book{}))
	require.NoError(t, roles.ReconcileDefaults(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, password, role string, active bool) *models.User {
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := models.User{
		Email:          email,
		HashedPassword: hash,
		IsActive:       active,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "reader@example.com", "password123", "user", true)

	user, err := Authenticate(db, "reader@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, "user", user.RoleInfo.Name)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "reader@example.com", "password123", "user", true)
	createUser(t, db, "frozen@example.com", "password123", "user", false)

	_, err := Authenticate(db, "nobody@example.com", "password123")
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = Authenticate(db, "reader@example.com", "wrong-password")
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = Authenticate(db, "frozen@example.com", "password123")
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestIssueAndResolveToken(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "reader@example.com", "password123", "user", true)

	token, err := IssueToken("reader@example.com", testSecret, DefaultTokenTTL)
	require.NoError(t, err)

	user := ResolveToken(db, token, testSecret)
	require.NotNil(t, user)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, "user", user.RoleInfo.Name)
}

func TestResolveTokenRejectsBadTokens(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "reader@example.com", "password123", "user", true)

	assert.Nil(t, ResolveToken(db, "not-a-token", testSecret))

	token, err := IssueToken("reader@example.com", "other-secret", DefaultTokenTTL)
	require.NoError(t, err)
	assert.Nil(t, ResolveToken(db, token, testSecret))

	expired, err := IssueToken("reader@example.com", testSecret, -time.Minute)
	require.NoError(t, err)
	assert.Nil(t, ResolveToken(db, expired, testSecret))
}

func TestResolveTokenForDeletedUser(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "gone@example.com", "password123", "user", true)

	token, err := IssueToken(user.Email, testSecret, DefaultTokenTTL)
	require.NoError(t, err)
	require.NoError(t, db.Delete(user).Error)

	assert.Nil(t, ResolveToken(db, token, testSecret))
}

func TestVerificationTokenFlow(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "new@example.com", "password123", "user", true)

	token, err := CreateVerificationToken(db, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ok, err := VerifyEmail(db, token)
	require.NoError(t, err)
	assert.True(t, ok)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.IsVerified)
	assert.Empty(t, reloaded.VerificationToken)
	assert.Nil(t, reloaded.VerificationTokenExpires)

	// Consumed tokens never work twice.
	ok, err = VerifyEmail(db, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerificationTokenExpiry(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "slow@example.com", "password123", "user", true)

	token, err := CreateVerificationToken(db, user.ID)
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("verification_token_expires", past).Error)

	ok, err := VerifyEmail(db, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordResetFlow(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "forgetful@example.com", "oldpassword", "user", true)

	token, err := CreatePasswordResetToken(db, "forgetful@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ok, err := ResetPassword(db, token, "newpassword99")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Authenticate(db, "forgetful@example.com", "oldpassword")
	assert.Equal(t, ErrInvalidCredentials, err)
	user, err := Authenticate(db, "forgetful@example.com", "newpassword99")
	require.NoError(t, err)
	assert.Empty(t, user.ResetToken)

	// One-time use.
	ok, err = ResetPassword(db, token, "anotherpassword")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	db := setupTestDB(t)
	token, err := CreatePasswordResetToken(db, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestEnsureAdminExists(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, EnsureAdminExists(db, "admin@example.com", "admin123"))
	var admin models.User
	require.NoError(t, db.Where("role = ?", "admin").First(&admin).Error)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.True(t, admin.IsActive)

	// A second call must not create another admin.
	require.NoError(t, EnsureAdminExists(db, "other@example.com", "admin123"))
	var count int64
	db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	assert.Equal(t, int64(1), count)
}
