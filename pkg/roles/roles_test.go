package roles

import (
	"encoding/json"
	"testing"

	"greatreads/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}))
	return db
}

func userWithRole(t *testing.T, name string) *models.User {
	def, ok := DefaultRoles[name]
	require.True(t, ok)
	perms, err := json.Marshal(def.Permissions)
	require.NoError(t, err)
	return &models.User{
		ID:    1,
		Email: name + "@example.com",
		Role:  name,
		RoleInfo: models.Role{
			Name:        name,
			Permissions: string(perms),
		},
	}
}

func TestReconcileDefaultsCreatesRoles(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, ReconcileDefaults(db))

	var count int64
	db.Model(&models.Role{}).Count(&count)
	assert.Equal(t, int64(3), count)

	var admin models.Role
	require.NoError(t, db.Where("name = ?", "admin").First(&admin).Error)
	var perms PermissionSet
	require.NoError(t, json.Unmarshal([]byte(admin.Permissions), &perms))
	for _, key := range AllPermissions {
		assert.True(t, perms[key], "admin should hold %s", key)
	}
}

func TestReconcileDefaultsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, ReconcileDefaults(db))

	var before models.Role
	require.NoError(t, db.Where("name = ?", "user").First(&before).Error)

	require.NoError(t, ReconcileDefaults(db))

	var after models.Role
	require.NoError(t, db.Where("name = ?", "user").First(&after).Error)
	assert.Equal(t, before.Permissions, after.Permissions)
	assert.Equal(t, before.Description, after.Description)

	var count int64
	db.Model(&models.Role{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestReconcileDefaultsResetsDrift(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, ReconcileDefaults(db))

	// Simulate an ad-hoc edit granting a normal user manage_all_books.
	var role models.Role
	require.NoError(t, db.Where("name = ?", "user").First(&role).Error)
	var perms PermissionSet
	require.NoError(t, json.Unmarshal([]byte(role.Permissions), &perms))
	perms[PermManageAllBooks] = true
	drifted, err := json.Marshal(perms)
	require.NoError(t, err)
	require.NoError(t, db.Model(&role).Update("permissions", string(drifted)).Error)

	require.NoError(t, ReconcileDefaults(db))

	require.NoError(t, db.Where("name = ?", "user").First(&role).Error)
	require.NoError(t, json.Unmarshal([]byte(role.Permissions), &perms))
	assert.False(t, perms[PermManageAllBooks])
	assert.True(t, perms[PermManageOwnBooks])
}

func TestReconcileDefaultsRepairsMalformedBlob(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, ReconcileDefaults(db))

	var role models.Role
	require.NoError(t, db.Where("name = ?", "moderator").First(&role).Error)
	require.NoError(t, db.Model(&role).Update("permissions", "{not json").Error)

	require.NoError(t, ReconcileDefaults(db))

	require.NoError(t, db.Where("name = ?", "moderator").First(&role).Error)
	var perms PermissionSet
	require.NoError(t, json.Unmarshal([]byte(role.Permissions), &perms))
	assert.True(t, perms[PermViewUsers])
	assert.False(t, perms[PermManageRoles])
}

func TestHasPermissionByRole(t *testing.T) {
	admin := userWithRole(t, "admin")
	for _, key := range AllPermissions {
		assert.True(t, HasPermission(admin, key), "admin should hold %s", key)
	}

	user := userWithRole(t, "user")
	assert.True(t, HasPermission(user, PermManageOwnBooks))
	assert.False(t, HasPermission(user, PermViewAllBooks))
	assert.False(t, HasPermission(user, PermManageAllBooks))
	assert.False(t, HasPermission(user, PermManageUsers))

	moderator := userWithRole(t, "moderator")
	assert.True(t, HasPermission(moderator, PermViewUsers))
	assert.True(t, HasPermission(moderator, PermManageUsers))
	assert.True(t, HasPermission(moderator, PermViewAllBooks))
	assert.False(t, HasPermission(moderator, PermManageAllBooks))
	assert.False(t, HasPermission(moderator, PermManageSystem))
	assert.False(t, HasPermission(moderator, PermManageRoles))
}

func TestHasPermissionDenyPaths(t *testing.T) {
	assert.False(t, HasPermission(nil, PermManageOwnBooks))

	noRole := &models.User{Email: "lost@example.com"}
	assert.False(t, HasPermission(noRole, PermManageOwnBooks))

	malformed := &models.User{
		Email:    "bad@example.com",
		RoleInfo: models.Role{Name: "user", Permissions: "{not json"},
	}
	assert.False(t, HasPermission(malformed, PermManageOwnBooks))

	emptyMap := &models.User{
		Email:    "empty@example.com",
		RoleInfo: models.Role{Name: "user", Permissions: "{}"},
	}
	assert.False(t, HasPermission(emptyMap, PermManageOwnBooks))

	admin := userWithRole(t, "admin")
	assert.False(t, HasPermission(admin, "launch_missiles"))
}
