package roles

import (
	"encoding/json"
	"fmt"
	"time"

	"greatreads/pkg/models"

	"gorm.io/gorm"
)

// Permission names. Permission checks against any other string read false.
const (
	PermViewUsers      = "view_users"
	PermManageUsers    = "manage_users"
	PermViewRoles      = "view_roles"
	PermManageRoles    = "manage_roles"
	PermViewSystem     = "view_system"
	PermManageSystem   = "manage_system"
	PermViewAllBooks   = "view_all_books"
	PermManageAllBooks = "manage_all_books"
	PermManageOwnBooks = "manage_own_books"
)

// AllPermissions is the closed canonical key set.
var AllPermissions = []string{
	PermViewUsers,
	PermManageUsers,
	PermViewRoles,
	PermManageRoles,
	PermViewSystem,
	PermManageSystem,
	PermViewAllBooks,
	PermManageAllBooks,
	PermManageOwnBooks,
}

// PermissionSet maps a permission name to whether it is granted.
type PermissionSet map[string]bool

// RoleDefaults is a canonical role definition consulted by ReconcileDefaults.
type RoleDefaults struct {
	Description string
	Permissions PermissionSet
}

// DefaultRoles are the roles shipped with the application. Stored role rows
// are reset to these maps whenever they drift: permissions are configuration,
// not user data.
var DefaultRoles = map[string]RoleDefaults{
	"admin": {
		Description: "Full system access",
		Permissions: PermissionSet{
			PermViewUsers:      true,
			PermManageUsers:    true,
			PermViewRoles:      true,
			PermManageRoles:    true,
			PermViewSystem:     true,
			PermManageSystem:   true,
			PermViewAllBooks:   true,
			PermManageAllBooks: true,
			PermManageOwnBooks: true,
		},
	},
	"user": {
		Description: "Standard user access",
		Permissions: PermissionSet{
			PermViewUsers:      false,
			PermManageUsers:    false,
			PermViewRoles:      false,
			PermManageRoles:    false,
			PermViewSystem:     false,
			PermManageSystem:   false,
			PermViewAllBooks:   false,
			PermManageAllBooks: false,
			PermManageOwnBooks: true,
		},
	},
	"moderator": {
		Description: "User management access",
		Permissions: PermissionSet{
			PermViewUsers:      true,
			PermManageUsers:    true,
			PermViewRoles:      true,
			PermManageRoles:    false,
			PermViewSystem:     true,
			PermManageSystem:   false,
			PermViewAllBooks:   true,
			PermManageAllBooks: false,
			PermManageOwnBooks: true,
		},
	},
}

// ReconcileDefaults makes the stored role table match DefaultRoles: missing
// roles are created, drifted permission maps and descriptions are overwritten.
// Safe to run on every process start.
func ReconcileDefaults(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for name, def := range DefaultRoles {
			wanted, err := json.Marshal(def.Permissions)
			if err != nil {
				return fmt.Errorf("marshal permissions for role %s: %w", name, err)
			}

			var role models.Role
			err = tx.Where("name = ?", name).First(&role).Error
			if err == gorm.ErrRecordNotFound {
				role = models.Role{
					Name:        name,
					Description: def.Description,
					Permissions: string(wanted),
					CreatedAt:   time.Now().UTC(),
				}
				if err := tx.Create(&role).Error; err != nil {
					return fmt.Errorf("create role %s: %w", name, err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("load role %s: %w", name, err)
			}

			var stored PermissionSet
			drifted := json.Unmarshal([]byte(role.Permissions), &stored) != nil ||
				!equalOnCanonicalKeys(stored, def.Permissions)
			if drifted || role.Description != def.Description {
				role.Permissions = string(wanted)
				role.Description = def.Description
				if err := tx.Save(&role).Error; err != nil {
					return fmt.Errorf("reset role %s: %w", name, err)
				}
			}
		}
		return nil
	})
}

func equalOnCanonicalKeys(stored, wanted PermissionSet) bool {
	if stored == nil {
		return false
	}
	for _, key := range AllPermissions {
		if stored[key] != wanted[key] {
			return false
		}
	}
	return true
}

// HasPermission reports whether the user's role grants the permission.
// A nil user, an unresolved role, a malformed permission blob, or a missing
// key all read as a deny; lookup never fails.
func HasPermission(user *models.User, permission string) bool {
	if user == nil {
		return false
	}
	if user.RoleInfo.Name == "" {
		return false
	}
	var perms PermissionSet
	if err := json.Unmarshal([]byte(user.RoleInfo.Permissions), &perms); err != nil {
		return false
	}
	return perms[permission]
}
