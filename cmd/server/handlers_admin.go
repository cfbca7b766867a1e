package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"greatreads/pkg/models"
	"greatreads/pkg/roles"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (s *server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]gin.H, len(users))
	for i, u := range users {
		items[i] = gin.H{
			"id":          u.ID,
			"email":       u.Email,
			"name":        u.Name,
			"role":        u.Role,
			"is_active":   u.IsActive,
			"is_verified": u.IsVerified,
			"last_login":  u.LastLogin,
			"created_at":  u.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"users": items})
}

func (s *server) updateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var user models.User
	if err := s.db.First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("Failed to load user %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if role, ok := c.GetPostForm("role"); ok {
		var existing models.Role
		if err := s.db.Where("name = ?", role).First(&existing).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}
		updates["role"] = role
	}
	if active, ok := c.GetPostForm("is_active"); ok {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active must be true or false"})
			return
		}
		updates["is_active"] = parsed
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"role":      user.Role,
		"is_active": user.IsActive,
	})
}

func (s *server) listRoles(c *gin.Context) {
	var stored []models.Role
	if err := s.db.Order("name ASC").Find(&stored).Error; err != nil {
		log.Printf("Failed to list roles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]gin.H, len(stored))
	for i, role := range stored {
		var perms roles.PermissionSet
		if err := json.Unmarshal([]byte(role.Permissions), &perms); err != nil {
			perms = roles.PermissionSet{}
		}
		items[i] = gin.H{
			"name":        role.Name,
			"description": role.Description,
			"permissions": perms,
		}
	}
	c.JSON(http.StatusOK, gin.H{"roles": items})
}

func (s *server) failedEmails(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"failed": s.mailer.Failed()})
}

func (s *server) retryFailedEmails(c *gin.Context) {
	sent, remaining := s.mailer.RetryFailed()
	c.JSON(http.StatusOK, gin.H{"sent": sent, "remaining": remaining})
}
