package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"greatreads/pkg/auth"
	"greatreads/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (s *server) register(c *gin.Context) {
	email := strings.TrimSpace(strings.ToLower(c.PostForm("email")))
	password := c.PostForm("password")
	name := strings.TrimSpace(c.PostForm("name"))

	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}
	if len(password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	} else if err != gorm.ErrRecordNotFound {
		log.Printf("Failed to check existing user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user := models.User{
		Email:          email,
		Name:           name,
		HashedPassword: hash,
		IsActive:       true,
		Role:           "user",
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.Create(&user).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	token, err := auth.CreateVerificationToken(s.db, user.ID)
	if err != nil {
		log.Printf("Failed to create verification token for %s: %v", user.Email, err)
	} else if err := s.mailer.SendVerificationEmail(user.Email, token); err != nil {
		log.Printf("Failed to send verification email to %s: %v", user.Email, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (s *server) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	rememberMe := c.PostForm("remember_me")

	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, err := auth.Authenticate(s.db, username, password)
	if err == auth.ErrInvalidCredentials {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	}
	if err != nil {
		log.Printf("Login failed for %s: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ttl := auth.DefaultTokenTTL
	if rememberMe == "true" || rememberMe == "on" {
		ttl = auth.RememberMeTTL
	}
	token, err := auth.IssueToken(user.Email, s.cfg.JWTSecret, ttl)
	if err != nil {
		log.Printf("Failed to issue token for %s: %v", user.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	now := time.Now().UTC()
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		log.Printf("Failed to record last login for %s: %v", user.Email, err)
	}

	c.SetCookie("access_token", token, int(ttl.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *server) verifyEmail(c *gin.Context) {
	token := c.Query("token")
	ok, err := auth.VerifyEmail(s.db, token)
	if err != nil {
		log.Printf("Email verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired verification token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (s *server) requestPasswordReset(c *gin.Context) {
	email := strings.TrimSpace(strings.ToLower(c.PostForm("email")))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	token, err := auth.CreatePasswordResetToken(s.db, email)
	if err != nil {
		log.Printf("Failed to create reset token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if token != "" {
		if err := s.mailer.SendPasswordResetEmail(email, token); err != nil {
			log.Printf("Failed to send reset email to %s: %v", email, err)
		}
	}

	// The response never reveals whether the account exists.
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent"})
}

func (s *server) confirmPasswordReset(c *gin.Context) {
	token := c.PostForm("token")
	newPassword := c.PostForm("new_password")

	if len(newPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	ok, err := auth.ResetPassword(s.db, token, newPassword)
	if err != nil {
		log.Printf("Password reset failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (s *server) updateTheme(c *gin.Context) {
	user := auth.CurrentUser(c)
	theme := strings.TrimSpace(c.PostForm("theme"))
	if theme == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Theme is required"})
		return
	}
	if err := s.db.Model(user).Update("theme_preference", theme).Error; err != nil {
		log.Printf("Failed to update theme for %s: %v", user.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}
