package main

import (
	"log"
	"net/http"

	"greatreads/pkg/auth"
	"greatreads/pkg/books"
	"greatreads/pkg/config"
	"greatreads/pkg/database"
	"greatreads/pkg/mailer"
	"greatreads/pkg/openlibrary"
	"greatreads/pkg/roles"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type server struct {
	db      *gorm.DB
	cfg     *config.Config
	books   *books.Store
	mailer  *mailer.Mailer
	openlib *openlibrary.Client
}

func newServer(db *gorm.DB, cfg *config.Config) *server {
	return &server{
		db:    db,
		cfg:   cfg,
		books: books.NewStore(db),
		mailer: mailer.New(mailer.Config{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUsername,
			Password: cfg.EmailPassword,
			From:     cfg.EmailFrom,
			BaseURL:  cfg.AppBaseURL,
		}),
		openlib: openlibrary.NewClient(cfg.OpenLibraryURL),
	}
}

func main() {
	log.Println("Starting greatreads server...")

	cfg := config.Load()
	db := database.Init()

	if err := roles.ReconcileDefaults(db); err != nil {
		log.Fatalf("Failed to reconcile default roles: %v", err)
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	s := newServer(db, cfg)
	r := s.routes()

	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api/v1")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)
	api.GET("/auth/verify-email", s.verifyEmail)
	api.POST("/auth/password-reset/request", s.requestPasswordReset)
	api.POST("/auth/password-reset/confirm", s.confirmPasswordReset)

	authed := api.Group("", auth.RequireUser(s.db, s.cfg.JWTSecret))

	manageOwn := auth.RequirePermission(roles.PermManageOwnBooks)
	authed.GET("/books", s.listBooks)
	authed.POST("/books", manageOwn, s.createBook)
	authed.GET("/books/:bookId", s.getBook)
	authed.POST("/books/:bookId", manageOwn, s.updateBook)
	authed.POST("/books/:bookId/inline-update", manageOwn, s.inlineUpdateBook)
	authed.POST("/books/:bookId/status", manageOwn, s.updateBookStatus)
	authed.DELETE("/books/:bookId", manageOwn, s.deleteBook)

	authed.GET("/analytics/stats", s.readingStats)
	authed.GET("/analytics/monthly", s.monthlyReading)
	authed.GET("/search/books", s.searchBooks)
	authed.PATCH("/profile/theme", s.updateTheme)

	authed.GET("/users", auth.RequirePermission(roles.PermViewUsers), s.listUsers)
	authed.PATCH("/users/:userId", auth.RequirePermission(roles.PermManageUsers), s.updateUser)
	authed.GET("/roles", auth.RequirePermission(roles.PermViewRoles), s.listRoles)
	authed.GET("/system/emails/failed", auth.RequirePermission(roles.PermViewSystem), s.failedEmails)
	authed.POST("/system/emails/retry", auth.RequirePermission(roles.PermManageSystem), s.retryFailedEmails)

	r.GET("/manage/health", s.healthCheck)
	return r
}

func (s *server) healthCheck(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
