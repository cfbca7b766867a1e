package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"greatreads/pkg/auth"
	"greatreads/pkg/books"
	"greatreads/pkg/models"

	"github.com/gin-gonic/gin"
)

func bookJSON(book *models.Book) gin.H {
	return gin.H{
		"id":               book.ID,
		"title":            book.Title,
		"author":           book.Author,
		"status":           book.Status,
		"status_label":     book.Status.Label(),
		"notes":            book.Notes,
		"genres":           book.Genres,
		"publication_date": book.PublicationDate,
		"page_count":       book.PageCount,
		"rating":           book.Rating,
		"start_date":       book.StartDate,
		"completion_date":  book.CompletionDate,
		"created_at":       book.CreatedAt,
		"updated_at":       book.UpdatedAt,
		"user_id":          book.UserID,
	}
}

func bookIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("bookId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return 0, false
	}
	return uint(id), true
}

// writeBookError maps store errors onto the response taxonomy: 400 for bad
// field values, 403 for permission denials, 404 for missing books, 500 with
// a generic body for storage failures.
func writeBookError(c *gin.Context, err error) {
	var validation *books.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
	case errors.Is(err, books.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
	case errors.Is(err, books.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
	default:
		log.Printf("Book operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (s *server) listBooks(c *gin.Context) {
	user := auth.CurrentUser(c)
	filter := books.Filter{
		Status: c.Query("status"),
		Title:  c.Query("title"),
		Author: c.Query("author"),
		Notes:  c.Query("notes"),
		Rating: c.Query("rating"),
	}

	result, err := s.books.List(user, filter)
	if err != nil {
		writeBookError(c, err)
		return
	}

	if c.Query("group_by") == "status" {
		groups := make([]gin.H, 0, 5)
		for _, status := range models.AllStatuses() {
			items := make([]gin.H, 0)
			for i := range result {
				if result[i].Status == status {
					items = append(items, bookJSON(&result[i]))
				}
			}
			groups = append(groups, gin.H{
				"status": status,
				"label":  status.Label(),
				"books":  items,
			})
		}
		c.JSON(http.StatusOK, gin.H{"groups": groups})
		return
	}

	items := make([]gin.H, len(result))
	for i := range result {
		items[i] = bookJSON(&result[i])
	}
	c.JSON(http.StatusOK, gin.H{"books": items})
}

func (s *server) createBook(c *gin.Context) {
	user := auth.CurrentUser(c)
	req := books.CreateRequest{
		Title:           c.PostForm("title"),
		Author:          c.PostForm("author"),
		Status:          c.PostForm("status"),
		Notes:           c.PostForm("notes"),
		Rating:          c.PostForm("rating"),
		Genres:          c.PostForm("genres"),
		PublicationDate: c.PostForm("publication_date"),
		PageCount:       c.PostForm("page_count"),
	}

	book, err := s.books.Create(user, req)
	if err != nil {
		writeBookError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookJSON(book))
}

func (s *server) getBook(c *gin.Context) {
	id, ok := bookIDParam(c)
	if !ok {
		return
	}
	book, err := s.books.Get(auth.CurrentUser(c), id)
	if err != nil {
		writeBookError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookJSON(book))
}

// updateBook handles the full-form edit: every field is considered present,
// so empty optional fields clear their values.
func (s *server) updateBook(c *gin.Context) {
	id, ok := bookIDParam(c)
	if !ok {
		return
	}

	fields := [8]string{
		c.PostForm("title"),
		c.PostForm("author"),
		c.PostForm("status"),
		c.PostForm("notes"),
		c.PostForm("rating"),
		c.PostForm("genres"),
		c.PostForm("publication_date"),
		c.PostForm("page_count"),
	}
	req := books.UpdateRequest{
		Title:           &fields[0],
		Author:          &fields[1],
		Status:          &fields[2],
		Notes:           &fields[3],
		Rating:          &fields[4],
		Genres:          &fields[5],
		PublicationDate: &fields[6],
		PageCount:       &fields[7],
	}

	book, err := s.books.Update(auth.CurrentUser(c), id, req)
	if err != nil {
		writeBookError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookJSON(book))
}

// inlineUpdateBook applies a partial edit: only fields present in the form
// are touched, and the whole subset commits or fails together.
func (s *server) inlineUpdateBook(c *gin.Context) {
	id, ok := bookIDParam(c)
	if !ok {
		return
	}

	var req books.UpdateRequest
	if v, ok := c.GetPostForm("title"); ok {
		req.Title = &v
	}
	if v, ok := c.GetPostForm("author"); ok {
		req.Author = &v
	}
	if v, ok := c.GetPostForm("status"); ok {
		req.Status = &v
	}
	if v, ok := c.GetPostForm("notes"); ok {
		req.Notes = &v
	}
	if v, ok := c.GetPostForm("rating"); ok {
		req.Rating = &v
	}
	if v, ok := c.GetPostForm("genres"); ok {
		req.Genres = &v
	}
	if v, ok := c.GetPostForm("publication_date"); ok {
		req.PublicationDate = &v
	}
	if v, ok := c.GetPostForm("page_count"); ok {
		req.PageCount = &v
	}

	if req.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	book, err := s.books.Update(auth.CurrentUser(c), id, req)
	if err != nil {
		writeBookError(c, err)
		return
	}

	// Partial-refresh hint for the HTMX front end: the caller decides how to
	// redraw, the engine only passes the signal through.
	if c.GetHeader("HX-Request") != "" {
		c.Header("HX-Trigger", `{"closeModal": true}`)
	}
	c.JSON(http.StatusOK, bookJSON(book))
}

func (s *server) updateBookStatus(c *gin.Context) {
	id, ok := bookIDParam(c)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	book, changed, err := s.books.UpdateStatus(auth.CurrentUser(c), id, body.Status)
	if err != nil {
		writeBookError(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status unchanged"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Status updated successfully",
		"book":    bookJSON(book),
	})
}

func (s *server) deleteBook(c *gin.Context) {
	id, ok := bookIDParam(c)
	if !ok {
		return
	}
	if err := s.books.Delete(auth.CurrentUser(c), id); err != nil {
		writeBookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
