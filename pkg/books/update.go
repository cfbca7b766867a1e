package books

import (
	"fmt"
	"strings"
	"time"

	"greatreads/pkg/models"
	"greatreads/pkg/roles"

	"gorm.io/gorm"
)

// UpdateRequest is a set of proposed field changes. A nil field is left
// untouched; a present field is validated and applied. The whole request is
// all-or-nothing.
type UpdateRequest struct {
	Title           *string
	Author          *string
	Status          *string
	Notes           *string
	Rating          *string
	Genres          *string
	PublicationDate *string
	PageCount       *string
}

// Empty reports whether the request proposes no changes at all.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Author == nil && r.Status == nil && r.Notes == nil &&
		r.Rating == nil && r.Genres == nil && r.PublicationDate == nil && r.PageCount == nil
}

// Update applies a multi-field change to a book. The acting user must own
// the book or hold manage_all_books; otherwise nothing is applied. Any
// failing field aborts the whole update. Entering READING or COMPLETED for
// the first time stamps the corresponding sticky date. All changes plus the
// updated_at advance commit in one transaction.
func (s *Store) Update(actor *models.User, id uint, req UpdateRequest) (*models.Book, error) {
	var book models.Book
	if err := s.db.First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load book: %w", err)
	}
	if book.UserID != actor.ID && !roles.HasPermission(actor, roles.PermManageAllBooks) {
		return nil, ErrPermissionDenied
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Message: "cannot be empty"}
		}
		book.Title = title
	}
	if req.Author != nil {
		author := strings.TrimSpace(*req.Author)
		if author == "" {
			return nil, &ValidationError{Field: "author", Message: "cannot be empty"}
		}
		book.Author = author
	}

	now := time.Now().UTC()
	if req.Status != nil {
		newStatus, ok := models.ParseStatus(*req.Status)
		if !ok {
			return nil, &ValidationError{Field: "status", Message: "invalid status"}
		}
		// Equal status is a no-op for the status field; other fields in the
		// same request still apply.
		if newStatus != book.Status {
			stampStatusDates(&book, newStatus, now)
			book.Status = newStatus
		}
	}
	if req.Rating != nil {
		rating, err := parseRating(*req.Rating)
		if err != nil {
			return nil, err
		}
		book.Rating = rating
	}
	if req.Notes != nil {
		book.Notes = *req.Notes
	}
	if req.Genres != nil {
		book.Genres = parseGenres(*req.Genres)
	}
	if req.PublicationDate != nil {
		book.PublicationDate = *req.PublicationDate
	}
	if req.PageCount != nil {
		pages, err := parsePageCount(*req.PageCount)
		if err != nil {
			return nil, err
		}
		book.PageCount = pages
	}

	book.UpdatedAt = now
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Save(&book).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return &book, nil
}

// UpdateStatus applies a status-only transition. Setting the current status
// again is a no-op: nothing is written and updated_at is left alone. The
// returned bool reports whether anything changed.
func (s *Store) UpdateStatus(actor *models.User, id uint, rawStatus string) (*models.Book, bool, error) {
	var book models.Book
	if err := s.db.First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("load book: %w", err)
	}
	if book.UserID != actor.ID && !roles.HasPermission(actor, roles.PermManageAllBooks) {
		return nil, false, ErrPermissionDenied
	}

	newStatus, ok := models.ParseStatus(rawStatus)
	if !ok {
		return nil, false, &ValidationError{Field: "status", Message: "invalid status"}
	}
	if newStatus == book.Status {
		return &book, false, nil
	}

	now := time.Now().UTC()
	stampStatusDates(&book, newStatus, now)
	book.Status = newStatus
	book.UpdatedAt = now

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Save(&book).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("update book status: %w", err)
	}
	return &book, true, nil
}
