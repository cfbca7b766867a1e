package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BookStatus is the reading state of a book, stored by its canonical
// upper-case name.
type BookStatus string

const (
	StatusToRead    BookStatus = "TO_READ"
	StatusReading   BookStatus = "READING"
	StatusCompleted BookStatus = "COMPLETED"
	StatusOnHold    BookStatus = "ON_HOLD"
	StatusDNF       BookStatus = "DNF"
)

// AllStatuses returns the five canonical statuses in display order.
func AllStatuses() []BookStatus {
	return []BookStatus{StatusToRead, StatusReading, StatusCompleted, StatusOnHold, StatusDNF}
}

// ParseStatus resolves a status name case-insensitively. The second return
// value is false for unknown names.
func ParseStatus(s string) (BookStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TO_READ":
		return StatusToRead, true
	case "READING":
		return StatusReading, true
	case "COMPLETED":
		return StatusCompleted, true
	case "ON_HOLD":
		return StatusOnHold, true
	case "DNF":
		return StatusDNF, true
	}
	return "", false
}

// Label returns the human-readable name used by list views.
func (s BookStatus) Label() string {
	switch s {
	case StatusToRead:
		return "To Read"
	case StatusReading:
		return "Currently Reading"
	case StatusCompleted:
		return "Completed"
	case StatusOnHold:
		return "On Hold"
	case StatusDNF:
		return "Did Not Finish"
	}
	return string(s)
}

// StringList is a list of strings persisted as a JSON array in a text
// column. A nil list round-trips as an empty array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:50;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
	Permissions string `gorm:"type:text"` // JSON map of permission name to bool
	CreatedAt   time.Time
}

type User struct {
	ID                       uint   `gorm:"primaryKey"`
	Email                    string `gorm:"size:255;uniqueIndex;not null"`
	Name                     string `gorm:"size:255"`
	HashedPassword           string `gorm:"size:255;not null"`
	IsActive                 bool   `gorm:"default:true"`
	IsVerified               bool   `gorm:"default:false"`
	VerificationToken        string `gorm:"size:64;index"`
	VerificationTokenExpires *time.Time
	ResetToken               string `gorm:"size:64;index"`
	ResetTokenExpires        *time.Time
	ThemePreference          string `gorm:"size:50"`
	Role                     string `gorm:"size:20;not null;default:'user'"`
	LastLogin                *time.Time
	CreatedAt                time.Time

	RoleInfo Role `gorm:"foreignKey:Role;references:Name"`
}

type Book struct {
	ID              uint       `gorm:"primaryKey"`
	Title           string     `gorm:"size:255;not null"`
	Author          string     `gorm:"size:255;not null"`
	Status          BookStatus `gorm:"size:20;not null;default:'TO_READ'"`
	Notes           string     `gorm:"type:text"`
	Genres          StringList `gorm:"type:text"`
	PublicationDate string     `gorm:"size:50"`
	PageCount       *int
	Rating          *int // 0-3 when set
	StartDate       *time.Time
	CompletionDate  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	UserID          uint `gorm:"not null;index"`
}
