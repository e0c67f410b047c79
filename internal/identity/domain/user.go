package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	City         string
	Phone        string
	PasswordHash string
	Points       int
	Joined       time.Time
}

// NormalizeEmail lowers and trims an email address. The normalized form is
// the uniqueness key for the user registry.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
