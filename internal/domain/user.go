package domain

import "time"

// User represents a registered traveller.
type User struct {
	ID           int64
	Email        string
	FullName     string
	Street       string
	City         string
	State        string
	Number       string
	PostalCode   string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
