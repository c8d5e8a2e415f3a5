package domain

import "time"

// Country is an entry in a user's list of countries of interest.
type Country struct {
	ID             int64
	UserID         int64
	CommonName     string
	OfficialName   string
	Region         string
	Currency       string
	Capital        string
	Continent      string
	FlagPNG        string
	GoogleMapsURL  string
	Population     int64
	OfficialNameEN string
	Visited        bool
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
