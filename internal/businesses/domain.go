package businesses

import "time"

// Business is a local business listing owned by an account.
type Business struct {
	ID             int64
	Name           string
	Description    string
	OwnerID        int64
	CategoryID     int64
	Address        string
	PhoneNumber    *string
	Email          *string
	WebsiteURL     *string
	CreatedAt      time.Time
	OwnerFirstname string
	OwnerLastname  string
}

// Category is a business category reference row.
type Category struct {
	ID   int64
	Name string
}

// NewBusiness carries the attributes accepted at creation. SearchName holds
// the diacritic-folded name used for matching.
type NewBusiness struct {
	Name        string
	Description string
	OwnerID     int64
	CategoryID  int64
	Address     string
	PhoneNumber *string
	Email       *string
	WebsiteURL  *string
	SearchName  string
}

// BusinessUpdate carries the mutable attributes; ownership never changes.
type BusinessUpdate struct {
	Name        string
	Description string
	CategoryID  int64
	Address     string
	PhoneNumber *string
	Email       *string
	WebsiteURL  *string
	SearchName  string
}
