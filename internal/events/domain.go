package events

import "time"

// Event is happening hosted by a business.
type Event struct {
	ID           int64
	Name         string
	Description  string
	EventDate    time.Time
	BusinessID   int64
	IsReservable bool
	BusinessName string
	// OwnerID is the account owning the hosting business; event mutations
	// are authorized against it.
	OwnerID int64
}

// NewEvent carries the attributes accepted at creation.
type NewEvent struct {
	Name         string
	Description  string
	EventDate    time.Time
	BusinessID   int64
	IsReservable bool
}

// Registration is a reservation of an account for an event.
type Registration struct {
	UserID      int64
	EventID     int64
	Reserved    bool
	EventName   string
	EventDate   time.Time
	Description string
}
