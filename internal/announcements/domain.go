package announcements

import "time"

// Announcement is a public notice posted by a resident.
type Announcement struct {
	ID              int64
	Title           string
	Content         string
	PublicationDate time.Time
	OwnerID         int64
	AuthorFirstname string
	AuthorLastname  string
}

// NewAnnouncement carries the attributes accepted at creation.
type NewAnnouncement struct {
	Title   string
	Content string
	OwnerID int64
}

// AnnouncementUpdate carries the mutable attributes.
type AnnouncementUpdate struct {
	Title   string
	Content string
}
