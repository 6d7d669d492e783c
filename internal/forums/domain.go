package forums

import "time"

const (
	// MaxNameLength bounds forum names.
	MaxNameLength = 150
	// MaxMessageLength bounds a single forum message.
	MaxMessageLength = 5000

	// CreateWindow allows one forum per identity per day (counting window).
	CreateWindow = 24 * time.Hour
	// MessageWindow allows one message per identity per five minutes across
	// all forums (last-event window).
	MessageWindow = 5 * time.Minute
)

// Forum is a discussion thread opened by a resident.
type Forum struct {
	ID          int64
	Name        string
	Description string
	OwnerID     int64
	CreatedAt   time.Time
	OwnerName   string
}

// Message is a single post inside a forum.
type Message struct {
	ID         int64
	ForumID    int64
	OwnerID    int64
	Body       string
	CreatedAt  time.Time
	AuthorName string
}
