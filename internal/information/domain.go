package information

import (
	"time"

	"github.com/citylink/citylink/internal/tags"
)

// Information is a municipal article published by administrators.
type Information struct {
	ID              int64
	Title           string
	Content         string
	Summary         *string
	PublicationDate time.Time
	Tags            []tags.Tag
}

// NewInformation carries the attributes accepted at creation.
type NewInformation struct {
	Title   string
	Content string
	Summary *string
}
