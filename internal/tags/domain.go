package tags

import "time"

// Tag is a label attachable to informational articles. Names are unique.
type Tag struct {
	ID   int64
	Name string
}

// InformationRef is an article summary listed under a tag.
type InformationRef struct {
	ID              int64
	Title           string
	Summary         *string
	PublicationDate time.Time
}
