package emergencies

import "time"

// Emergency is an incident report filed by a resident. Reference is a public
// opaque code safe to hand out to dispatchers.
type Emergency struct {
	ID                int64
	Reference         string
	EmergencyType     string
	Description       string
	OwnerID           int64
	ReportDate        time.Time
	ReporterFirstname string
	ReporterLastname  string
}

// NewEmergency carries the attributes accepted at creation. Reference and
// ReportDate are assigned server side.
type NewEmergency struct {
	Reference     string
	EmergencyType string
	Description   string
	OwnerID       int64
	ReportDate    time.Time
}

// EmergencyUpdate carries the mutable attributes.
type EmergencyUpdate struct {
	EmergencyType string
	Description   string
}
