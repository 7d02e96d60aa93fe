package domain

import (
	"time"
)

// AuthorityType is the bucket a report category is routed to
// (e.g. "Department for Infrastructure", "Council").
type AuthorityType string

// Authority is a public body responsible for a service area.
type Authority struct {
	ID           string        `json:"id"`
	Name         string        `json:"authority_name"`
	Type         AuthorityType `json:"authority_type"`
	Area         ServiceArea   `json:"area"`
	ContactEmail string        `json:"email_address,omitempty"`
}

// ImageMetadata describes the stored photo attached to a report.
type ImageMetadata struct {
	URL         string    `json:"url" bson:"url"`
	Name        string    `json:"image_name" bson:"image_name"`
	Width       int       `json:"width" bson:"width"`
	Height      int       `json:"height" bson:"height"`
	FileSize    int64     `json:"file_size" bson:"file_size"`
	Geolocation *GeoPoint `json:"geolocation,omitempty" bson:"geolocation,omitempty"`
}

// Report is a civic-issue report submitted by a user.
type Report struct {
	ID            string        `json:"id"`
	UserID        int64         `json:"user_id"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Location      GeoPoint      `json:"location"`
	Geolocation   GeoFeature    `json:"geolocation"`
	Image         ImageMetadata `json:"image"`
	AuthorityName *string       `json:"authority"`
	Resolved      bool          `json:"resolved"`
	UpvoteCount   int64         `json:"upvote_count"`
	CreatedAt     int64         `json:"created_at"`
}

// Upvote records that a user upvoted a report. (UserID, ReportID) is unique.
type Upvote struct {
	UserID    int64     `json:"user_id"`
	ReportID  string    `json:"report_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportEventType names a lifecycle transition of a report.
type ReportEventType string

const (
	ReportCreated  ReportEventType = "created"
	ReportResolved ReportEventType = "resolved"
	ReportUpvoted  ReportEventType = "upvoted"
	ReportDeleted  ReportEventType = "deleted"
)

// ReportEvent is published whenever a report changes.
type ReportEvent struct {
	Type          ReportEventType `json:"type"`
	ReportID      string          `json:"report_id"`
	UserID        int64           `json:"user_id,omitempty"`
	Category      string          `json:"category,omitempty"`
	AuthorityName *string         `json:"authority,omitempty"`
	Location      *GeoPoint       `json:"location,omitempty"`
	UpvoteCount   int64           `json:"upvote_count,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// AuthorityNotification asks for an authority to be told about a new report.
type AuthorityNotification struct {
	ReportID      string `json:"report_id"`
	AuthorityName string `json:"authority_name"`
	ContactEmail  string `json:"email_address"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
}

// ImageUpload is a photo as received from the client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProcessedImage is an upload after format normalisation and metadata
// extraction, ready to be written to the blob store under Name.
type ProcessedImage struct {
	Name        string
	ContentType string
	Data        []byte
	Width       int
	Height      int
	Geolocation *GeoPoint
}
