package types

import "time"

type Status string

const (
	StatusPending       Status = "pending"
	StatusInvestigating Status = "investigating"
	StatusApproved      Status = "approved"
	StatusAccepted      Status = "accepted"
	StatusTraveling     Status = "traveling"
	StatusCompleted     Status = "completed"
)

type Role string

const (
	RoleReporter    Role = "reporter"
	RoleResponder   Role = "responder"
	RoleCoordinator Role = "coordinator"
)

// Principal is the authenticated caller, as resolved by the external auth
// layer. Handlers receive it from middleware; this service never verifies
// credentials itself.
type Principal struct {
	ID   string
	Name string
	Role Role
}

// Case is one reported incident tracked through its resolution lifecycle.
// Description carries the original free text plus the appended conversation
// log (see the chatlog package for the in-field format).
type Case struct {
	ID           string `firestore:"-" json:"id"`
	DisasterType string `firestore:"disasterType" json:"disasterType"`
	Description  string `firestore:"description" json:"description"`
	ContactName  string `firestore:"contactName" json:"contactName"`
	ContactPhone string `firestore:"contactPhone" json:"contactPhone"`
	Status       Status `firestore:"status" json:"status"`

	OriginLat float64 `firestore:"originLat" json:"originLat"`
	OriginLng float64 `firestore:"originLng" json:"originLng"`

	ResponderID   string  `firestore:"responderId,omitempty" json:"responderId,omitempty"`
	ResponderName string  `firestore:"responderName,omitempty" json:"responderName,omitempty"`
	ResponderLat  float64 `firestore:"responderLat,omitempty" json:"responderLat,omitempty"`
	ResponderLng  float64 `firestore:"responderLng,omitempty" json:"responderLng,omitempty"`

	UnreadForResponder int `firestore:"unreadForResponder" json:"unreadForResponder"`
	UnreadForReporter  int `firestore:"unreadForReporter" json:"unreadForReporter"`

	ReporterID string `firestore:"reporterId" json:"reporterId"`

	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	LastUpdated time.Time `firestore:"lastUpdated" json:"lastUpdated"`
	AcceptedAt  time.Time `firestore:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	CompletedAt time.Time `firestore:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Message is one parsed entry of a case conversation. It is never persisted
// on its own; the chatlog codec derives it from the description field.
type Message struct {
	Sender Role   `json:"sender"`
	Time   string `json:"time"`
	Text   string `json:"text"`
}

// SenderUnknown marks a conversation segment whose header could not be
// parsed. The decode keeps the raw text instead of failing.
const SenderUnknown Role = "unknown"
