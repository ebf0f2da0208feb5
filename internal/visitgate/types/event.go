package types

// Event is a realtime message fanned out to connected staff clients.
// Name is the client-facing event name (e.g. "visitorCheckIn"); Payload is
// marshalled to JSON as-is.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Event names emitted by the services.  Clients key their handlers off
// these strings, so they are part of the wire contract.
const (
	EventNewVisitor      = "newVisitor"
	EventVisitorCheckIn  = "visitorCheckIn"
	EventVisitorCheckOut = "visitorCheckOut"
	EventVisitorCancel   = "visitorCancelled"
	EventPassIssued      = "passIssued"
	EventPassValidation  = "passValidation"
	EventSecurityAlert   = "securityAlert"
	EventNotification    = "newNotification"
)

// Priority ranks a durable notification for the client UI.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)
