package types

import "time"

// PassKind distinguishes the two payload shapes a pass blob can carry.
type PassKind string

const (
	// PassVisitor is a single-use pass bound to one visitor and one usage.
	PassVisitor PassKind = "visitor"
	// PassTemporary is a reusable access pass bound to a location, not a
	// visitor.  It carries no state transition and validates until expiry.
	PassTemporary PassKind = "temporary"
)

// Usage is the action a visitor pass authorizes.
type Usage string

const (
	UsageCheckIn  Usage = "check-in"
	UsageCheckOut Usage = "check-out"
)

// IsValid reports whether u is a known usage.
func (u Usage) IsValid() bool {
	return u == UsageCheckIn || u == UsageCheckOut
}

// ExpectedStatus is the visitor state a pass of this usage is accepted in.
func (u Usage) ExpectedStatus() Status {
	if u == UsageCheckOut {
		return StatusCheckedIn
	}
	return StatusPending
}

// NextStatus is the visitor state a successful validation of this usage
// transitions to.
func (u Usage) NextStatus() Status {
	if u == UsageCheckOut {
		return StatusCheckedOut
	}
	return StatusCheckedIn
}

// PassPayload is the plaintext content of a pass blob.  It is a tagged
// variant: Kind selects which of the two field groups is meaningful.
// The JSON field names are the wire format scanners already speak, so they
// must not change.
type PassPayload struct {
	ID        string    `json:"id"`
	Kind      PassKind  `json:"type"`
	ValidUntil time.Time `json:"validUntil"`
	Nonce     string    `json:"nonce,omitempty"`

	// Visitor pass fields (Kind == PassVisitor).
	VisitorID string `json:"visitorId,omitempty"`
	Name      string `json:"name,omitempty"`
	Usage     Usage  `json:"qrType,omitempty"`
	IssuedAt  int64  `json:"issuedAt,omitempty"` // unix ms, covered by Signature
	Signature string `json:"signature,omitempty"`

	// Temporary pass fields (Kind == PassTemporary).
	AccessType string `json:"accessType,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Expired reports whether the payload is past its validity window at now.
// The boundary is exclusive: a pass is still valid at exactly ValidUntil.
func (p PassPayload) Expired(now time.Time) bool {
	return now.After(p.ValidUntil)
}
