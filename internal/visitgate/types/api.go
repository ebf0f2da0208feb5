package types

// Wire types for the staff-facing HTTP API.

type RegisterVisitorRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Company      string `json:"company,omitempty"`
	Purpose      string `json:"purpose"`
	HostID       string `json:"host_id"`
	DepartmentID string `json:"department_id"`
}

type IssuePassRequest struct {
	VisitorID string `json:"visitor_id"`
	Usage     Usage  `json:"usage"`
}

type IssuePassResponse struct {
	OK         bool   `json:"ok"`
	VisitorID  string `json:"visitor_id"`
	Usage      Usage  `json:"usage"`
	Blob       string `json:"blob"`
	Image      []byte `json:"image,omitempty"` // rendered barcode, base64 in JSON
	ValidUntil string `json:"valid_until"`
	ServerTime string `json:"server_time"`
}

type TemporaryPassRequest struct {
	AccessType      string `json:"access_type"`
	Location        string `json:"location"`
	DurationMinutes int    `json:"duration_minutes"`
}

type TemporaryPassResponse struct {
	OK         bool   `json:"ok"`
	Blob       string `json:"blob"`
	Image      []byte `json:"image,omitempty"`
	AccessType string `json:"access_type"`
	Location   string `json:"location"`
	ValidUntil string `json:"valid_until"`
	ServerTime string `json:"server_time"`
}

type ValidateRequest struct {
	Blob string `json:"blob"`
}

// ValidationResult reports a pass decision.  For visitor passes Status is
// the post-transition state; for temporary passes AccessType/Location echo
// the pass content and no state changes.
type ValidationResult struct {
	OK         bool     `json:"ok"`
	Kind       PassKind `json:"kind"`
	Usage      Usage    `json:"usage,omitempty"`
	VisitorID  string   `json:"visitor_id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Status     Status   `json:"status,omitempty"`
	AccessType string   `json:"access_type,omitempty"`
	Location   string   `json:"location,omitempty"`
	ValidUntil string   `json:"valid_until"`
	ServerTime string   `json:"server_time"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK        bool   `json:"ok"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
