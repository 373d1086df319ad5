package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// PreviewPathPrefix is the route serving inline previews by token.
const PreviewPathPrefix = "/api/previews/"

// Session describes an export session in a transport-friendly format.
type Session struct {
	ID          string        `json:"id"`
	VariantID   string        `json:"variantId"`
	VariantName string        `json:"variantName"`
	ProcessID   string        `json:"processId,omitempty"`
	Steps       int           `json:"steps"`
	State       string        `json:"state"`
	Format      string        `json:"format,omitempty"`
	Mode        string        `json:"mode,omitempty"`
	Artifact    *ArtifactInfo `json:"artifact,omitempty"`
	PreviewURL  string        `json:"previewUrl,omitempty"`
	LastError   string        `json:"lastError,omitempty"`
	Generation  uint64        `json:"generation"`
	Report      *ExportReport `json:"report,omitempty"`
	CreatedAt   string        `json:"createdAt,omitempty"`
	UpdatedAt   string        `json:"updatedAt,omitempty"`
}

// ArtifactInfo summarizes the live artifact without its bytes.
type ArtifactInfo struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int    `json:"size"`
}

// ExportReport mirrors the record ingestion counters of the last run.
type ExportReport struct {
	Records    int      `json:"records"`
	Rejected   int      `json:"rejected"`
	Unresolved int      `json:"unresolved"`
	AppTypes   []string `json:"appTypes"`
	DurationMS int64    `json:"durationMs"`
}

// SessionListResponse wraps the open sessions.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// GenerateRequest selects the artifact format and text mode.
type GenerateRequest struct {
	Format string `json:"format"`
	Mode   string `json:"mode,omitempty"`
}

// SendRequest carries the dispatch fields; the artifact is implied by the session.
type SendRequest struct {
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// User is a directory entry returned by the user lookup.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// UserResponse wraps a user lookup result.
type UserResponse struct {
	Data User `json:"data"`
}

// HealthResponse is returned by the health probe.
type HealthResponse struct {
	Message string `json:"message"`
}

// ErrorBody carries a human-readable failure.
type ErrorBody struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// ErrorResponse is the envelope used for every error status.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
