package ingest

// Task is the wire payload the admission handler publishes to the broker
// and the worker consumes (§4.6/§4.7). GroupID is nil for org-wide
// documents: the admission handler normalizes a wire group_id of 0 to
// absent before publishing.
type Task struct {
	DocumentID     string `json:"document_id"`
	FilePath       string `json:"file_path"`
	Filename       string `json:"filename"`
	OrganizationID int64  `json:"organization_id"`
	GroupID        *int64 `json:"group_id,omitempty"`
	OwnerID        int64  `json:"owner_id"`
}
