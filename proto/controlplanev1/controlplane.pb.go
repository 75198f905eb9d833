// Package controlplanev1 holds the wire types for the outbound
// ControlPlaneService described in controlplane.proto. Hand-maintained; see
// chatv1 for why.
package controlplanev1

// DocumentStatus is the terminal (or in-flight) processing state of a document.
type DocumentStatus int32

const (
	DocumentStatus_DOCUMENT_STATUS_UNSPECIFIED DocumentStatus = 0
	DocumentStatus_PROCESSING                  DocumentStatus = 1
	DocumentStatus_COMPLETED                   DocumentStatus = 2
	DocumentStatus_ERROR                       DocumentStatus = 3
)

func (s DocumentStatus) String() string {
	switch s {
	case DocumentStatus_PROCESSING:
		return "PROCESSING"
	case DocumentStatus_COMPLETED:
		return "COMPLETED"
	case DocumentStatus_ERROR:
		return "ERROR"
	default:
		return "DOCUMENT_STATUS_UNSPECIFIED"
	}
}

// UpdateDocumentStatusRequest reports a document's processing state.
type UpdateDocumentStatusRequest struct {
	DocumentId   string         `json:"document_id"`
	Status       DocumentStatus `json:"status"`
	ChunksCount  int32          `json:"chunks_count"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// UpdateDocumentStatusResponse is the control plane's reply.
type UpdateDocumentStatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
