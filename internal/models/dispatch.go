// internal/models/dispatch.go
package models

// DispatchResult records the outcome of rendering one recipient's message
// during a bulk dispatch simulation. StatusSent means "would have been sent":
// no transport is performed.
type DispatchResult struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"` // "sent" or "failed"
	Email     string `json:"email,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	SentAt    string `json:"sentAt,omitempty"` // ISO 8601
	Error     string `json:"error,omitempty"`
}

// DispatchReport aggregates one simulated bulk dispatch. Results preserve
// input order.
type DispatchReport struct {
	BatchID  string           `json:"batchId"`
	Template string           `json:"template"`
	Sent     int              `json:"sent"`
	Failed   int              `json:"failed"`
	Results  []DispatchResult `json:"results"`
}

// Statuses
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)
