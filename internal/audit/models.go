// Package audit records verification activity for dispute handling. Race
// organizers challenge rejections weeks after the fact; the audit trail is
// the only record of what the federation answered at registration time.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	RelationID string    `json:"relation_id"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"`
	StatusCode string    `json:"status_code,omitempty"`
	Hint       string    `json:"hint,omitempty"`
	CacheHit   bool      `json:"cache_hit"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Device     string    `json:"device,omitempty"`
}

type AuditAction string

const (
	ActionVerificationServed AuditAction = "verification_served"
	ActionVerificationFailed AuditAction = "verification_failed"
	ActionCachePurged        AuditAction = "cache_purged"
	ActionEligibilityChecked AuditAction = "eligibility_checked"
)

// Outcome values recorded on verification events.
const (
	OutcomeConnected = "connected"
	OutcomeDeclined  = "declined"
	OutcomeError     = "error"
)
