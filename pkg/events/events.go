// Package events implements the decision event publisher (spec
// component C11): a best-effort, asynchronous side channel that lets
// external consumers (audit logs, dashboards - both out of scope for
// this repository) observe arbitration outcomes without ever being
// able to slow the arbiter down.
package events

import "time"

// DecisionEvent records one arbitration outcome. ID is a per-event
// correlation id, distinct from PromotionID, so a consumer replaying
// the audit trail can deduplicate retried publishes instead of relying
// on (PromotionID, Timestamp) alone.
type DecisionEvent struct {
	ID             string
	PromotionID    string
	ProjectID      string
	Granted        bool
	WaitReason     string
	ReservedValues map[string]string
	Timestamp      time.Time
}

// Publisher accepts decision events. Implementations must not block
// the caller; dropping an event under backpressure is always
// preferable to stalling a decision.
type Publisher interface {
	Publish(DecisionEvent)
}

// Noop discards every event. It is the default publisher so the
// arbiter works with zero external dependencies unless a deployment
// opts into an audit trail.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(DecisionEvent) {}
