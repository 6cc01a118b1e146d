package events

import "testing"

// Noop has no observable state; this only guards against a future
// change making Publish panic on a zero DecisionEvent.
func TestNoopPublishNeverPanics(t *testing.T) {
	var n Noop
	n.Publish(DecisionEvent{})
	n.Publish(DecisionEvent{PromotionID: "b1", Granted: true})
}
