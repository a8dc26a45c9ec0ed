package outbound

// MetricsPort records domain events for monitoring.
type MetricsPort interface {
	RecordRequestTransition(from, to string)
	RecordDecision(outcome string)
	RecordInvitationEvent(event string)
	RecordNotification(kind, outcome string)
	RecordSweep(cleaned int64, err error)
	RecordStaleConflict(operation string)
}

// NopMetrics discards every event.
type NopMetrics struct{}

func (NopMetrics) RecordRequestTransition(string, string) {}
func (NopMetrics) RecordDecision(string)                  {}
func (NopMetrics) RecordInvitationEvent(string)           {}
func (NopMetrics) RecordNotification(string, string)      {}
func (NopMetrics) RecordSweep(int64, error)               {}
func (NopMetrics) RecordStaleConflict(string)             {}
