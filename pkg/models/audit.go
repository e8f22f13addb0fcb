package models

// AuditEntry describes an administrative or lifecycle action worth keeping a trace of.
type AuditEntry struct {
	Action   string
	EntityID string
	ActorID  uint
	Data     map[string]interface{}
}
