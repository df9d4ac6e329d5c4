package domain

// AuditRepository persists the audit trail.
type AuditRepository interface {
	RecordEvent(event Event) error
	LoadEvents() ([]Event, error)
}

// AuditLogger is what services depend on to record actions.
type AuditLogger interface {
	Log(action, actor string, metadata map[string]any) error
}

// WorkspaceRepository owns the .pulse/ directory.
type WorkspaceRepository interface {
	AuditRepository
	Initialize() error
	IsInitialized() bool
	ResolvePath(name string) (string, error)
}
