package enums

// VisitStatus is the lifecycle of a field visit.
type VisitStatus string

const (
	VisitStatusScheduled  VisitStatus = "scheduled"
	VisitStatusInProgress VisitStatus = "in_progress"
	VisitStatusCompleted  VisitStatus = "completed"
	VisitStatusCancelled  VisitStatus = "cancelled"
)

// RequirementLineStatus tracks a project material requirement line.
type RequirementLineStatus string

const (
	RequirementLineStatusOpen      RequirementLineStatus = "open"
	RequirementLineStatusCancelled RequirementLineStatus = "cancelled"
)

// ReadinessStatus is the derived packing/installation readiness of a visit.
type ReadinessStatus string

const (
	ReadinessNotReady       ReadinessStatus = "not_ready"
	ReadinessReadyToPack    ReadinessStatus = "ready_to_pack"
	ReadinessReadyToInstall ReadinessStatus = "ready_to_install"
)
