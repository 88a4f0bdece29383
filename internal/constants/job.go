package constants

// Job statuses as reported by the backend
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusClosed     = "closed"
)

// Application statuses
const (
	// ApplicationStatusPending indicates the foreman has not yet reviewed the application
	ApplicationStatusPending = "pending"
	// ApplicationStatusAccepted indicates the fundi was picked for the job
	ApplicationStatusAccepted = "accepted"
	// ApplicationStatusRejected indicates the application was declined
	ApplicationStatusRejected = "rejected"
)

// User roles
const (
	RoleFundi   = "fundi"
	RoleForeman = "foreman"
)
