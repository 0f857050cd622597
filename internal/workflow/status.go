package workflow

// Status is a permit lifecycle state. Only the engine writes it.
type Status string

// Permit statuses. Closed, Rejected and Expired are terminal.
const (
	StatusDraft       Status = "draft"
	StatusPendingChef Status = "pending_chef_validation"
	StatusPendingHSE  Status = "pending_hse_validation"
	StatusValidated   Status = "validated"
	StatusInProgress  Status = "in_progress"
	StatusClosed      Status = "closed"
	StatusRejected    Status = "rejected"
	StatusExpired     Status = "expired"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusClosed, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingChef, StatusPendingHSE, StatusValidated,
		StatusInProgress, StatusClosed, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Role is an approver role carried by the authenticated actor.
type Role string

// Actor roles, mirroring the field organisation: prestataire submits,
// chef de projet gives first approval, HSE gives final approval.
const (
	RolePrestataire Role = "prestataire"
	RoleChefProjet  Role = "chef_projet"
	RoleHSE         Role = "hse"
	RoleAdmin       Role = "admin"
)

// Actor identifies who performs a transition. Name is recorded on the
// permit; Role is checked against the stage being approved.
type Actor struct {
	Name string
	Role Role
}

// canValidateChef reports whether the role may act as first-stage approver.
func (a Actor) canValidateChef() bool {
	return a.Role == RoleChefProjet || a.Role == RoleAdmin
}

// canValidateHSE reports whether the role may act as final approver.
func (a Actor) canValidateHSE() bool {
	return a.Role == RoleHSE || a.Role == RoleAdmin
}
