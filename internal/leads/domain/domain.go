// Package domain holds the lead vocabulary shared by repositories, services
// and transport: categories, statuses, roles and activity types.
package domain

// Category classifies a lead into one of the two caller pools.
type Category string

const (
	CategoryFranchise Category = "FRANCHISE"
	CategoryPackage   Category = "PACKAGE"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryFranchise || c == CategoryPackage
}

// CallerRole returns the caller role that serves this category.
// Unknown categories fall back to the franchise pool, matching the
// historical intake behavior.
func (c Category) CallerRole() string {
	if c == CategoryPackage {
		return RolePackageCaller
	}
	return RoleFranchiseCaller
}

// Status is the lead lifecycle status.
type Status string

const (
	StatusNew           Status = "NEW"
	StatusContacted     Status = "CONTACTED"
	StatusInterested    Status = "INTERESTED"
	StatusNotInterested Status = "NOT_INTERESTED"
	StatusFollowUp      Status = "FOLLOW_UP"
	StatusConverted     Status = "CONVERTED"
	StatusLost          Status = "LOST"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusInterested, StatusNotInterested,
		StatusFollowUp, StatusConverted, StatusLost:
		return true
	}
	return false
}

// User roles. The user directory is owned by the surrounding system; these
// constants name the roles this core cares about.
const (
	RoleSuperAdmin      = "SUPER_ADMIN"
	RoleTeamLeader      = "TEAM_LEADER"
	RoleLeadDistributer = "LEAD_DISTRIBUTER"
	RoleFranchiseCaller = "FRANCHISE_CALLER"
	RolePackageCaller   = "PACKAGE_CALLER"
)

// Activity types recorded on the lead timeline.
const (
	ActivityCall         = "CALL"
	ActivityEmail        = "EMAIL"
	ActivityMeeting      = "MEETING"
	ActivityNote         = "NOTE"
	ActivityStatusChange = "STATUS_CHANGE"
	ActivityConversion   = "CONVERSION"
	ActivityTransfer     = "TRANSFER"
)

// ValidActivityType reports whether t is a recordable activity type.
func ValidActivityType(t string) bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote,
		ActivityStatusChange, ActivityConversion, ActivityTransfer:
		return true
	}
	return false
}

// QuarantineScope describes which quarantined leads a role may see.
type QuarantineScope int

const (
	// ScopeNone hides all quarantined leads.
	ScopeNone QuarantineScope = iota
	// ScopeOwn limits visibility to leads the user pulled themselves.
	ScopeOwn
	// ScopeAll grants unrestricted visibility.
	ScopeAll
)

// QuarantineVisibility returns the quarantine scope for a role:
// super admins see everything, team leaders and lead distributers see their
// own pulls, everyone else sees nothing.
func QuarantineVisibility(role string) QuarantineScope {
	switch role {
	case RoleSuperAdmin:
		return ScopeAll
	case RoleTeamLeader, RoleLeadDistributer:
		return ScopeOwn
	default:
		return ScopeNone
	}
}

// CanManagePulls reports whether a role may pull, transfer or export leads.
func CanManagePulls(role string) bool {
	return QuarantineVisibility(role) != ScopeNone
}

// CanToggleCallerPresence reports whether a role may change caller presence.
func CanToggleCallerPresence(role string) bool {
	return role == RoleSuperAdmin || role == RoleTeamLeader
}
