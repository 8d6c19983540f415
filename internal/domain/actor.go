package domain

const (
	RoleAdmin       = "ADMIN"
	RoleSchoolAdmin = "SCHOOL_ADMIN"
	RoleStudent     = "STUDENT"
)

// Actor is the authenticated caller
type Actor struct {
	UserID   string
	Role     string
	SchoolID string
}

// IsAdmin reports whether the actor has platform-wide rights
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManageSchool reports whether the actor may manage classes of schoolID
func (a Actor) CanManageSchool(schoolID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleSchoolAdmin && a.SchoolID != "" && a.SchoolID == schoolID
}

// CanViewReservation allows the owner, an admin or the admin of the class's school
func (a Actor) CanViewReservation(r *Reservation) bool {
	return a.UserID == r.UserID || a.CanManageSchool(r.SchoolID)
}

// ScopeReservationFilter restricts f to what the actor may list. Admins keep
// f as given; a school admin is pinned to their own school.
func (a Actor) ScopeReservationFilter(f ReservationFilter) (ReservationFilter, error) {
	if a.IsAdmin() {
		return f, nil
	}
	if a.Role != RoleSchoolAdmin || a.SchoolID == "" {
		return f, ErrForbidden
	}
	if f.SchoolID != "" && f.SchoolID != a.SchoolID {
		return f, ErrForbidden
	}
	f.SchoolID = a.SchoolID
	return f, nil
}
