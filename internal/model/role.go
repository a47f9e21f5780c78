package model

// Role classifies a user for authorization purposes. Roles are totally
// ordered: USER < REVIEWER < ADMIN < SUPER_ADMIN.
type Role string

const (
	RoleUser       Role = "USER"
	RoleReviewer   Role = "REVIEWER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var roleLevels = map[Role]int{
	RoleUser:       0,
	RoleReviewer:   1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// IsValid reports whether the role is one of the defined roles.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the role's position in the ordering. Unknown roles rank
// below USER.
func (r Role) Level() int {
	if lvl, ok := roleLevels[r]; ok {
		return lvl
	}
	return -1
}

// AtLeast reports whether the role meets the given minimum.
func (r Role) AtLeast(min Role) bool {
	return r.Level() >= min.Level()
}
