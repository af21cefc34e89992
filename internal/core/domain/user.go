package domain

import (
	"slices"
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DateLayout is the wire format of User.DOB.
const DateLayout = "2006-01-02"

// User models a registered account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	DOB          *time.Time `json:"dob,omitempty"`
	Roles        Roles      `json:"roles"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Profile holds the user attributes that carry no uniqueness constraint.
type Profile struct {
	FirstName string
	LastName  string
	DOB       *time.Time
}

// Roles is a set of role names kept sorted and free of duplicates.
// A nil or empty set means authenticated but granted nothing beyond defaults.
type Roles []string

// NewRoles normalises names into a Roles set. Blank names are dropped.
func NewRoles(names ...string) Roles {
	out := make(Roles, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Has reports whether role is a member of the set.
func (r Roles) Has(role string) bool {
	_, found := slices.BinarySearch(r, role)
	return found
}

// String renders the set as a space-delimited list, the form used in the
// token scope claim.
func (r Roles) String() string {
	return strings.Join(r, " ")
}

// ParseRoles is the inverse of Roles.String.
func ParseRoles(scope string) Roles {
	return NewRoles(strings.Fields(scope)...)
}
