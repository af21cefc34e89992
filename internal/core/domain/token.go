package domain

import "time"

// Token is a freshly signed bearer credential.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Claims is the verified content of a token.
type Claims struct {
	ID        string
	Subject   string
	Issuer    string
	Roles     Roles
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Introspection is the non-failing view of a token's status.
type Introspection struct {
	Active bool
	Claims *Claims
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Subject     string
	Authorities []string
	TokenID     string
	ExpiresAt   time.Time
}

// HasAuthority reports whether the principal was granted authority.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// AuthorityPrefix is prepended to each role name to form an authority.
const AuthorityPrefix = "ROLE_"

// Authorities maps roles to the authority names checked by access gates.
func Authorities(roles Roles) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, AuthorityPrefix+r)
	}
	return out
}
