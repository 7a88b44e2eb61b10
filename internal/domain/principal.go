package domain

// PrincipalKind distinguishes who is making a request.
type PrincipalKind int

const (
	PrincipalNone PrincipalKind = iota
	PrincipalUser
	PrincipalOrganization
)

func (k PrincipalKind) String() string {
	switch k {
	case PrincipalUser:
		return "user"
	case PrincipalOrganization:
		return "organization"
	default:
		return "none"
	}
}

// Principal is the resolved identity of a request. User is set for
// PrincipalUser; OrganizationID and APIKey are set for PrincipalOrganization.
type Principal struct {
	Kind           PrincipalKind
	User           *User
	OrganizationID string
	APIKey         *APIKey
}

// Anonymous is the principal of an unauthenticated request.
var Anonymous = Principal{Kind: PrincipalNone}

// UserPrincipal builds a principal for an authenticated user.
func UserPrincipal(u *User) Principal {
	return Principal{Kind: PrincipalUser, User: u}
}

// OrganizationPrincipal builds a principal for an API-key caller.
func OrganizationPrincipal(key *APIKey) Principal {
	return Principal{Kind: PrincipalOrganization, OrganizationID: key.OrganizationID, APIKey: key}
}

// IsUser reports whether the principal is an authenticated user.
func (p Principal) IsUser() bool {
	return p.Kind == PrincipalUser && p.User != nil
}

// IsOrganization reports whether the principal authenticated by API key.
func (p Principal) IsOrganization() bool {
	return p.Kind == PrincipalOrganization && p.APIKey != nil
}
