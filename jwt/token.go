package jwt

import "time"

// Scope is the value of the scope claim.
type Scope string

const (
	ScopeAccess      Scope = "access"
	ScopeRefresh     Scope = "refresh"
	ScopeEmailVerify Scope = "email_verify"
)

// Kind discriminates a DecodedToken.
type Kind uint8

const (
	// KindUnknown covers tokens whose scope claim is absent or unrecognised.
	KindUnknown Kind = iota
	KindAccess
	KindRefresh
	KindEmailVerify
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return string(ScopeAccess)
	case KindRefresh:
		return string(ScopeRefresh)
	case KindEmailVerify:
		return string(ScopeEmailVerify)
	default:
		return "unknown"
	}
}

func kindOf(scope string) Kind {
	switch Scope(scope) {
	case ScopeAccess:
		return KindAccess
	case ScopeRefresh:
		return KindRefresh
	case ScopeEmailVerify:
		return KindEmailVerify
	default:
		return KindUnknown
	}
}

// Claims are the fields every verified token carries.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessToken is a verified token with scope access.
type AccessToken struct{ Claims }

// RefreshToken is a verified token with scope refresh.
type RefreshToken struct{ Claims }

// EmailVerifyToken is a verified token with scope email_verify.
type EmailVerifyToken struct{ Claims }

// DecodedToken is the tagged result of Codec.Decode. The zero value is
// KindUnknown with empty claims.
type DecodedToken struct {
	kind   Kind
	claims Claims
}

func (d DecodedToken) Kind() Kind { return d.kind }

// Claims returns the scope-independent claims. Use it for logging and for
// flows that deliberately accept any verified token.
func (d DecodedToken) Claims() Claims { return d.claims }

func (d DecodedToken) AsAccess() (AccessToken, bool) {
	if d.kind != KindAccess {
		return AccessToken{}, false
	}
	return AccessToken{d.claims}, true
}

func (d DecodedToken) AsRefresh() (RefreshToken, bool) {
	if d.kind != KindRefresh {
		return RefreshToken{}, false
	}
	return RefreshToken{d.claims}, true
}

func (d DecodedToken) AsEmailVerify() (EmailVerifyToken, bool) {
	if d.kind != KindEmailVerify {
		return EmailVerifyToken{}, false
	}
	return EmailVerifyToken{d.claims}, true
}
