package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

const (
	DefaultAccessTTL      = 15 * time.Minute
	DefaultRefreshTTL     = 7 * 24 * time.Hour
	DefaultEmailVerifyTTL = 7 * 24 * time.Hour

	minHMACKeyBytes = 32
)

var (
	// ErrInvalidToken is returned by Decode for every verification failure.
	// The wrapped detail is meant for logs only.
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidTTL   = errors.New("token ttl must be at least one second")
	ErrEmptySubject = errors.New("token subject is empty")
)

// Config configures a Codec. Zero TTLs select the package defaults and a nil
// Now selects time.Now.
type Config struct {
	SigningMethod SigningMethod
	// PrivateKey is the HMAC secret for hs256, or the signing key for ed25519
	// (raw or PEM).
	PrivateKey []byte
	PublicKey  []byte
	KeyID      string

	Issuer   string
	Audience string
	Leeway   time.Duration

	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	EmailVerifyTTL time.Duration

	Now func() time.Time
}

// Codec signs and verifies tokens. It holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	config    Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	parser    *jwt.Parser
}

type tokenClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and resolves signing keys.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.EmailVerifyTTL == 0 {
		cfg.EmailVerifyTTL = DefaultEmailVerifyTTL
	}
	for _, ttl := range []time.Duration{cfg.AccessTTL, cfg.RefreshTTL, cfg.EmailVerifyTTL} {
		if ttl < jwt.TimePrecision {
			return nil, ErrInvalidTTL
		}
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	c := &Codec{config: cfg}

	switch cfg.SigningMethod {
	case MethodHS256, "":
		if len(cfg.PrivateKey) < minHMACKeyBytes {
			return nil, fmt.Errorf("hs256 secret must be at least %d bytes", minHMACKeyBytes)
		}
		c.config.SigningMethod = MethodHS256
		c.method = jwt.SigningMethodHS256
		c.signKey = cfg.PrivateKey
		c.verifyKey = cfg.PrivateKey
	case MethodEd25519:
		c.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			c.signKey = priv
			c.verifyKey = priv.Public()
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			c.verifyKey = pub
		}
		if c.verifyKey == nil {
			return nil, errors.New("ed25519 requires a private or public key")
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}
	c.parser = jwt.NewParser(options...)

	return c, nil
}

// Issue signs a token for subject with the given scope. It embeds
// iat = now and exp = now + ttl.
func (c *Codec) Issue(subject string, scope Scope, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if ttl < jwt.TimePrecision {
		return "", ErrInvalidTTL
	}
	if c.signKey == nil {
		return "", errors.New("codec has no signing key")
	}

	now := c.config.Now()
	claims := tokenClaims{
		Scope: string(scope),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    c.config.Issuer,
		},
	}
	if c.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	token := jwt.NewWithClaims(c.method, claims)
	if c.config.KeyID != "" {
		token.Header["kid"] = c.config.KeyID
	}

	return token.SignedString(c.signKey)
}

func (c *Codec) IssueAccess(subject string) (string, error) {
	return c.Issue(subject, ScopeAccess, c.config.AccessTTL)
}

func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.Issue(subject, ScopeRefresh, c.config.RefreshTTL)
}

func (c *Codec) IssueEmailVerify(subject string) (string, error) {
	return c.Issue(subject, ScopeEmailVerify, c.config.EmailVerifyTTL)
}

// Decode verifies signature, algorithm and expiry. Every failure wraps
// ErrInvalidToken. Scope is reported through the DecodedToken kind and is
// never enforced here.
func (c *Codec) Decode(tokenStr string) (DecodedToken, error) {
	if tokenStr == "" {
		return DecodedToken{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := c.parser.ParseWithClaims(tokenStr, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if c.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != c.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return c.verifyKey, nil
	})
	if err != nil {
		return DecodedToken{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return DecodedToken{}, fmt.Errorf("%w: %v", ErrInvalidToken, jwt.ErrTokenInvalidClaims)
	}
	if claims.IssuedAt == nil {
		return DecodedToken{}, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return DecodedToken{}, fmt.Errorf("%w: exp not after iat", ErrInvalidToken)
	}

	return DecodedToken{
		kind: kindOf(claims.Scope),
		claims: Claims{
			Subject:   claims.Subject,
			ID:        claims.ID,
			IssuedAt:  claims.IssuedAt.Time,
			ExpiresAt: claims.ExpiresAt.Time,
		},
	}, nil
}

// TTL returns the configured lifetime for scope.
func (c *Codec) TTL(scope Scope) time.Duration {
	switch scope {
	case ScopeRefresh:
		return c.config.RefreshTTL
	case ScopeEmailVerify:
		return c.config.EmailVerifyTTL
	default:
		return c.config.AccessTTL
	}
}
