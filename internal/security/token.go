package security

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/pkg/clock"
)

// TokenCodec issues and verifies compact bearer tokens carrying a subject and
// a permission snapshot. Tokens are stateless: validity is signature plus
// expiry, there is no revocation store.
type TokenCodec interface {
	Issue(subject string, permissions domain.PermissionSet) (string, error)
	Verify(token string) (*domain.Principal, error)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"perms"`
}

type jwtCodec struct {
	secret   []byte
	issuer   string
	validity time.Duration
	clock    clock.Clock
}

// NewJWTCodec builds an HS256 codec. The permission set embedded at issuance
// is trusted as-is on verify; permission changes take effect at the next
// login, not on in-flight tokens.
func NewJWTCodec(secret []byte, issuer string, validity time.Duration, clk clock.Clock) TokenCodec {
	if validity <= 0 {
		validity = time.Hour
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &jwtCodec{
		secret:   secret,
		issuer:   issuer,
		validity: validity,
		clock:    clk,
	}
}

func (c *jwtCodec) Issue(subject string, permissions domain.PermissionSet) (string, error) {
	now := c.clock.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		Permissions: permissions.Strings(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature first and fails closed on any mismatch, then
// checks expiry against the injected clock. No clock skew leeway is granted.
func (c *jwtCodec) Verify(token string) (*domain.Principal, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	if claims.ExpiresAt == nil || !c.clock.Now().Before(claims.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Principal{
		Subject:     claims.Subject,
		Permissions: domain.ParsePermissions(claims.Permissions),
	}, nil
}
