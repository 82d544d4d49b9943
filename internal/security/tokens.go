package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned when a token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenTypeMismatch is returned when the type claim is not a known token kind.
	ErrTokenTypeMismatch = errors.New("token type mismatch")
)

// TokenType tags the three token payload variants.
type TokenType string

const (
	TokenTypeUser       TokenType = "user"
	TokenTypeSuperAdmin TokenType = "superadmin"
	TokenTypeDevice     TokenType = "device"
)

// Fixed lifetimes. Access tokens use the configured TTL on the provider instead.
const (
	RefreshTokenTTL = 7 * 24 * time.Hour
	DeviceTokenTTL  = 30 * 24 * time.Hour
)

// Payload is the tagged union carried inside every signed token.
// Exactly one of UserPayload, SuperAdminPayload, or DevicePayload implements it.
type Payload interface {
	TokenType() TokenType
}

// UserPayload identifies a tenant-scoped user.
type UserPayload struct {
	UserID   int64
	Email    string
	TenantID int64
	Role     string
}

// SuperAdminPayload identifies a platform-level account with no tenant.
type SuperAdminPayload struct {
	AdminID int64
	Email   string
	Role    string
}

// DevicePayload identifies a headless agent bound to a user and tenant.
type DevicePayload struct {
	DeviceID string
	UserID   int64
	TenantID int64
}

func (UserPayload) TokenType() TokenType       { return TokenTypeUser }
func (SuperAdminPayload) TokenType() TokenType { return TokenTypeSuperAdmin }
func (DevicePayload) TokenType() TokenType     { return TokenTypeDevice }

// tokenClaims is the wire shape: registered claims plus the union fields.
// sub holds the user/admin id (decimal) or the device id.
type tokenClaims struct {
	jwt.RegisteredClaims
	Type     TokenType `json:"type"`
	Email    string    `json:"email,omitempty"`
	TenantID *int64    `json:"tenantId,omitempty"`
	Role     string    `json:"role,omitempty"`
	UserID   int64     `json:"userId,omitempty"`
}

// TokenProvider signs and verifies HS256 tokens over a shared secret.
// It is a pure function of secret, payload, and TTL; it holds no mutable state
// and is safe for concurrent use.
type TokenProvider struct {
	secret    []byte
	accessTTL time.Duration
	nowF      func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret.
// accessTTL applies to access tokens only; refresh and device tokens use fixed lifetimes.
func NewTokenProvider(secret string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess signs a short-lived access token for a user or superadmin payload.
func (p *TokenProvider) IssueAccess(payload Payload) (token string, expiresAt time.Time, err error) {
	return p.sign(payload, p.accessTTL)
}

// IssueRefresh signs a 7-day refresh token carrying the same payload as the access token.
func (p *TokenProvider) IssueRefresh(payload Payload) (token string, expiresAt time.Time, err error) {
	return p.sign(payload, RefreshTokenTTL)
}

// IssueDevice signs a 30-day device token for a headless agent.
func (p *TokenProvider) IssueDevice(payload DevicePayload) (token string, expiresAt time.Time, err error) {
	return p.sign(payload, DeviceTokenTTL)
}

func (p *TokenProvider) sign(payload Payload, ttl time.Duration) (string, time.Time, error) {
	now := p.nowF()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	switch v := payload.(type) {
	case UserPayload:
		claims.Type = TokenTypeUser
		claims.Subject = strconv.FormatInt(v.UserID, 10)
		claims.Email = v.Email
		tid := v.TenantID
		claims.TenantID = &tid
		claims.Role = v.Role
	case SuperAdminPayload:
		claims.Type = TokenTypeSuperAdmin
		claims.Subject = strconv.FormatInt(v.AdminID, 10)
		claims.Email = v.Email
		claims.Role = v.Role
	case DevicePayload:
		claims.Type = TokenTypeDevice
		claims.Subject = v.DeviceID
		claims.UserID = v.UserID
		tid := v.TenantID
		claims.TenantID = &tid
	default:
		return "", time.Time{}, ErrTokenTypeMismatch
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates the token signature and expiry, then decodes the
// payload variant from the type claim. Unknown type tags fail with ErrTokenTypeMismatch.
func (p *TokenProvider) Verify(tokenString string) (Payload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.nowF))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claimsToPayload(claims)
}

// Decode parses the token without verifying the signature or expiry.
// Used by best-effort logout to blacklist whatever the caller presented.
func (p *TokenProvider) Decode(tokenString string) (payload Payload, expiresAt time.Time, err error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &tokenClaims{})
	if err != nil {
		return nil, time.Time{}, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok {
		return nil, time.Time{}, ErrTokenInvalid
	}
	pl, err := claimsToPayload(claims)
	if err != nil {
		return nil, time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return nil, time.Time{}, ErrTokenInvalid
	}
	return pl, claims.ExpiresAt.Time, nil
}

func claimsToPayload(claims *tokenClaims) (Payload, error) {
	switch claims.Type {
	case TokenTypeUser:
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, ErrTokenInvalid
		}
		if claims.TenantID == nil {
			return nil, ErrTokenInvalid
		}
		return UserPayload{UserID: id, Email: claims.Email, TenantID: *claims.TenantID, Role: claims.Role}, nil
	case TokenTypeSuperAdmin:
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, ErrTokenInvalid
		}
		return SuperAdminPayload{AdminID: id, Email: claims.Email, Role: claims.Role}, nil
	case TokenTypeDevice:
		if claims.Subject == "" || claims.TenantID == nil {
			return nil, ErrTokenInvalid
		}
		return DevicePayload{DeviceID: claims.Subject, UserID: claims.UserID, TenantID: *claims.TenantID}, nil
	default:
		return nil, ErrTokenTypeMismatch
	}
}
