// Package service implements login, refresh, logout, and identity resolution
// for tenant users, super admins, and agent devices.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"timetrack-auth/internal/audit"
	"timetrack-auth/internal/authctx"
	"timetrack-auth/internal/blacklist"
	devicedomain "timetrack-auth/internal/device/domain"
	"timetrack-auth/internal/security"
	"timetrack-auth/internal/session"
	sessiondomain "timetrack-auth/internal/session/domain"
	superadmindomain "timetrack-auth/internal/superadmin/domain"
	tenantdomain "timetrack-auth/internal/tenant/domain"
	userdomain "timetrack-auth/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP codes.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrIdentityNotFound    = errors.New("identity not found or inactive")
)

// UserType selects which account table Login authenticates against.
type UserType string

const (
	UserTypeUser       UserType = "user"
	UserTypeSuperAdmin UserType = "superadmin"
)

// blacklistFallbackTTL bounds how long an undecodable token stays
// blacklisted on logout.
const blacklistFallbackTTL = 24 * time.Hour

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// SuperAdminRepo is the minimal super admin repository needed by the auth service.
type SuperAdminRepo interface {
	GetByID(ctx context.Context, id int64) (*superadmindomain.SuperAdmin, error)
	GetByEmail(ctx context.Context, email string) (*superadmindomain.SuperAdmin, error)
}

// TenantRepo is the minimal tenant repository needed by the auth service.
type TenantRepo interface {
	GetByID(ctx context.Context, id int64) (*tenantdomain.Tenant, error)
}

// DeviceResolver resolves an authorized device by its client-chosen identifier.
type DeviceResolver interface {
	GetAuthorized(ctx context.Context, deviceID string) (*devicedomain.Device, error)
}

// LoginParams carries the credentials and client metadata for one login attempt.
type LoginParams struct {
	Email      string
	Password   string
	UserType   UserType
	DeviceID   string
	DeviceName string
	UserAgent  string
	IPAddress  string
	ClientType sessiondomain.ClientType
}

// LoginResult holds the tokens minted for a successful login.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Auth             *authctx.AuthContext
}

// AuthService implements password login, access-token refresh, and logout.
type AuthService struct {
	users       UserRepo
	superAdmins SuperAdminRepo
	tenants     TenantRepo
	devices     DeviceResolver
	sessions    *session.Store
	tokens      *security.TokenProvider
	hasher      *security.Hasher
	blacklist   *blacklist.Blacklist
	auditor     audit.AuditLogger
	nowF        func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
// auditor may be nil; audit logging is then skipped.
func NewAuthService(
	users UserRepo,
	superAdmins SuperAdminRepo,
	tenants TenantRepo,
	devices DeviceResolver,
	sessions *session.Store,
	tokens *security.TokenProvider,
	hasher *security.Hasher,
	bl *blacklist.Blacklist,
	auditor audit.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		superAdmins: superAdmins,
		tenants:     tenants,
		devices:     devices,
		sessions:    sessions,
		tokens:      tokens,
		hasher:      hasher,
		blacklist:   bl,
		auditor:     auditor,
		nowF:        func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates email/password against the selected account table,
// creates a session keyed by the new refresh token, and returns both tokens.
// Failures are uniformly ErrInvalidCredentials; no detail leaks about which
// check rejected the attempt.
func (s *AuthService) Login(ctx context.Context, p LoginParams) (*LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" || p.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if p.UserType == UserTypeSuperAdmin {
		return s.loginSuperAdmin(ctx, email, p)
	}
	return s.loginUser(ctx, email, p)
}

func (s *AuthService) loginUser(ctx context.Context, email string, p LoginParams) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		s.logFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(p.Password)); err != nil {
		s.logFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	tenant, err := s.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || !tenant.IsActive() {
		s.logFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	payload := security.UserPayload{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
		Role:     string(user.Role),
	}
	auth := &authctx.AuthContext{
		Kind: authctx.KindUser,
		User: &authctx.UserIdentity{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			TenantID: user.TenantID,
			Role:     user.Role,
		},
	}
	tenantID := user.TenantID
	res, err := s.mintAndPersist(ctx, payload, user.ID, &tenantID, p, auth)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, &tenantID, &user.ID, audit.ActionLogin, string(p.ClientType))
	return res, nil
}

func (s *AuthService) loginSuperAdmin(ctx context.Context, email string, p LoginParams) (*LoginResult, error) {
	admin, err := s.superAdmins.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		s.logFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(admin.PasswordHash, []byte(p.Password)); err != nil {
		s.logFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	payload := security.SuperAdminPayload{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    string(userdomain.RoleSuperAdmin),
	}
	auth := &authctx.AuthContext{
		Kind: authctx.KindSuperAdmin,
		SuperAdmin: &authctx.SuperAdminIdentity{
			ID:    admin.ID,
			Email: admin.Email,
			Name:  admin.Name,
		},
	}
	res, err := s.mintAndPersist(ctx, payload, admin.ID, nil, p, auth)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, nil, &admin.ID, audit.ActionLogin, "superadmin")
	return res, nil
}

func (s *AuthService) mintAndPersist(
	ctx context.Context,
	payload security.Payload,
	subjectID int64,
	tenantID *int64,
	p LoginParams,
	auth *authctx.AuthContext,
) (*LoginResult, error) {
	accessToken, accessExp, err := s.tokens.IssueAccess(payload)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(payload)
	if err != nil {
		return nil, err
	}
	_, err = s.sessions.Create(ctx, session.CreateParams{
		UserID:       subjectID,
		TenantID:     tenantID,
		RefreshToken: refreshToken,
		ExpiresAt:    refreshExp,
		DeviceID:     p.DeviceID,
		DeviceName:   p.DeviceName,
		UserAgent:    p.UserAgent,
		IPAddress:    p.IPAddress,
		ClientType:   p.ClientType,
	})
	if err != nil {
		return nil, err
	}
	auth.Token = accessToken
	return &LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		Auth:             auth,
	}, nil
}

// Refresh verifies the refresh token, confirms a live session still backs it,
// and mints a new access token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (accessToken string, expiresAt time.Time, err error) {
	if refreshToken == "" {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	payload, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	var subjectID int64
	var tenantID, userID *int64
	switch pl := payload.(type) {
	case security.UserPayload:
		subjectID = pl.UserID
		tenantID = &pl.TenantID
		userID = &pl.UserID
	case security.SuperAdminPayload:
		subjectID = pl.AdminID
		userID = &pl.AdminID
	default:
		// Device tokens are not refresh credentials.
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	sess, err := s.sessions.FindValid(ctx, subjectID, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if sess == nil {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	_ = s.sessions.TouchLastSeen(ctx, sess.ID)

	accessToken, expiresAt, err = s.tokens.IssueAccess(payload)
	if err != nil {
		return "", time.Time{}, err
	}
	s.logEvent(ctx, tenantID, userID, audit.ActionRefresh, sess.ID)
	return accessToken, expiresAt, nil
}

// Logout blacklists the presented access token and revokes every session of
// its subject. Undecodable tokens are still blacklisted for a bounded window
// so a stolen token cannot outlive logout. Logout never fails.
func (s *AuthService) Logout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	payload, exp, err := s.tokens.Decode(accessToken)
	if err != nil {
		s.blacklist.Add(accessToken, s.nowF().Add(blacklistFallbackTTL))
		return
	}
	s.blacklist.Add(accessToken, exp)

	var subjectID int64
	var tenantID, userID *int64
	switch pl := payload.(type) {
	case security.UserPayload:
		subjectID = pl.UserID
		tenantID = &pl.TenantID
		userID = &pl.UserID
	case security.SuperAdminPayload:
		subjectID = pl.AdminID
		userID = &pl.AdminID
	default:
		return
	}
	_ = s.sessions.RevokeAllForUser(ctx, subjectID)
	s.logEvent(ctx, tenantID, userID, audit.ActionLogout, "")
}

// ResolveIdentity loads the live account behind a verified token payload.
// Deleted, deactivated, or deauthorized subjects resolve to ErrIdentityNotFound
// even when the token signature is still valid.
func (s *AuthService) ResolveIdentity(ctx context.Context, payload security.Payload) (*authctx.AuthContext, error) {
	switch pl := payload.(type) {
	case security.UserPayload:
		user, err := s.users.GetByID(ctx, pl.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil || !user.IsActive {
			return nil, ErrIdentityNotFound
		}
		tenant, err := s.tenants.GetByID(ctx, user.TenantID)
		if err != nil {
			return nil, err
		}
		if tenant == nil || !tenant.IsActive() {
			return nil, ErrIdentityNotFound
		}
		return &authctx.AuthContext{
			Kind: authctx.KindUser,
			User: &authctx.UserIdentity{
				ID:       user.ID,
				Email:    user.Email,
				Name:     user.Name,
				TenantID: user.TenantID,
				Role:     user.Role,
			},
		}, nil
	case security.SuperAdminPayload:
		admin, err := s.superAdmins.GetByID(ctx, pl.AdminID)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrIdentityNotFound
		}
		return &authctx.AuthContext{
			Kind: authctx.KindSuperAdmin,
			SuperAdmin: &authctx.SuperAdminIdentity{
				ID:    admin.ID,
				Email: admin.Email,
				Name:  admin.Name,
			},
		}, nil
	case security.DevicePayload:
		dev, err := s.devices.GetAuthorized(ctx, pl.DeviceID)
		if err != nil {
			return nil, err
		}
		if dev == nil || dev.UserID != pl.UserID || dev.TenantID != pl.TenantID {
			return nil, ErrIdentityNotFound
		}
		return &authctx.AuthContext{
			Kind: authctx.KindDevice,
			Device: &authctx.DeviceIdentity{
				DeviceRowID: dev.ID,
				DeviceID:    dev.DeviceID,
				UserID:      dev.UserID,
				TenantID:    dev.TenantID,
			},
		}, nil
	default:
		return nil, ErrIdentityNotFound
	}
}

func (s *AuthService) logFailure(ctx context.Context, email string) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogEvent(ctx, nil, nil, audit.ActionLoginFailure, "auth", email)
}

func (s *AuthService) logEvent(ctx context.Context, tenantID, userID *int64, action, metadata string) {
	if s.auditor == nil {
		return
	}
	s.auditor.LogEvent(ctx, tenantID, userID, action, "auth", metadata)
}
