package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"timetrack-auth/internal/authctx"
	devicedomain "timetrack-auth/internal/device/domain"
	"timetrack-auth/internal/security"
)

// Outcome is a device strategy's verdict for one request.
type Outcome int

const (
	// OutcomeSkip means the strategy's credential was absent or unreadable;
	// the next strategy in line gets a chance.
	OutcomeSkip Outcome = iota
	// OutcomeAdmitted means the strategy resolved an authorized device.
	OutcomeAdmitted
	// OutcomeDenied means the credential named a device that must not pass.
	// Denial is terminal; later strategies do not run.
	OutcomeDenied
)

// DeviceStrategy attempts to resolve the calling device from one kind of credential.
type DeviceStrategy interface {
	Authenticate(c *gin.Context) (Outcome, *authctx.DeviceIdentity, error)
}

// DeviceRegistry is the device lookup the strategies need.
type DeviceRegistry interface {
	GetAuthorized(ctx context.Context, deviceID string) (*devicedomain.Device, error)
	TouchLastSeen(ctx context.Context, id int64) error
}

// DeviceAuth runs strategies in order until one admits or denies the request.
// A request no strategy admits is rejected with 401.
func DeviceAuth(strategies ...DeviceStrategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, strat := range strategies {
			outcome, identity, err := strat.Authenticate(c)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "error_description": "Device lookup failed."})
				return
			}
			switch outcome {
			case OutcomeAdmitted:
				SetAuthContext(c, &authctx.AuthContext{Kind: authctx.KindDevice, Device: identity})
				c.Next()
				return
			case OutcomeDenied:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "device_not_authorized", "error_description": "Device is not authorized."})
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "device_required", "error_description": "Device credentials required."})
	}
}

// DeviceTokenStrategy admits agents presenting a device-type bearer token.
// Requests with no bearer, an unverifiable token, or a non-device payload are
// skipped so a later strategy can try. A verified device token whose device is
// gone, deauthorized, or bound to a different owner is denied outright.
type DeviceTokenStrategy struct {
	tokens   *security.TokenProvider
	registry DeviceRegistry
}

// NewDeviceTokenStrategy returns the bearer-token device strategy.
func NewDeviceTokenStrategy(tokens *security.TokenProvider, registry DeviceRegistry) *DeviceTokenStrategy {
	return &DeviceTokenStrategy{tokens: tokens, registry: registry}
}

func (s *DeviceTokenStrategy) Authenticate(c *gin.Context) (Outcome, *authctx.DeviceIdentity, error) {
	token, ok := BearerToken(c)
	if !ok {
		return OutcomeSkip, nil, nil
	}
	payload, err := s.tokens.Verify(token)
	if err != nil {
		return OutcomeSkip, nil, nil
	}
	pl, ok := payload.(security.DevicePayload)
	if !ok {
		return OutcomeSkip, nil, nil
	}
	dev, err := s.registry.GetAuthorized(c.Request.Context(), pl.DeviceID)
	if err != nil {
		return OutcomeSkip, nil, err
	}
	if dev == nil || dev.UserID != pl.UserID || dev.TenantID != pl.TenantID {
		return OutcomeDenied, nil, nil
	}
	_ = s.registry.TouchLastSeen(c.Request.Context(), dev.ID)
	return OutcomeAdmitted, &authctx.DeviceIdentity{
		DeviceRowID: dev.ID,
		DeviceID:    dev.DeviceID,
		UserID:      dev.UserID,
		TenantID:    dev.TenantID,
	}, nil
}

// LegacyDeviceIDStrategy admits agents that predate device tokens and only
// send their device id in the request body. The body is bound with
// ShouldBindBodyWith so the handler can read it again.
type LegacyDeviceIDStrategy struct {
	registry DeviceRegistry
}

// NewLegacyDeviceIDStrategy returns the body-deviceId fallback strategy.
func NewLegacyDeviceIDStrategy(registry DeviceRegistry) *LegacyDeviceIDStrategy {
	return &LegacyDeviceIDStrategy{registry: registry}
}

type legacyDeviceBody struct {
	DeviceID string `json:"deviceId"`
}

func (s *LegacyDeviceIDStrategy) Authenticate(c *gin.Context) (Outcome, *authctx.DeviceIdentity, error) {
	var body legacyDeviceBody
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.DeviceID == "" {
		return OutcomeSkip, nil, nil
	}
	dev, err := s.registry.GetAuthorized(c.Request.Context(), body.DeviceID)
	if err != nil {
		return OutcomeSkip, nil, err
	}
	if dev == nil {
		return OutcomeDenied, nil, nil
	}
	_ = s.registry.TouchLastSeen(c.Request.Context(), dev.ID)
	return OutcomeAdmitted, &authctx.DeviceIdentity{
		DeviceRowID: dev.ID,
		DeviceID:    dev.DeviceID,
		UserID:      dev.UserID,
		TenantID:    dev.TenantID,
	}, nil
}

var _ DeviceStrategy = (*DeviceTokenStrategy)(nil)
var _ DeviceStrategy = (*LegacyDeviceIDStrategy)(nil)
