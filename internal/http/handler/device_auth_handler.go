package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"timetrack-auth/internal/audit"
	"timetrack-auth/internal/authctx"
	deviceauthservice "timetrack-auth/internal/deviceauth/service"
	"timetrack-auth/internal/http/middleware"
	"timetrack-auth/internal/security"
)

// loginPath is where unauthenticated authorize requests are sent. The login
// page posts credentials and then resumes the flow via returnUrl.
const loginPath = "/auth/login"

// DeviceAuthHandler serves the browser-assisted device authorization flow.
type DeviceAuthHandler struct {
	codes   *deviceauthservice.Service
	tokens  *security.TokenProvider
	resolve middleware.ResolveFunc
	auditor audit.AuditLogger
}

// NewDeviceAuthHandler returns the device authorization handler set.
func NewDeviceAuthHandler(codes *deviceauthservice.Service, tokens *security.TokenProvider, resolve middleware.ResolveFunc, auditor audit.AuditLogger) *DeviceAuthHandler {
	return &DeviceAuthHandler{codes: codes, tokens: tokens, resolve: resolve, auditor: auditor}
}

// Authorize is hit by the agent opening the user's browser. If the browser
// carries a valid user token (query parameter or bearer header), a single-use
// code is minted and the browser is redirected to the agent's localhost
// callback. Otherwise the browser is bounced to the login page with the full
// authorize URL as returnUrl, so login can resume the flow.
func (h *DeviceAuthHandler) Authorize(c *gin.Context) {
	deviceID := c.Query("deviceId")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "deviceId is required."})
		return
	}
	redirectURI := c.Query("redirectUri")
	if redirectURI == "" {
		redirectURI = deviceauthservice.DefaultRedirectURI
	}
	if err := deviceauthservice.ValidateRedirectURI(redirectURI); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_redirect_uri", "error_description": err.Error()})
		return
	}

	auth := h.resolveSubject(c)
	if auth == nil {
		returnURL := url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, loginPath+"?returnUrl="+returnURL)
		return
	}

	// Super admins carry no tenant; the code is minted tenant-less and the
	// exchange step refuses it until the device can be bound.
	var userID, tenantID *int64
	switch auth.Kind {
	case authctx.KindUser:
		uid, tid := auth.User.ID, auth.User.TenantID
		userID, tenantID = &uid, &tid
	case authctx.KindSuperAdmin:
		uid := auth.SuperAdmin.ID
		userID = &uid
	}
	code, err := h.codes.CreateCode(c.Request.Context(), deviceID, userID, tenantID, redirectURI, c.Query("deviceName"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not create authorization code."})
		return
	}
	if h.auditor != nil {
		h.auditor.LogEvent(c.Request.Context(), tenantID, userID, audit.ActionDeviceCodeIssued, "device", deviceID)
	}

	target, err := url.Parse(redirectURI)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_redirect_uri", "error_description": "Malformed redirect URI."})
		return
	}
	q := target.Query()
	q.Set("code", code)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

// resolveSubject resolves a tenant user or a super admin from the token query
// parameter or the bearer header. Anything else (no token, expired, device
// payload, dead account) yields nil and sends the browser to login.
func (h *DeviceAuthHandler) resolveSubject(c *gin.Context) *authctx.AuthContext {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c)
	}
	if token == "" {
		return nil
	}
	payload, err := h.tokens.Verify(token)
	if err != nil {
		return nil
	}
	switch payload.(type) {
	case security.UserPayload, security.SuperAdminPayload:
	default:
		return nil
	}
	auth, err := h.resolve(c, payload)
	if err != nil || (auth.Kind != authctx.KindUser && auth.Kind != authctx.KindSuperAdmin) {
		return nil
	}
	return auth
}

type exchangeRequest struct {
	Code     string `json:"code" binding:"required"`
	DeviceID string `json:"deviceId" binding:"required"`
}

// Exchange redeems an authorization code for a long-lived device token.
// Each code works exactly once, even under concurrent redemption.
func (h *DeviceAuthHandler) Exchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "code and deviceId are required."})
		return
	}

	res, err := h.codes.Exchange(c.Request.Context(), req.Code, req.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, deviceauthservice.ErrCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "code_not_found", "error_description": err.Error()})
		case errors.Is(err, deviceauthservice.ErrCodeExpired),
			errors.Is(err, deviceauthservice.ErrCodeAlreadyUsed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "code_unusable", "error_description": err.Error()})
		case errors.Is(err, deviceauthservice.ErrMissingAssociation):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "code_unbound", "error_description": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Exchange failed."})
		}
		return
	}

	if h.auditor != nil {
		h.auditor.LogEvent(c.Request.Context(), &res.Device.TenantID, &res.Device.UserID, audit.ActionDeviceCodeUsed, "device", res.DeviceID)
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": res.AccessToken,
		"deviceId":    res.DeviceID,
		"expiresIn":   res.ExpiresIn,
		"device": gin.H{
			"id":           res.Device.ID,
			"deviceId":     res.Device.DeviceID,
			"name":         res.Device.Name,
			"isAuthorized": res.Device.IsAuthorized,
		},
	})
}
