// Package handler contains the gin handlers for the auth HTTP surface.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authservice "timetrack-auth/internal/auth/service"
	"timetrack-auth/internal/http/middleware"
	sessiondomain "timetrack-auth/internal/session/domain"
	userdomain "timetrack-auth/internal/user/domain"
)

const refreshCookieName = "refreshToken"

// AuthHandler serves login, refresh, and logout.
type AuthHandler struct {
	auth *authservice.AuthService
	// secureCookies marks the refresh cookie Secure; enabled in production.
	secureCookies bool
}

// NewAuthHandler returns the login/refresh/logout handler set.
func NewAuthHandler(auth *authservice.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookies: secureCookies}
}

type deviceInfo struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	ClientType string `json:"clientType"`
}

type loginRequest struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	UserType string      `json:"userType"`
	Device   *deviceInfo `json:"device"`

	// Older desktop clients send device fields at the top level.
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	ClientType string `json:"clientType"`
}

// device returns the nested device object when present, falling back to the
// flat legacy fields.
func (r *loginRequest) device() deviceInfo {
	if r.Device != nil {
		return *r.Device
	}
	return deviceInfo{DeviceID: r.DeviceID, DeviceName: r.DeviceName, ClientType: r.ClientType}
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	TenantID *int64 `json:"tenantId,omitempty"`
	Role     string `json:"role"`
}

// Login authenticates email/password, sets the refresh token as an httpOnly
// cookie, and returns the access token. A returnUrl query parameter, used by
// the device authorization flow, is echoed back so the client can resume it.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "email and password are required."})
		return
	}
	userType := authservice.UserTypeUser
	if req.UserType == string(authservice.UserTypeSuperAdmin) {
		userType = authservice.UserTypeSuperAdmin
	}
	dev := req.device()
	res, err := h.auth.Login(c.Request.Context(), authservice.LoginParams{
		Email:      req.Email,
		Password:   req.Password,
		UserType:   userType,
		DeviceID:   dev.DeviceID,
		DeviceName: dev.DeviceName,
		UserAgent:  c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
		ClientType: sessiondomain.ClientType(dev.ClientType),
	})
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "error_description": "Invalid email or password."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Login failed."})
		return
	}

	h.setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt)

	body := gin.H{
		"accessToken": res.AccessToken,
		"expiresIn":   int64(time.Until(res.AccessExpiresAt).Seconds()),
		"user":        identityResponse(res),
	}
	if returnURL := c.Query("returnUrl"); returnURL != "" {
		body["returnUrl"] = returnURL
	}
	c.JSON(http.StatusOK, body)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh mints a new access token from a refresh token taken from the JSON
// body or, failing that, the refresh cookie. The refresh token is not rotated.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "refreshToken is required."})
		return
	}

	access, expiresAt, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidRefreshToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_refresh_token", "error_description": "Invalid or expired refresh token."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Refresh failed."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": access,
		"expiresIn":   int64(time.Until(expiresAt).Seconds()),
	})
}

// Logout blacklists the presented access token, revokes the subject's
// sessions, and clears the refresh cookie. Always succeeds: a client that
// wants to log out gets logged out even with a mangled token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
		return
	}
	h.auth.Logout(c.Request.Context(), token)
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/auth",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func identityResponse(res *authservice.LoginResult) userResponse {
	auth := res.Auth
	if auth.SuperAdmin != nil {
		return userResponse{
			ID:    auth.SuperAdmin.ID,
			Email: auth.SuperAdmin.Email,
			Name:  auth.SuperAdmin.Name,
			Role:  string(userdomain.RoleSuperAdmin),
		}
	}
	tenantID := auth.User.TenantID
	return userResponse{
		ID:       auth.User.ID,
		Email:    auth.User.Email,
		Name:     auth.User.Name,
		TenantID: &tenantID,
		Role:     string(auth.User.Role),
	}
}
