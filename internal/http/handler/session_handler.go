package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timetrack-auth/internal/audit"
	"timetrack-auth/internal/authctx"
	"timetrack-auth/internal/http/middleware"
	"timetrack-auth/internal/session"
	sessiondomain "timetrack-auth/internal/session/domain"
)

// SessionHandler serves session listing and revocation.
type SessionHandler struct {
	sessions *session.Store
	auditor  audit.AuditLogger
}

// NewSessionHandler returns the session management handler set.
func NewSessionHandler(sessions *session.Store, auditor audit.AuditLogger) *SessionHandler {
	return &SessionHandler{sessions: sessions, auditor: auditor}
}

type sessionResponse struct {
	ID         string     `json:"id"`
	DeviceID   string     `json:"deviceId,omitempty"`
	DeviceName string     `json:"deviceName,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	ClientType string     `json:"clientType"`
	Active     bool       `json:"active"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ListMine returns the caller's sessions, newest first, revoked ones included.
func (h *SessionHandler) ListMine(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authentication required."})
		return
	}
	list, err := h.sessions.ListForUser(c.Request.Context(), auth.SubjectID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not list sessions."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessionResponses(list)})
}

// Revoke revokes one session by id. Callers may revoke their own sessions;
// super admins may revoke any. Revoking an already-revoked session is a no-op.
func (h *SessionHandler) Revoke(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authentication required."})
		return
	}
	id := c.Param("id")

	sess, err := h.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not load session."})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found", "error_description": "No such session."})
		return
	}
	if auth.Kind != authctx.KindSuperAdmin && sess.UserID != auth.SubjectID() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "error_description": "Not your session."})
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not revoke session."})
		return
	}
	if h.auditor != nil {
		subject := auth.SubjectID()
		h.auditor.LogEvent(c.Request.Context(), sess.TenantID, &subject, audit.ActionSessionRevoked, "session", id)
	}
	c.JSON(http.StatusOK, gin.H{"message": "session revoked"})
}

// ListTenant returns every session scoped to the request's tenant. Restricted
// to roles that manage the tenant; super admins select the tenant with the
// X-Tenant-ID header.
func (h *SessionHandler) ListTenant(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authentication required."})
		return
	}
	if !auth.Role().CanManageTenant() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "error_description": "Insufficient role."})
		return
	}
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_tenant", "error_description": "Tenant scope required."})
		return
	}
	list, err := h.sessions.ListForTenant(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not list sessions."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessionResponses(list)})
}

func sessionResponses(list []*sessiondomain.Session) []sessionResponse {
	now := time.Now().UTC()
	out := make([]sessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, sessionResponse{
			ID:         s.ID,
			DeviceID:   s.DeviceID,
			DeviceName: s.DeviceName,
			UserAgent:  s.UserAgent,
			IPAddress:  s.IPAddress,
			ClientType: string(s.ClientType),
			Active:     s.IsValid(now),
			ExpiresAt:  s.ExpiresAt,
			LastSeenAt: s.LastSeenAt,
			CreatedAt:  s.CreatedAt,
		})
	}
	return out
}
