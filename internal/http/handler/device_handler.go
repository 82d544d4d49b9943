package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"timetrack-auth/internal/audit"
	"timetrack-auth/internal/authctx"
	"timetrack-auth/internal/device"
	devicedomain "timetrack-auth/internal/device/domain"
	"timetrack-auth/internal/http/middleware"
)

// DeviceHandler serves device listing, revocation, and the agent heartbeat.
type DeviceHandler struct {
	devices *device.Service
	auditor audit.AuditLogger
}

// NewDeviceHandler returns the device management handler set.
func NewDeviceHandler(devices *device.Service, auditor audit.AuditLogger) *DeviceHandler {
	return &DeviceHandler{devices: devices, auditor: auditor}
}

type deviceResponse struct {
	ID           int64      `json:"id"`
	DeviceID     string     `json:"deviceId"`
	Name         string     `json:"name"`
	IsAuthorized bool       `json:"isAuthorized"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// ListMine returns the caller's devices in the request's tenant, newest first.
func (h *DeviceHandler) ListMine(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authentication required."})
		return
	}
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_tenant", "error_description": "Tenant scope required."})
		return
	}
	list, err := h.devices.ListForOwner(c.Request.Context(), tenantID, auth.SubjectID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not list devices."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": deviceResponses(list)})
}

type revokeDeviceRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// Revoke deauthorizes a device row in the request's tenant. The row and its
// history are kept; the device just stops passing the guard. Owners revoke
// their own devices; managing roles may revoke any device in the tenant.
func (h *DeviceHandler) Revoke(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authentication required."})
		return
	}
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_tenant", "error_description": "Tenant scope required."})
		return
	}
	var req revokeDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Device id is required."})
		return
	}

	if !auth.Role().CanManageTenant() {
		dev, err := h.devices.Get(c.Request.Context(), req.ID, tenantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not load device."})
			return
		}
		if dev == nil || dev.UserID != auth.SubjectID() {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "error_description": "Not your device."})
			return
		}
	}

	if err := h.devices.Revoke(c.Request.Context(), req.ID, tenantID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device_not_found", "error_description": "No such device in this tenant."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Could not revoke device."})
		return
	}
	if h.auditor != nil {
		subject := auth.SubjectID()
		h.auditor.LogEvent(c.Request.Context(), &tenantID, &subject, audit.ActionDeviceRevoked, "device", "")
	}
	c.JSON(http.StatusOK, gin.H{"message": "device revoked"})
}

type heartbeatRequest struct {
	DeviceID string `json:"deviceId"`
}

// Heartbeat acknowledges agent liveness. Admission and last-seen bookkeeping
// happen in the device guard; the legacy body deviceId, when present, must
// match the admitted device.
func (h *DeviceHandler) Heartbeat(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok || auth.Kind != authctx.KindDevice {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "device_required", "error_description": "Device credentials required."})
		return
	}
	var req heartbeatRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err == nil && req.DeviceID != "" && req.DeviceID != auth.Device.DeviceID {
		c.JSON(http.StatusForbidden, gin.H{"error": "device_mismatch", "error_description": "Body deviceId does not match the authenticated device."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"deviceId": auth.Device.DeviceID,
		"time":     time.Now().UTC(),
	})
}

func deviceResponses(list []*devicedomain.Device) []deviceResponse {
	out := make([]deviceResponse, 0, len(list))
	for _, d := range list {
		out = append(out, deviceResponse{
			ID:           d.ID,
			DeviceID:     d.DeviceID,
			Name:         d.Name,
			IsAuthorized: d.IsAuthorized,
			LastSeenAt:   d.LastSeenAt,
			CreatedAt:    d.CreatedAt,
		})
	}
	return out
}
