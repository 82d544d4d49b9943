package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"timetrack-auth/internal/authctx"
)

const tenantIDKey = "tenantID"

// tenantHeader lets a super admin scope a request to one tenant. Tenant-bound
// identities may send it too, but only with their own tenant id.
const tenantHeader = "X-Tenant-ID"

// RequireTenant resolves the tenant scope for the request. Tenant-bound
// identities (users, devices) are pinned to their own tenant; a mismatching
// X-Tenant-ID is rejected rather than ignored. Super admins are platform-level
// and may address any tenant via the header, or none at all.
func RequireTenant(c *gin.Context) {
	auth, ok := GetAuthContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authentication required."})
		return
	}

	requested, hasHeader, err := requestedTenant(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_tenant", "error_description": "Malformed tenant id."})
		return
	}

	own, bound := auth.TenantID()
	if bound {
		if hasHeader && requested != own {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant_mismatch", "error_description": "Identity does not belong to the requested tenant."})
			return
		}
		setTenant(c, own)
		c.Next()
		return
	}

	// Super admin: tenant scope only when explicitly requested.
	if hasHeader {
		setTenant(c, requested)
	}
	c.Next()
}

func requestedTenant(c *gin.Context) (int64, bool, error) {
	raw := strings.TrimSpace(c.GetHeader(tenantHeader))
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, true, strconv.ErrSyntax
	}
	return id, true, nil
}

func setTenant(c *gin.Context, tenantID int64) {
	c.Set(tenantIDKey, tenantID)
	c.Request = c.Request.WithContext(authctx.WithTenant(c.Request.Context(), tenantID))
}

// GetTenantID returns the tenant scope RequireTenant attached, if any.
// Super admin requests without an X-Tenant-ID header carry no tenant scope.
func GetTenantID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(tenantIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}
