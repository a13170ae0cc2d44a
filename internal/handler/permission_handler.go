package handler

import (
	"errors"
	"net/http"
	"time"

	"permission-service/internal/permission"
	"permission-service/internal/tenant"
	"permission-service/pkg/logger"
	"permission-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// writeAuthorizeError maps the resolver's error taxonomy to HTTP responses.
// Membership and capability failures are 403s with distinct messages; any
// other resolution failure is a 500 and never an allow.
func writeAuthorizeError(c echo.Context, log *zap.Logger, err error) error {
	var insufficient *permission.InsufficientError
	switch {
	case errors.Is(err, permission.ErrMembershipMissing):
		prometheus.RecordPermissionCheck("membership_missing")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied: user not in tenant"})
	case errors.As(err, &insufficient):
		prometheus.RecordPermissionCheck("denied")
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":    "permission denied: " + insufficient.Required.String() + " required",
			"required": insufficient.Required.String(),
		})
	default:
		prometheus.RecordPermissionCheck("error")
		log.Error("permission resolution failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "permission check failed"})
	}
}

// resourceFromQuery reads the resource reference from query parameters.
func resourceFromQuery(c echo.Context) (permission.ResourceRef, bool) {
	ref := permission.ResourceRef{
		Type: c.QueryParam("resource_type"),
		ID:   c.QueryParam("resource_id"),
	}
	return ref, ref.Type != "" && ref.ID != ""
}

// GrantPermission upserts a grant on a resource. The caller needs the SHARE
// capability on that resource.
func GrantPermission(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordGrantOperation("grant")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	var req struct {
		ResourceType string     `json:"resource_type"`
		ResourceID   string     `json:"resource_id"`
		GranteeType  string     `json:"grantee_type"`
		GranteeID    string     `json:"grantee_id"`
		Permission   int        `json:"permission"`
		ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse grant request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ResourceType == "" || req.ResourceID == "" || req.GranteeType == "" || req.GranteeID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource and grantee are required"})
	}

	resource := permission.ResourceRef{Type: req.ResourceType, ID: req.ResourceID}

	if err := resolver.Authorize(c.Request().Context(), userID, tc.Tenant.ID, resource, permission.Share); err != nil {
		return writeAuthorizeError(c, log, err)
	}

	grantee := permission.Grantee{Kind: req.GranteeType, ID: req.GranteeID}
	grant, err := grants.Grant(c.Request().Context(), tc.Tenant.ID, resource, grantee,
		permission.Bitmask(req.Permission), userID, req.ExpiresAt)
	if err != nil {
		log.Error("Failed to persist grant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grant failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "Permission granted",
		"permission": grant,
	})
}

// RevokePermission deletes the grant matching the
// (resource_type, resource_id, grantee_type, grantee_id) query key.
func RevokePermission(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordGrantOperation("revoke")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	resource, ok := resourceFromQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_type and resource_id are required"})
	}
	grantee := permission.Grantee{
		Kind: c.QueryParam("grantee_type"),
		ID:   c.QueryParam("grantee_id"),
	}
	if grantee.Kind == "" || grantee.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "grantee_type and grantee_id are required"})
	}

	if err := resolver.Authorize(c.Request().Context(), userID, tc.Tenant.ID, resource, permission.Share); err != nil {
		return writeAuthorizeError(c, log, err)
	}

	revoked, err := grants.Revoke(c.Request().Context(), tc.Tenant.ID, resource, grantee)
	if err != nil {
		log.Error("Failed to revoke grant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	if !revoked {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "permission not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Permission revoked"})
}

// ListResourcePermissions returns the grants attached directly to a resource,
// without any inheritance walk.
func ListResourcePermissions(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordGrantOperation("list")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	resource, ok := resourceFromQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_type and resource_id are required"})
	}

	if err := resolver.Authorize(c.Request().Context(), userID, tc.Tenant.ID, resource, permission.Share); err != nil {
		return writeAuthorizeError(c, log, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	list, err := grants.ListForResource(c.Request().Context(), tc.Tenant.ID, resource)
	if err != nil {
		log.Error("Failed to list grants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"permissions": list})
}

// GetEffectivePermission resolves the caller's effective bitmask on a
// resource without enforcing any requirement.
func GetEffectivePermission(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	resource, ok := resourceFromQuery(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_type and resource_id are required"})
	}

	defer prometheus.TrackResolution()()
	effective, err := resolver.EffectivePermission(c.Request().Context(), userID, tc.Tenant.ID, resource)
	if err != nil {
		log.Error("Effective permission resolution failed", zap.Error(err))
		prometheus.RecordPermissionCheck("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "permission check failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"permission":        int(effective),
		"permission_string": effective.String(),
	})
}

// CheckPermission reports whether the caller holds the required capability on
// a resource.
func CheckPermission(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	var req struct {
		ResourceType string `json:"resource_type"`
		ResourceID   string `json:"resource_id"`
		Required     int    `json:"required"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse check request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ResourceType == "" || req.ResourceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_type and resource_id are required"})
	}

	resource := permission.ResourceRef{Type: req.ResourceType, ID: req.ResourceID}
	required := permission.Bitmask(req.Required)

	defer prometheus.TrackResolution()()
	err := resolver.Authorize(c.Request().Context(), userID, tc.Tenant.ID, resource, required)
	if err != nil {
		var insufficient *permission.InsufficientError
		if errors.Is(err, permission.ErrMembershipMissing) || errors.As(err, &insufficient) {
			prometheus.RecordPermissionCheck("denied")
			return c.JSON(http.StatusOK, echo.Map{
				"allowed":  false,
				"required": required.String(),
			})
		}
		log.Error("permission check failed", zap.Error(err))
		prometheus.RecordPermissionCheck("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "permission check failed"})
	}

	prometheus.RecordPermissionCheck("allowed")
	return c.JSON(http.StatusOK, echo.Map{
		"allowed":  true,
		"required": required.String(),
	})
}
