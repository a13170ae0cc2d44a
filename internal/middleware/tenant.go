package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"permission-service/internal/model"
	"permission-service/internal/tenant"
	"permission-service/pkg/logger"
	"permission-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// tenantSkipPaths bypass tenant resolution entirely: root, health and
// metrics, API docs, registration/login/"who am I", and platform-admin
// routes, which operate across tenants.
var tenantSkipPaths = []string{
	"/",
	"/health",
	"/metrics",
	"/docs",
	"/auth/register",
	"/auth/login",
	"/auth/me",
	"/api/platform",
}

// MembershipStore looks up the authenticated user's membership so it can ride
// along in the tenant context.
type MembershipStore interface {
	Membership(ctx context.Context, tenantID string, userID uint) (*model.TenantMembership, error)
}

func shouldSkipTenant(path string) bool {
	for _, skip := range tenantSkipPaths {
		if skip == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

// TenantMiddleware resolves the tenant for every request outside the skip
// list, binds it to the request scope and mirrors the tenant id on the
// response. The context is cleared on every exit path, including handler
// errors and panics recovered further up the chain, so a reused worker never
// carries a previous request's tenant.
func TenantMiddleware(resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant.Clear(c)

			path := c.Request().URL.Path
			if shouldSkipTenant(path) {
				return next(c)
			}

			log := logger.FromContext(c)
			identifier := tenant.ExtractIdentifier(c)

			resolved, err := resolver.Resolve(c.Request().Context(), identifier)
			if err != nil {
				switch {
				case errors.Is(err, tenant.ErrTenantNotFound):
					log.Warn("tenant not found", zap.String("identifier", identifier))
					prometheus.RecordTenantResolution("not_found")
					return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
				case errors.Is(err, tenant.ErrTenantInactive):
					log.Warn("tenant not active", zap.String("identifier", identifier))
					prometheus.RecordTenantResolution("inactive")
					return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant is not active"})
				default:
					log.Error("tenant resolution failed", zap.String("identifier", identifier), zap.Error(err))
					prometheus.RecordTenantResolution("error")
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant resolution failed"})
				}
			}

			prometheus.RecordTenantResolution("ok")
			tenant.SetCurrent(c, &tenant.Context{Tenant: resolved})
			c.Response().Header().Set(tenant.HeaderTenantID, resolved.ID)
			defer tenant.Clear(c)

			log.Debug("tenant context set",
				zap.String("tenant_id", resolved.ID),
				zap.String("slug", resolved.Slug),
				zap.String("path", path))

			return next(c)
		}
	}
}

// RequireTenantContext guards tenant-scoped routes: the tenant must have been
// resolved, and the authenticated user's membership is attached to the tenant
// context for downstream handlers. A missing membership is not rejected here;
// the permission resolver reports it as its own failure kind.
func RequireTenantContext(store MembershipStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tc := tenant.Current(c)
			if tc == nil || tc.Tenant == nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
			}

			if userID, ok := c.Get("user_id").(uint); ok {
				membership, err := store.Membership(c.Request().Context(), tc.Tenant.ID, userID)
				if err != nil {
					logger.FromContext(c).Error("membership lookup failed",
						zap.String("tenant_id", tc.Tenant.ID),
						zap.Uint("user_id", userID),
						zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
				}
				tc.Membership = membership
			}

			return next(c)
		}
	}
}
