// Package tenant resolves the tenant for an inbound request and carries it as
// request-scoped state for the rest of the request.
package tenant

import (
	"context"

	"permission-service/internal/model"

	"github.com/labstack/echo/v4"
)

// contextKey is the echo context key the request-scoped tenant context is
// stored under.
const contextKey = "tenant_context"

type ctxKey struct{}

// Context holds the resolved tenant and, once authentication has run, the
// principal's membership in it. It lives exactly as long as one request: the
// middleware sets it after resolution and clears it on every exit path, so a
// reused worker never observes a previous request's tenant.
type Context struct {
	Tenant     *model.Tenant
	Membership *model.TenantMembership
}

// SetCurrent binds the tenant context to the request.
func SetCurrent(c echo.Context, tc *Context) {
	c.Set(contextKey, tc)
}

// Current returns the request's tenant context, or nil when no tenant was
// resolved (skip-listed paths).
func Current(c echo.Context) *Context {
	tc, _ := c.Get(contextKey).(*Context)
	return tc
}

// Clear removes the tenant context from the request.
func Clear(c echo.Context) {
	c.Set(contextKey, (*Context)(nil))
}

// WithContext attaches the tenant context to a context.Context for call paths
// that leave the HTTP layer.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext returns the tenant context carried by ctx, or nil.
func FromContext(ctx context.Context) *Context {
	tc, _ := ctx.Value(ctxKey{}).(*Context)
	return tc
}
