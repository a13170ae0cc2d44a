package permission

import (
	"context"
	"strconv"

	"permission-service/internal/model"

	"go.uber.org/zap"
)

// maxWalkDepth bounds the parent walk so a malformed or cyclic parent chain
// cannot loop forever.
const maxWalkDepth = 10

// Resolver decides whether a principal holds a required capability on a
// resource. It only reads; every call re-reads the grant set, so results are
// never stale and no invalidation is needed.
type Resolver struct {
	store Store
	log   *zap.Logger
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// Authorize checks the principal against the required capability on the
// resource. The evaluation order is fixed and each step short-circuits:
//
//  1. platform admins pass unconditionally
//  2. a missing active membership fails with ErrMembershipMissing
//  3. the tenant_admin role passes unconditionally within its tenant
//  4. the hierarchy walk resolves the effective bitmask
//  5. the role default bitmask applies when no grant was found
//
// A store failure is returned as a ResolutionError, never as an allow.
func (r *Resolver) Authorize(ctx context.Context, userID uint, tenantID string, resource ResourceRef, required Bitmask) error {
	admin, err := r.store.IsPlatformAdmin(ctx, userID)
	if err != nil {
		return &ResolutionError{Op: "platform admin lookup", Err: err}
	}
	if admin {
		r.log.Info("platform admin access granted", zap.Uint("user_id", userID))
		return nil
	}

	membership, err := r.store.Membership(ctx, tenantID, userID)
	if err != nil {
		return &ResolutionError{Op: "membership lookup", Err: err}
	}
	if membership == nil {
		r.log.Warn("user does not belong to tenant",
			zap.Uint("user_id", userID),
			zap.String("tenant_id", tenantID))
		return ErrMembershipMissing
	}

	if membership.Role != nil && membership.Role.Name == model.TenantAdminRoleName {
		r.log.Info("tenant admin access granted",
			zap.Uint("user_id", userID),
			zap.String("tenant_id", tenantID))
		return nil
	}

	effective, err := r.walk(ctx, tenantID, userID, membership, resource)
	if err != nil {
		return err
	}

	if !Has(effective, required) {
		r.log.Warn("permission denied",
			zap.Uint("user_id", userID),
			zap.String("resource_type", resource.Type),
			zap.String("resource_id", resource.ID),
			zap.String("required", required.String()),
			zap.String("effective", effective.String()))
		return &InsufficientError{Required: required, Effective: effective}
	}
	return nil
}

// EffectivePermission returns the resolved capability bitmask for the
// principal on the resource without enforcing any requirement.
func (r *Resolver) EffectivePermission(ctx context.Context, userID uint, tenantID string, resource ResourceRef) (Bitmask, error) {
	admin, err := r.store.IsPlatformAdmin(ctx, userID)
	if err != nil {
		return None, &ResolutionError{Op: "platform admin lookup", Err: err}
	}
	if admin {
		return Owner, nil
	}

	membership, err := r.store.Membership(ctx, tenantID, userID)
	if err != nil {
		return None, &ResolutionError{Op: "membership lookup", Err: err}
	}
	if membership != nil && membership.Role != nil && membership.Role.Name == model.TenantAdminRoleName {
		return Owner, nil
	}

	return r.walk(ctx, tenantID, userID, membership, resource)
}

// walk climbs the resource hierarchy looking for applicable grants. The first
// level with any live matching grant decides the outcome: the single
// highest-valued bitmask among them, even when lower than a richer ancestor
// grant would have been. With no hit anywhere the role default applies.
func (r *Resolver) walk(ctx context.Context, tenantID string, userID uint, membership *model.TenantMembership, resource ResourceRef) (Bitmask, error) {
	grantees := granteesFor(userID, membership)
	current := resource

	for depth := 0; depth < maxWalkDepth; depth++ {
		grants, err := r.store.GrantsFor(ctx, tenantID, current, grantees)
		if err != nil {
			return None, &ResolutionError{Op: "grant lookup", Err: err}
		}

		best := None
		hit := false
		for i := range grants {
			if grants[i].IsExpired() {
				continue
			}
			hit = true
			if p := Bitmask(grants[i].Permission); p > best {
				best = p
			}
		}
		if hit {
			return best, nil
		}

		parent, err := r.store.ParentOf(ctx, tenantID, current)
		if err != nil {
			return None, &ResolutionError{Op: "parent lookup", Err: err}
		}
		if parent == nil {
			break
		}
		current = *parent
	}

	if membership != nil && membership.Role != nil {
		return Bitmask(membership.Role.Permissions), nil
	}
	return None, nil
}

// granteesFor lists every identity the principal can be granted through: the
// user directly, plus the membership's role and department when assigned.
func granteesFor(userID uint, membership *model.TenantMembership) []Grantee {
	grantees := []Grantee{{Kind: model.GranteeTypeUser, ID: strconv.FormatUint(uint64(userID), 10)}}
	if membership == nil {
		return grantees
	}
	if membership.RoleID != nil {
		grantees = append(grantees, Grantee{Kind: model.GranteeTypeRole, ID: *membership.RoleID})
	}
	if membership.DepartmentID != nil {
		grantees = append(grantees, Grantee{Kind: model.GranteeTypeDepartment, ID: *membership.DepartmentID})
	}
	return grantees
}
