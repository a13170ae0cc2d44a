package permission

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"permission-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store for resolver tests.
type fakeStore struct {
	platformAdmins map[uint]bool
	memberships    map[string]*model.TenantMembership // "tenantID/userID"
	grants         []model.ResourcePermission
	parents        map[string]ResourceRef // "type/id" -> parent
	failOp         string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		platformAdmins: map[uint]bool{},
		memberships:    map[string]*model.TenantMembership{},
		parents:        map[string]ResourceRef{},
	}
}

var errStoreDown = errors.New("connection refused")

func (f *fakeStore) IsPlatformAdmin(_ context.Context, userID uint) (bool, error) {
	if f.failOp == "admin" {
		return false, errStoreDown
	}
	return f.platformAdmins[userID], nil
}

func (f *fakeStore) Membership(_ context.Context, tenantID string, userID uint) (*model.TenantMembership, error) {
	if f.failOp == "membership" {
		return nil, errStoreDown
	}
	return f.memberships[tenantID+"/"+formatUserID(userID)], nil
}

func (f *fakeStore) GrantsFor(_ context.Context, tenantID string, resource ResourceRef, grantees []Grantee) ([]model.ResourcePermission, error) {
	if f.failOp == "grants" {
		return nil, errStoreDown
	}
	var out []model.ResourcePermission
	for i := range f.grants {
		g := &f.grants[i]
		if g.TenantID != tenantID || g.ResourceType != resource.Type || g.ResourceID != resource.ID {
			continue
		}
		for _, grantee := range grantees {
			if grantee.Matches(g) {
				out = append(out, *g)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ParentOf(_ context.Context, _ string, resource ResourceRef) (*ResourceRef, error) {
	if f.failOp == "parent" {
		return nil, errStoreDown
	}
	if parent, ok := f.parents[resource.Type+"/"+resource.ID]; ok {
		p := parent
		return &p, nil
	}
	return nil, nil
}

func formatUserID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func memberWithRole(tenantID string, userID uint, roleName string, rolePerms Bitmask) *model.TenantMembership {
	roleID := "role-" + roleName
	return &model.TenantMembership{
		TenantID: tenantID,
		UserID:   userID,
		RoleID:   &roleID,
		Status:   model.MembershipStatusActive,
		Role: &model.TenantRole{
			ID:          roleID,
			TenantID:    tenantID,
			Name:        roleName,
			Permissions: int(rolePerms),
		},
	}
}

const testTenant = "11111111-1111-1111-1111-111111111111"

func userGrant(resource ResourceRef, userID uint, mask Bitmask) model.ResourcePermission {
	return model.ResourcePermission{
		TenantID:     testTenant,
		ResourceType: resource.Type,
		ResourceID:   resource.ID,
		GranteeType:  model.GranteeTypeUser,
		GranteeID:    formatUserID(userID),
		Permission:   int(mask),
	}
}

func TestAuthorizePlatformAdminBypassesEverything(t *testing.T) {
	store := newFakeStore()
	store.platformAdmins[42] = true
	r := NewResolver(store, nil)

	// tenant does not exist, no membership, no grants
	err := r.Authorize(context.Background(), 42, "no-such-tenant",
		ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}, Owner)
	assert.NoError(t, err)

	effective, err := r.EffectivePermission(context.Background(), 42, "no-such-tenant",
		ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, Owner, effective)
}

func TestAuthorizeTenantAdminBypassesGrants(t *testing.T) {
	store := newFakeStore()
	store.memberships[testTenant+"/7"] = memberWithRole(testTenant, 7, model.TenantAdminRoleName, Owner)
	r := NewResolver(store, nil)

	err := r.Authorize(context.Background(), 7, testTenant,
		ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}, Owner)
	assert.NoError(t, err)

	effective, err := r.EffectivePermission(context.Background(), 7, testTenant,
		ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, Owner, effective)
}

func TestAuthorizeMissingMembershipFailsEvenWithGrants(t *testing.T) {
	store := newFakeStore()
	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	store.grants = append(store.grants, userGrant(doc, 9, Owner))
	r := NewResolver(store, nil)

	err := r.Authorize(context.Background(), 9, testTenant, doc, Read)
	assert.ErrorIs(t, err, ErrMembershipMissing)
}

func TestEffectivePermissionWithoutMembership(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, nil)

	// unlike Authorize, the read-only query reports NONE instead of failing
	effective, err := r.EffectivePermission(context.Background(), 9, testTenant,
		ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, None, effective)
}

func TestWalkInheritsFromParentFolder(t *testing.T) {
	store := newFakeStore()
	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	folder := ResourceRef{Type: model.ResourceTypeFolder, ID: "folder-1"}
	store.memberships[testTenant+"/5"] = memberWithRole(testTenant, 5, "member", None)
	store.parents["document/doc-1"] = folder
	store.grants = append(store.grants, userGrant(folder, 5, Reader))
	r := NewResolver(store, nil)

	effective, err := r.EffectivePermission(context.Background(), 5, testTenant, doc)
	require.NoError(t, err)
	assert.Equal(t, Reader, effective)

	assert.NoError(t, r.Authorize(context.Background(), 5, testTenant, doc, Read))
	assert.Error(t, r.Authorize(context.Background(), 5, testTenant, doc, Write))
}

func TestWalkStopsAtFirstHit(t *testing.T) {
	store := newFakeStore()
	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	folder := ResourceRef{Type: model.ResourceTypeFolder, ID: "folder-1"}
	store.memberships[testTenant+"/5"] = memberWithRole(testTenant, 5, "member", None)
	store.parents["document/doc-1"] = folder

	// a narrow grant on the document shadows a rich grant on its folder
	store.grants = append(store.grants,
		userGrant(doc, 5, Read),
		userGrant(folder, 5, Owner))
	r := NewResolver(store, nil)

	effective, err := r.EffectivePermission(context.Background(), 5, testTenant, doc)
	require.NoError(t, err)
	assert.Equal(t, Read, effective)
}

func TestWalkPicksHighestMaskAtSameLevel(t *testing.T) {
	store := newFakeStore()
	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	m := memberWithRole(testTenant, 5, "member", None)
	store.memberships[testTenant+"/5"] = m

	roleGrant := model.ResourcePermission{
		TenantID:     testTenant,
		ResourceType: doc.Type,
		ResourceID:   doc.ID,
		GranteeType:  model.GranteeTypeRole,
		GranteeID:    *m.RoleID,
		Permission:   int(Editor),
	}
	store.grants = append(store.grants, userGrant(doc, 5, Reader), roleGrant)
	r := NewResolver(store, nil)

	effective, err := r.EffectivePermission(context.Background(), 5, testTenant, doc)
	require.NoError(t, err)
	assert.Equal(t, Editor, effective)
}

func TestExpiredGrantFallsBackToRoleDefault(t *testing.T) {
	store := newFakeStore()
	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	store.memberships[testTenant+"/5"] = memberWithRole(testTenant, 5, "member", Reader)

	expired := userGrant(doc, 5, Owner)
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past
	store.grants = append(store.grants, expired)
	r := NewResolver(store, nil)

	effective, err := r.EffectivePermission(context.Background(), 5, testTenant, doc)
	require.NoError(t, err)
	assert.Equal(t, Reader, effective)
}

func TestWalkTerminatesOnCyclicParentChain(t *testing.T) {
	store := newFakeStore()
	store.memberships[testTenant+"/5"] = memberWithRole(testTenant, 5, "member", Reader)
	store.parents["folder/a"] = ResourceRef{Type: model.ResourceTypeFolder, ID: "b"}
	store.parents["folder/b"] = ResourceRef{Type: model.ResourceTypeFolder, ID: "a"}
	r := NewResolver(store, nil)

	effective, err := r.EffectivePermission(context.Background(), 5, testTenant,
		ResourceRef{Type: model.ResourceTypeFolder, ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, Reader, effective)
}

func TestRoleDefaultAppliesWithoutGrants(t *testing.T) {
	store := newFakeStore()
	store.memberships[testTenant+"/5"] = memberWithRole(testTenant, 5, "editor", Editor)
	r := NewResolver(store, nil)

	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	effective, err := r.EffectivePermission(context.Background(), 5, testTenant, doc)
	require.NoError(t, err)
	assert.Equal(t, Editor, effective)

	assert.NoError(t, r.Authorize(context.Background(), 5, testTenant, doc, Write))
}

func TestMemberWithoutRoleResolvesToNone(t *testing.T) {
	store := newFakeStore()
	store.memberships[testTenant+"/5"] = &model.TenantMembership{
		TenantID: testTenant,
		UserID:   5,
		Status:   model.MembershipStatusActive,
	}
	r := NewResolver(store, nil)

	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	effective, err := r.EffectivePermission(context.Background(), 5, testTenant, doc)
	require.NoError(t, err)
	assert.Equal(t, None, effective)

	err = r.Authorize(context.Background(), 5, testTenant, doc, Read)
	var insufficient *InsufficientError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, Read, insufficient.Required)
	assert.Equal(t, None, insufficient.Effective)
}

func TestInsufficientErrorMessageNamesRequirement(t *testing.T) {
	err := &InsufficientError{Required: Share, Effective: Reader}
	assert.Equal(t, "permission denied: SHARE required", err.Error())
}

func TestStoreFailureFailsClosed(t *testing.T) {
	for _, op := range []string{"admin", "membership", "grants", "parent"} {
		store := newFakeStore()
		store.memberships[testTenant+"/5"] = memberWithRole(testTenant, 5, "member", Reader)
		store.failOp = op
		r := NewResolver(store, nil)

		err := r.Authorize(context.Background(), 5, testTenant,
			ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}, Read)
		var re *ResolutionError
		assert.ErrorAs(t, err, &re, "op %s", op)
		assert.ErrorIs(t, err, errStoreDown, "op %s", op)
	}
}
