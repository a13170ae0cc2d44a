package permission

import (
	"context"
	"testing"
	"time"

	"permission-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGrantStore implements GrantStore with the same key semantics as the
// database unique index.
type fakeGrantStore struct {
	rows []model.ResourcePermission
}

func (f *fakeGrantStore) key(p *model.ResourcePermission) string {
	return p.TenantID + "/" + p.ResourceType + "/" + p.ResourceID + "/" + p.GranteeType + "/" + p.GranteeID
}

func (f *fakeGrantStore) Upsert(_ context.Context, grant *model.ResourcePermission) error {
	for i := range f.rows {
		if f.key(&f.rows[i]) == f.key(grant) {
			f.rows[i].Permission = grant.Permission
			f.rows[i].GrantedBy = grant.GrantedBy
			f.rows[i].GrantedAt = grant.GrantedAt
			f.rows[i].ExpiresAt = grant.ExpiresAt
			return nil
		}
	}
	f.rows = append(f.rows, *grant)
	return nil
}

func (f *fakeGrantStore) Delete(_ context.Context, tenantID string, resource ResourceRef, grantee Grantee) (bool, error) {
	for i := range f.rows {
		r := &f.rows[i]
		if r.TenantID == tenantID && r.ResourceType == resource.Type && r.ResourceID == resource.ID &&
			grantee.Matches(r) {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGrantStore) ListForResource(_ context.Context, tenantID string, resource ResourceRef) ([]model.ResourcePermission, error) {
	var out []model.ResourcePermission
	for i := range f.rows {
		r := f.rows[i]
		if r.TenantID == tenantID && r.ResourceType == resource.Type && r.ResourceID == resource.ID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestGrantCreatesAndOverwrites(t *testing.T) {
	store := &fakeGrantStore{}
	m := NewManager(store, nil)

	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	alice := Grantee{Kind: model.GranteeTypeUser, ID: "5"}

	first, err := m.Grant(context.Background(), testTenant, doc, alice, Reader, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int(Reader), first.Permission)
	assert.Len(t, store.rows, 1)

	// granting again on the same key overwrites in place
	expiry := time.Now().Add(time.Hour)
	second, err := m.Grant(context.Background(), testTenant, doc, alice, Editor, 2, &expiry)
	require.NoError(t, err)
	assert.Equal(t, int(Editor), second.Permission)
	require.Len(t, store.rows, 1)
	assert.Equal(t, int(Editor), store.rows[0].Permission)
	assert.Equal(t, uint(2), *store.rows[0].GrantedBy)
	assert.NotNil(t, store.rows[0].ExpiresAt)
}

func TestGrantSeparateKeysCoexist(t *testing.T) {
	store := &fakeGrantStore{}
	m := NewManager(store, nil)

	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	_, err := m.Grant(context.Background(), testTenant, doc,
		Grantee{Kind: model.GranteeTypeUser, ID: "5"}, Reader, 1, nil)
	require.NoError(t, err)
	_, err = m.Grant(context.Background(), testTenant, doc,
		Grantee{Kind: model.GranteeTypeRole, ID: "role-editor"}, Editor, 1, nil)
	require.NoError(t, err)

	list, err := m.ListForResource(context.Background(), testTenant, doc)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRevokeReportsExistence(t *testing.T) {
	store := &fakeGrantStore{}
	m := NewManager(store, nil)

	doc := ResourceRef{Type: model.ResourceTypeDocument, ID: "doc-1"}
	alice := Grantee{Kind: model.GranteeTypeUser, ID: "5"}

	revoked, err := m.Revoke(context.Background(), testTenant, doc, alice)
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = m.Grant(context.Background(), testTenant, doc, alice, Reader, 1, nil)
	require.NoError(t, err)

	revoked, err = m.Revoke(context.Background(), testTenant, doc, alice)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Empty(t, store.rows)
}
