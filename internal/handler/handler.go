package handler

import (
	"permission-service/internal/permission"
	"permission-service/internal/store"
)

var (
	resolver *permission.Resolver
	grants   *permission.Manager
	st       *store.Store
)

// Initialize wires the handlers to the resolver, the grant manager and the
// store. Called once from main after the database is up.
func Initialize(r *permission.Resolver, m *permission.Manager, s *store.Store) {
	resolver = r
	grants = m
	st = s
}
