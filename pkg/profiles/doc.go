// Package profiles holds the user profile model and the operations on it.
//
// A Profile is keyed by the identity provider's subject id and carries a
// unique handle that is always stored with a single leading "@". Roles are
// ordered user < admin < superadmin and only move upward through Promote.
//
// The Store interface is implemented by MemoryStore in this package and by
// the SQL store in pkg/storage/sqlstore. Service wraps a Store with input
// normalization and is what the HTTP layer calls:
//
//	svc := profiles.NewService(profiles.NewMemoryStore())
//	p, err := svc.Signup(ctx, profiles.SignupInput{ID: uid, Email: email, FullName: name, Handle: "ab"})
//	// p.Handle == "@ab", p.Role == profiles.RoleUser, p.Active == true
package profiles
