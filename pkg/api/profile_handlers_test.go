package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/userdeck/pkg/middleware"
	"github.com/platinummonkey/userdeck/pkg/profiles"
)

func signupBody(uid, username string) map[string]string {
	return map[string]string{
		"uid":      uid,
		"email":    uid + "@example.com",
		"fullName": "New " + uid,
		"username": username,
	}
}

func TestSignup(t *testing.T) {
	store := seedProfiles(t)
	srv := newTestServer(t, store)

	rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", signupBody("newbie", "@@newbie"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "User document created successfully.", message(t, rec))

	p, err := store.Get(context.Background(), "newbie")
	require.NoError(t, err)
	assert.Equal(t, "@newbie", p.Handle)
	assert.Equal(t, profiles.RoleUser, p.Role)
	assert.True(t, p.Active)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.LastLoginAt)
}

func TestSignup_Conflicts(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", signupBody("user1", "fresh"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgProfileExists, message(t, rec))

	rec = do(t, srv, http.MethodPost, "/api/auth/signup", "", signupBody("fresh", "user1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, msgHandleTaken, message(t, rec))
}

func TestSignup_Validation(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "not-an-email",
		"fullName": "  ",
		"username": "@",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := fieldErrors(t, rec)
	require.Len(t, body.Errors, 4)
	paths := make([]string, 0, len(body.Errors))
	for _, e := range body.Errors {
		paths = append(paths, e.Path)
		assert.Equal(t, "field", e.Type)
		assert.Equal(t, "body", e.Location)
	}
	assert.Equal(t, []string{"uid", "email", "fullName", "username"}, paths)
	assert.Equal(t, "UID is required", body.Errors[0].Msg)
	assert.Equal(t, "Must be a valid email address", body.Errors[1].Msg)
	assert.Equal(t, "not-an-email", body.Errors[1].Value)
}

func TestSignup_MalformedBody(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body.", message(t, rec))
}

func TestSignup_RateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Limit: 2, Window: time.Hour})
	srv := newTestServer(t, seedProfiles(t), func(d *Dependencies) {
		d.SignupLimiter = limiter
		d.SignupWindow = time.Hour
	})

	for i := 0; i < 2; i++ {
		uid := "burst" + strconv.Itoa(i)
		rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", signupBody(uid, uid))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("RateLimit-Limit"))
	}

	rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", signupBody("burst2", "burst2"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests from this IP, please try again after 1 hour", message(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))

	// Other routes are not limited
	rec = do(t, srv, http.MethodGet, "/api/users/check-username?username=burst9", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckUsername(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	tests := []struct {
		name      string
		query     string
		status    int
		available bool
	}{
		{"free", "?username=fresh", http.StatusOK, true},
		{"taken", "?username=user1", http.StatusOK, false},
		{"taken with prefix", "?username=%40%40user1", http.StatusOK, false},
		{"case sensitive", "?username=USER1", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/users/check-username"+tt.query, "", nil)
			require.Equal(t, tt.status, rec.Code)
			var body AvailabilityResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.available, body.Available)
		})
	}
}

func TestCheckUsername_Invalid(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodGet, "/api/users/check-username", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgUsernameRequired, message(t, rec))

	rec = do(t, srv, http.MethodGet, "/api/users/check-username?username=%40%40", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgUsernameRequired, message(t, rec))
}

func TestCheckUsername_AfterSignup(t *testing.T) {
	srv := newTestServer(t, profiles.NewMemoryStore())

	for _, username := range []string{"ab", "abcdefghijklmnopqrstuvwxyz"} {
		rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", signupBody("u-"+username, username))
		require.Equal(t, http.StatusCreated, rec.Code, username)

		rec = do(t, srv, http.MethodGet, "/api/users/check-username?username="+username, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, username)
		var availability AvailabilityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &availability))
		assert.False(t, availability.Available, username)
	}
}

func TestEmailByUsername(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodGet, "/api/users/by-username/user1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body EmailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user1@example.com", body.Email)

	rec = do(t, srv, http.MethodGet, "/api/users/by-username/@user1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/users/by-username/nonexistent", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgUserNotFound, message(t, rec))

	rec = do(t, srv, http.MethodGet, "/api/users/by-username/@", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func listIDs(t *testing.T, srv http.Handler, query string) []string {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/api/users"+query, "admin1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users []profiles.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestListUsers(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	assert.Equal(t, []string{"admin1", "super1", "user1", "user2"}, listIDs(t, srv, ""))
	assert.Equal(t, []string{"user2", "user1", "super1", "admin1"}, listIDs(t, srv, "?order=desc"))
	assert.Equal(t, []string{"user1", "user2"}, listIDs(t, srv, "?q=us"))
	assert.Equal(t, []string{"user1", "user2"}, listIDs(t, srv, "?q=%40user"))
	assert.Equal(t, []string{"user2"}, listIDs(t, srv, "?active=false"))
	assert.Equal(t, []string{"admin1", "super1", "user1"}, listIDs(t, srv, "?active=true"))
	assert.Equal(t, []string{"admin1", "super1", "user1", "user2"}, listIDs(t, srv, "?sort=email"))
	assert.Equal(t, []string{"user2", "user1", "super1", "admin1"}, listIDs(t, srv, "?sort=role&order=desc"))
	assert.Empty(t, listIDs(t, srv, "?q=zzz"))
}

func TestListUsers_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodGet, "/api/users?q=nobody", "super1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListUsers_InvalidQuery(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodGet, "/api/users?active=maybe&sort=shoeSize", "admin1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := fieldErrors(t, rec)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "active", body.Errors[0].Path)
	assert.Equal(t, "sort", body.Errors[1].Path)
}

func TestListUsers_Authorization(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodGet, "/api/users", "user1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgAdminRequired, message(t, rec))

	rec = do(t, srv, http.MethodGet, "/api/users", "ghost", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/users", "super1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUser(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	rec := do(t, srv, http.MethodGet, "/api/users/user1", "user1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p profiles.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "user1", p.ID)
	assert.Equal(t, "@user1", p.Handle)
	assert.Contains(t, rec.Body.String(), `"username":"@user1"`)

	rec = do(t, srv, http.MethodGet, "/api/users/admin1", "user1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgOwnProfileView, message(t, rec))

	rec = do(t, srv, http.MethodGet, "/api/users/user1", "admin1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/users/ghost", "admin1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgUserNotFound, message(t, rec))
}

func TestUpdateUser(t *testing.T) {
	store := seedProfiles(t)
	srv := newTestServer(t, store)

	rec := do(t, srv, http.MethodPut, "/api/users/user1", "user1", map[string]string{
		"fullName": "User Renamed",
		"username": "renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "User updated successfully.", message(t, rec))

	p, err := store.Get(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "User Renamed", p.FullName)
	assert.Equal(t, "@renamed", p.Handle)

	// The old handle is released
	rec = do(t, srv, http.MethodGet, "/api/users/check-username?username=user1", "", nil)
	assert.JSONEq(t, `{"available":true}`, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/api/users/user2", "admin1", map[string]string{
		"fullName": "Edited By Admin",
		"username": "user2",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateUser_Failures(t *testing.T) {
	srv := newTestServer(t, seedProfiles(t))

	// Denied before the body is looked at
	rec := do(t, srv, http.MethodPut, "/api/users/admin1", "user1", map[string]string{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgOwnProfileEdit, message(t, rec))

	rec = do(t, srv, http.MethodPut, "/api/users/user1", "user1", map[string]string{"fullName": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := fieldErrors(t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Username is required", body.Errors[0].Msg)

	rec = do(t, srv, http.MethodPut, "/api/users/user1", "user1", map[string]string{
		"fullName": "User One",
		"username": "@admin1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/users/ghost", "admin1", map[string]string{
		"fullName": "Ghost",
		"username": "ghost",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetActive(t *testing.T) {
	store := seedProfiles(t)
	srv := newTestServer(t, store)
	ctx := context.Background()

	rec := do(t, srv, http.MethodPatch, "/api/users/user1/deactivate", "admin1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deactivated successfully.", message(t, rec))
	p, err := store.Get(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, p.Active)

	rec = do(t, srv, http.MethodPatch, "/api/users/user1/activate", "super1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User activated successfully.", message(t, rec))
	p, err = store.Get(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, p.Active)

	rec = do(t, srv, http.MethodPatch, "/api/users/user1/deactivate", "user1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgAdminRequired, message(t, rec))

	rec = do(t, srv, http.MethodPatch, "/api/users/ghost/activate", "admin1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetActive_DoesNotChangeAuthorization(t *testing.T) {
	store := seedProfiles(t)
	srv := newTestServer(t, store)

	rec := do(t, srv, http.MethodPatch, "/api/users/admin1/deactivate", "super1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/users", "admin1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPromoteUser(t *testing.T) {
	store := seedProfiles(t)
	srv := newTestServer(t, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rec := do(t, srv, http.MethodPost, "/api/users/user1/promote", "super1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User promoted to admin successfully.", message(t, rec))

		p, err := store.Get(ctx, "user1")
		require.NoError(t, err)
		assert.Equal(t, profiles.RoleAdmin, p.Role)
	}

	// A superadmin is never demoted
	rec := do(t, srv, http.MethodPost, "/api/users/super1/promote", "super1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p, err := store.Get(ctx, "super1")
	require.NoError(t, err)
	assert.Equal(t, profiles.RoleSuperadmin, p.Role)

	rec = do(t, srv, http.MethodPost, "/api/users/user2/promote", "admin1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgSuperadminRequired, message(t, rec))

	rec = do(t, srv, http.MethodPost, "/api/users/ghost/promote", "super1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
