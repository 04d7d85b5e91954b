package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeToolkit is a minimal in-memory relying-party API
type fakeToolkit struct {
	mu       sync.Mutex
	accounts []map[string]interface{}
	pageSize int
}

func (f *fakeToolkit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getAccountInfo"):
		emails, _ := req["email"].([]interface{})
		var users []map[string]interface{}
		for _, a := range f.accounts {
			for _, e := range emails {
				if a["email"] == e {
					users = append(users, a)
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"users": users})

	case strings.HasSuffix(r.URL.Path, "/signupNewUser"):
		account := map[string]interface{}{
			"localId":       "generated-" + req["email"].(string),
			"email":         req["email"],
			"displayName":   req["displayName"],
			"emailVerified": req["emailVerified"],
			"createdAt":     "1700000000000",
		}
		f.accounts = append(f.accounts, account)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"localId":     account["localId"],
			"email":       account["email"],
			"displayName": account["displayName"],
		})

	case strings.HasSuffix(r.URL.Path, "/downloadAccount"):
		start := 0
		if tok, ok := req["nextPageToken"].(string); ok && tok != "" {
			start = len(tok)
		}
		end := start + f.pageSize
		if end > len(f.accounts) {
			end = len(f.accounts)
		}
		resp := map[string]interface{}{"users": f.accounts[start:end]}
		if end < len(f.accounts) {
			resp["nextPageToken"] = strings.Repeat("x", end)
		}
		json.NewEncoder(w).Encode(resp)

	default:
		http.NotFound(w, r)
	}
}

func newTestDirectory(t *testing.T, fake *fakeToolkit) *IdentityToolkitDirectory {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dir, err := NewIdentityToolkitDirectory(context.Background(), testProject,
		option.WithEndpoint(srv.URL+"/relyingparty/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return dir
}

func TestIdentityToolkitDirectory_CreateAndLookup(t *testing.T) {
	fake := &fakeToolkit{pageSize: 10}
	dir := newTestDirectory(t, fake)
	ctx := context.Background()

	_, err := dir.LookupByEmail(ctx, "root@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	created, err := dir.CreateAccount(ctx, NewAccount{
		Email:         "root@example.com",
		Password:      "s3cret-pass",
		DisplayName:   "Root",
		EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated-root@example.com", created.UID)
	assert.Equal(t, "Root", created.DisplayName)

	found, err := dir.LookupByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.UID, found.UID)
	assert.True(t, found.EmailVerified)
	assert.Equal(t, int64(1700000000), found.CreatedAt.Unix())
}

func TestIdentityToolkitDirectory_ListPages(t *testing.T) {
	fake := &fakeToolkit{pageSize: 2}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		fake.accounts = append(fake.accounts, map[string]interface{}{"localId": id, "email": id + "@example.com"})
	}
	dir := newTestDirectory(t, fake)

	var seen []string
	require.NoError(t, dir.ListAccounts(context.Background(), func(a *Account) error {
		seen = append(seen, a.UID)
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen)

	stop := assert.AnError
	err := dir.ListAccounts(context.Background(), func(a *Account) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestIdentityToolkitDirectory_ImplementsInterface(t *testing.T) {
	var _ AccountDirectory = (*IdentityToolkitDirectory)(nil)
}
