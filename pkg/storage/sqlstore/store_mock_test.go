package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/userdeck/pkg/profiles"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(NewConnectionManagerFromDB(Postgres, db)), mock
}

func TestStore_Mock_CreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"handle", "profiles_handle_key", profiles.ErrHandleTaken},
		{"primary key", "profiles_pkey", profiles.ErrAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec("INSERT INTO profiles").
				WithArgs("u1", "u1@example.com", "User u1", "@alice", "user", true).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			err := store.Create(context.Background(), newProfile("u1", "@alice"))
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Mock_CreateReadsCommitTimestamps(t *testing.T) {
	store, mock := newMockStore(t)
	committed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, last_login_at FROM profiles WHERE id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "last_login_at"}).AddRow(committed, committed))

	p := newProfile("u1", "@alice")
	require.NoError(t, store.Create(context.Background(), p))
	assert.Equal(t, committed, p.CreatedAt)
	assert.Equal(t, committed, p.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Mock_ListBuildsFilteredQuery(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	active := true

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, email, full_name, handle, role, active, created_at, last_login_at FROM profiles ` +
			`WHERE active = $1 AND handle COLLATE "C" >= $2 AND handle COLLATE "C" < $3 ` +
			`ORDER BY created_at DESC, id DESC`)).
		WithArgs(true, "@al", "@al\uf8ff").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "handle", "role", "active", "created_at", "last_login_at"}).
			AddRow("u2", "u2@example.com", "Alice", "@alice", "admin", true, now, now))

	result, err := store.List(context.Background(), profiles.ListQuery{
		Prefix:     "@al",
		Active:     &active,
		Sort:       profiles.SortCreatedAt,
		Descending: true,
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, profiles.RoleAdmin, result[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Mock_ListPropagatesErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM profiles").WillReturnError(errors.New("connection reset"))

	_, err := store.List(context.Background(), profiles.ListQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, errors.Is(err, profiles.ErrNotFound))
}

func TestStore_Mock_PromoteChecksExistence(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET role = $1 WHERE id = $2 AND role = $3")).
		WithArgs("admin", "ghost", "user").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM profiles WHERE id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	err := store.PromoteToAdmin(context.Background(), "ghost")
	assert.ErrorIs(t, err, profiles.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Mock_GetStoreError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id").
		WithArgs("u1").
		WillReturnError(errors.New("timeout"))

	_, err := store.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, profiles.ErrNotFound)
}

func TestParseReplicaURLs(t *testing.T) {
	assert.Nil(t, ParseReplicaURLs(""))
	assert.Equal(t, []string{"postgres://a", "postgres://b"}, ParseReplicaURLs(" postgres://a, ,postgres://b "))
}

func TestConnectionManager_ReplicaFallsBackToPrimary(t *testing.T) {
	primary, _, err := sqlmock.New()
	require.NoError(t, err)
	defer primary.Close()

	cm := NewConnectionManagerFromDB(Postgres, primary)
	assert.Same(t, primary, cm.Replica())

	r1, _, err := sqlmock.New()
	require.NoError(t, err)
	defer r1.Close()
	r2, _, err := sqlmock.New()
	require.NoError(t, err)
	defer r2.Close()

	cm = NewConnectionManagerFromDB(Postgres, primary, r1, r2)
	first, second := cm.Replica(), cm.Replica()
	assert.NotSame(t, first, second)
	assert.NotSame(t, primary, first)
}

func TestConnectionManager_HealthCheck(t *testing.T) {
	primary, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer primary.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	cm := NewConnectionManagerFromDB(Postgres, primary)

	err = cm.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary unhealthy")
}
