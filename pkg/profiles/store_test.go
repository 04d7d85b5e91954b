package profiles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortField(t *testing.T) {
	tests := []struct {
		in      string
		want    SortField
		wantErr bool
	}{
		{"", SortHandle, false},
		{"username", SortHandle, false},
		{"name", SortFullName, false},
		{"fullName", SortFullName, false},
		{"createdAt", SortCreatedAt, false},
		{"lastLoginAt", SortLastLoginAt, false},
		{"email", SortEmail, false},
		{"role", SortRole, false},
		{"password", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortField(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListQuery_Compare(t *testing.T) {
	now := time.Now()
	a := &Profile{ID: "1", Handle: "@a", FullName: "Zed", CreatedAt: now}
	b := &Profile{ID: "2", Handle: "@b", FullName: "Amy", CreatedAt: now}

	assert.Negative(t, ListQuery{}.Compare(a, b))
	assert.Positive(t, ListQuery{Descending: true}.Compare(a, b))
	assert.Positive(t, ListQuery{Sort: SortFullName}.Compare(a, b))

	// equal timestamps fall back to id
	assert.Negative(t, ListQuery{Sort: SortCreatedAt}.Compare(a, b))
}

func TestListQuery_Matches(t *testing.T) {
	inactive := false
	p := &Profile{Handle: "@alice", Active: true}

	assert.True(t, ListQuery{}.Matches(p))
	assert.True(t, ListQuery{Prefix: "@al"}.Matches(p))
	assert.False(t, ListQuery{Prefix: "@b"}.Matches(p))
	assert.False(t, ListQuery{Active: &inactive}.Matches(p))
}
