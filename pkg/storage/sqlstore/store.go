package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/platinummonkey/userdeck/pkg/profiles"
)

const profileColumns = "id, email, full_name, handle, role, active, created_at, last_login_at"

// sortColumns maps wire sort fields to columns
var sortColumns = map[profiles.SortField]string{
	profiles.SortHandle:      "handle",
	profiles.SortFullName:    "full_name",
	profiles.SortEmail:       "email",
	profiles.SortCreatedAt:   "created_at",
	profiles.SortLastLoginAt: "last_login_at",
	profiles.SortRole:        "role",
}

var textColumns = map[string]bool{"handle": true, "full_name": true, "email": true, "role": true}

// Store is a profiles.Store backed by PostgreSQL or SQLite.
// Placeholders are written as $n in increasing order so the same statement
// text runs on both drivers.
type Store struct {
	conns *ConnectionManager
}

// New creates a store over an open connection manager
func New(conns *ConnectionManager) *Store {
	return &Store{conns: conns}
}

// Connections returns the underlying connection manager
func (s *Store) Connections() *ConnectionManager {
	return s.conns
}

// collate makes text comparisons bytewise on PostgreSQL so ordering and
// prefix ranges agree with SQLite and the in-memory store.
func (s *Store) collate(column string) string {
	if s.conns.Dialect() == Postgres && textColumns[column] {
		return column + ` COLLATE "C"`
	}
	return column
}

func (s *Store) Create(ctx context.Context, p *profiles.Profile) error {
	_, err := s.conns.Primary().ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, handle, role, active, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		p.ID, p.Email, p.FullName, p.Handle, string(p.Role), p.Active,
	)
	if err != nil {
		return translateError(err)
	}
	return s.readTimestamps(ctx, p)
}

// readTimestamps loads the commit-assigned timestamps back into p
func (s *Store) readTimestamps(ctx context.Context, p *profiles.Profile) error {
	err := s.conns.Primary().QueryRowContext(ctx,
		"SELECT created_at, last_login_at FROM profiles WHERE id = $1", p.ID,
	).Scan(&p.CreatedAt, &p.LastLoginAt)
	if err != nil {
		return fmt.Errorf("failed to read timestamps: %w", translateError(err))
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.LastLoginAt = p.LastLoginAt.UTC()
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*profiles.Profile, error) {
	row := s.conns.Primary().QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)
	return scanProfile(row)
}

func (s *Store) GetByHandle(ctx context.Context, handle string) (*profiles.Profile, error) {
	row := s.conns.Primary().QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE handle = $1", handle)
	return scanProfile(row)
}

func (s *Store) List(ctx context.Context, q profiles.ListQuery) ([]*profiles.Profile, error) {
	var (
		conds []string
		args  []interface{}
	)
	bind := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Active != nil {
		conds = append(conds, "active = "+bind(*q.Active))
	}
	if q.Prefix != "" {
		lo, hi := profiles.HandleRange(q.Prefix)
		conds = append(conds,
			s.collate("handle")+" >= "+bind(lo),
			s.collate("handle")+" < "+bind(hi),
		)
	}

	field := q.Sort
	if field == "" {
		field = profiles.SortHandle
	}
	column, ok := sortColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sort field %q", profiles.ErrInvalidInput, field)
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	query := "SELECT " + profileColumns + " FROM profiles"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", s.collate(column), direction, direction)

	rows, err := s.conns.Replica().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	result := make([]*profiles.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return result, nil
}

func (s *Store) UpdateDetails(ctx context.Context, id, fullName, handle string) error {
	res, err := s.conns.Primary().ExecContext(ctx,
		"UPDATE profiles SET full_name = $1, handle = $2 WHERE id = $3",
		fullName, handle, id)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.conns.Primary().ExecContext(ctx,
		"UPDATE profiles SET active = $1 WHERE id = $2", active, id)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

// PromoteToAdmin is a single conditional update so concurrent promotions
// cannot interleave a read and a write.
func (s *Store) PromoteToAdmin(ctx context.Context, id string) error {
	res, err := s.conns.Primary().ExecContext(ctx,
		"UPDATE profiles SET role = $1 WHERE id = $2 AND role = $3",
		string(profiles.RoleAdmin), id, string(profiles.RoleUser))
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	// Nothing changed: either already elevated or absent
	var one int
	err = s.conns.Primary().QueryRowContext(ctx, "SELECT 1 FROM profiles WHERE id = $1", id).Scan(&one)
	return translateError(err)
}

func (s *Store) Put(ctx context.Context, p *profiles.Profile) error {
	_, err := s.conns.Primary().ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, handle, role, active, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			full_name = excluded.full_name,
			handle = excluded.handle,
			role = excluded.role,
			active = excluded.active,
			last_login_at = CURRENT_TIMESTAMP`,
		p.ID, p.Email, p.FullName, p.Handle, string(p.Role), p.Active,
	)
	if err != nil {
		return translateError(err)
	}
	return s.readTimestamps(ctx, p)
}

func (s *Store) Counts(ctx context.Context) (profiles.Counts, error) {
	counts := profiles.Counts{ByRole: make(map[profiles.Role]int)}

	rows, err := s.conns.Replica().QueryContext(ctx,
		"SELECT role, active, COUNT(*) FROM profiles GROUP BY role, active")
	if err != nil {
		return counts, fmt.Errorf("failed to count profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role   string
			active bool
			n      int
		)
		if err := rows.Scan(&role, &active, &n); err != nil {
			return counts, fmt.Errorf("failed to scan counts: %w", err)
		}
		counts.Total += n
		if active {
			counts.Active += n
		}
		counts.ByRole[profiles.Role(role)] += n
	}
	return counts, rows.Err()
}

// Close closes all connections
func (s *Store) Close() error {
	return s.conns.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*profiles.Profile, error) {
	var (
		p    profiles.Profile
		role string
	)
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Handle, &role, &p.Active, &p.CreatedAt, &p.LastLoginAt)
	if err != nil {
		return nil, translateError(err)
	}
	p.Role = profiles.Role(role)
	p.CreatedAt = p.CreatedAt.UTC()
	p.LastLoginAt = p.LastLoginAt.UTC()
	return &p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return profiles.ErrNotFound
	}
	return nil
}

// translateError maps driver errors onto the profiles error set
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return profiles.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "handle") {
			return profiles.ErrHandleTaken
		}
		return profiles.ErrAlreadyExists
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		if strings.Contains(liteErr.Error(), "profiles.handle") {
			return profiles.ErrHandleTaken
		}
		if liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || strings.Contains(liteErr.Error(), "profiles.id") {
			return profiles.ErrAlreadyExists
		}
	}
	return err
}
