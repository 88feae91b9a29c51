package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soyeahso/standupbot/internal/domain"
)

// ErrMemberNotFound is returned when removing an unknown member.
var ErrMemberNotFound = errors.New("member not found")

const upsertMember = `
	INSERT INTO members (id, name, email) VALUES (?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email
`

// Roster is the member directory for platforms without one of their own.
// Members are listed in the order they were first added.
type Roster struct {
	db *DB
}

// NewRoster creates a roster over db.
func NewRoster(db *DB) *Roster {
	return &Roster{db: db}
}

// Add inserts a member or updates the name and email of an existing one.
func (r *Roster) Add(ctx context.Context, m domain.Member) error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("member id is required")
	}
	_, err := r.db.sql.ExecContext(ctx, upsertMember, m.ID, m.Name, m.Email)
	if err != nil {
		return fmt.Errorf("saving member %s: %w", m.ID, err)
	}
	return nil
}

// Remove deletes a member by id.
func (r *Roster) Remove(ctx context.Context, id string) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("removing member %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing member %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrMemberNotFound)
	}
	return nil
}

// ListMembers returns every member in insertion order.
func (r *Roster) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.sql.QueryContext(ctx, "SELECT id, name, email FROM members ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rosterFile struct {
	Members []domain.Member `yaml:"members"`
}

// Import reads a YAML document of the form
//
//	members:
//	  - id: alice
//	    name: Alice
//	    email: alice@example.com
//
// and adds every member in one transaction. It returns the number imported.
func (r *Roster) Import(ctx context.Context, src io.Reader) (int, error) {
	var file rosterFile
	if err := yaml.NewDecoder(src).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("parsing roster: %w", err)
	}

	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for i, m := range file.Members {
		if strings.TrimSpace(m.ID) == "" {
			return 0, fmt.Errorf("member %d: id is required", i)
		}
		if _, err := tx.ExecContext(ctx, upsertMember, m.ID, m.Name, m.Email); err != nil {
			return 0, fmt.Errorf("importing member %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(file.Members), nil
}
