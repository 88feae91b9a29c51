package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate(context.Background()))

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roster.db")
	ctx := context.Background()
	log := logging.New(nil, "silent")

	db, err := Open(ctx, path, log)
	require.NoError(t, err)
	require.NoError(t, NewRoster(db).Add(ctx, domain.Member{ID: "alice", Email: "alice@co.com"}))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path, log)
	require.NoError(t, err)
	defer db.Close()
	members, err := NewRoster(db).ListMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{{ID: "alice", Email: "alice@co.com"}}, members)
}

func TestRoster_AddListRemove(t *testing.T) {
	r := NewRoster(testDB(t))
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, domain.Member{ID: "bob", Name: "Bob", Email: "bob@co.com"}))
	require.NoError(t, r.Add(ctx, domain.Member{ID: "alice", Name: "Alice", Email: "alice@co.com"}))
	require.NoError(t, r.Add(ctx, domain.Member{ID: "bob", Name: "Robert", Email: "rob@co.com"}))

	members, err := r.ListMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{
		{ID: "bob", Name: "Robert", Email: "rob@co.com"},
		{ID: "alice", Name: "Alice", Email: "alice@co.com"},
	}, members, "insertion order survives updates")

	require.NoError(t, r.Remove(ctx, "bob"))
	assert.ErrorIs(t, r.Remove(ctx, "bob"), ErrMemberNotFound)

	members, err = r.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRoster_AddRequiresID(t *testing.T) {
	r := NewRoster(testDB(t))
	assert.Error(t, r.Add(context.Background(), domain.Member{Email: "x@y.z"}))
}

func TestRoster_Import(t *testing.T) {
	r := NewRoster(testDB(t))
	ctx := context.Background()

	n, err := r.Import(ctx, strings.NewReader(`
members:
  - id: alice
    name: Alice
    email: alice@co.com
  - id: bob
    email: bob@co.com
`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	members, err := r.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice@co.com", members[0].Email)
	assert.Equal(t, "bob", members[1].ID)
}

func TestRoster_ImportRollsBack(t *testing.T) {
	r := NewRoster(testDB(t))
	ctx := context.Background()

	_, err := r.Import(ctx, strings.NewReader(`
members:
  - id: alice
    email: alice@co.com
  - email: nobody@co.com
`))
	require.Error(t, err)

	members, err := r.ListMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestRoster_ImportEmpty(t *testing.T) {
	n, err := NewRoster(testDB(t)).Import(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRoster_ImportInvalidYAML(t *testing.T) {
	_, err := NewRoster(testDB(t)).Import(context.Background(), strings.NewReader("members: [unclosed"))
	assert.Error(t, err)
}
