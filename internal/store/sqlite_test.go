package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisee/polisee-cli/internal/config"
	"github.com/polisee/polisee-cli/internal/model"
)

func configFor(driver, url string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, DatabaseURL: url}
}

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testPolicies() []model.Policy {
	premium := 125.5
	return []model.Policy{
		{
			BatchID:        "b1",
			Category:       "בריאות",
			IdentityNumber: "012345678",
			MainBranch:     "בריאות",
			SubBranch:      "שיניים",
			Company:        "הראל",
			PremiumNIS:     &premium,
			PremiumType:    "חודשית",
			PolicyNumber:   "P1",
		},
		{
			BatchID:      "b1",
			Category:     "רכב",
			Company:      "כלל",
			PolicyNumber: "P2",
		},
	}
}

func TestSQLiteStore_ReplaceAndList(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := s.ReplacePolicies(ctx, "user-1", testPolicies())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	policies, err := s.ListPolicies(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, policies, 2)

	// ordered by category: בריאות before רכב
	assert.Equal(t, "P1", policies[0].PolicyNumber)
	assert.Equal(t, "user-1", policies[0].UserID)
	assert.NotEmpty(t, policies[0].ID)
	require.NotNil(t, policies[0].PremiumNIS)
	assert.InDelta(t, 125.5, *policies[0].PremiumNIS, 0.001)
	assert.Nil(t, policies[1].PremiumNIS)
}

func TestSQLiteStore_ReplaceDiscardsPreviousSnapshot(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.ReplacePolicies(ctx, "user-1", testPolicies())
	require.NoError(t, err)

	replacement := []model.Policy{{BatchID: "b2", Category: "דירה", PolicyNumber: "P9"}}
	n, err := s.ReplacePolicies(ctx, "user-1", replacement)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	policies, err := s.ListPolicies(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "P9", policies[0].PolicyNumber)
	assert.Equal(t, "b2", policies[0].BatchID)
}

func TestSQLiteStore_UserScoping(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.ReplacePolicies(ctx, "user-1", testPolicies())
	require.NoError(t, err)
	_, err = s.ReplacePolicies(ctx, "user-2", testPolicies()[:1])
	require.NoError(t, err)

	one, err := s.ListPolicies(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, one, 2)

	two, err := s.ListPolicies(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, two, 1)

	// clearing one user leaves the other untouched
	deleted, err := s.DeletePolicies(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	two, err = s.ListPolicies(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, two, 1)
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)

	policies, err := s.ListPolicies(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), configFor("mysql", "dsn"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), configFor("sqlite", filepath.Join(t.TempDir(), "open.db")))
	require.NoError(t, err)
	defer s.Close()

	policies, err := s.ListPolicies(context.Background(), "u")
	require.NoError(t, err)
	assert.Empty(t, policies)
}
