package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditwatch/creditwatch/internal/domain/model"
)

func trackedItemState(t *testing.T, db *DB, subjectID, creditor, accountNumber string) (balance float64, resolved bool) {
	t.Helper()

	var resolvedAt sql.NullString
	err := db.Reader.QueryRow(`
		SELECT balance, resolved_at FROM tracked_items
		WHERE subject_id = ? AND creditor = ? AND account_number = ?`,
		subjectID, creditor, accountNumber,
	).Scan(&balance, &resolvedAt)
	require.NoError(t, err)
	return balance, resolvedAt.Valid
}

func TestItemRepoSyncInsertsNewItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	items := []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemCollection, Balance: 450, AccountNumber: "****1234", Status: "open"},
		{Creditor: "First Bank", Type: model.ItemChargeOff, Balance: 1200, AccountNumber: "****9876", Status: "charged off"},
	}
	require.NoError(t, repo.SyncItems(context.Background(), "sub-1", model.BureauExperian, items))

	balance, resolved := trackedItemState(t, db, "sub-1", "ABC Collections", "****1234")
	assert.Equal(t, 450.0, balance)
	assert.False(t, resolved)
}

func TestItemRepoSyncUpdatesExistingItem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)
	ctx := context.Background()

	item := model.NegativeItem{Creditor: "ABC Collections", Type: model.ItemCollection, Balance: 450, AccountNumber: "****1234", Status: "open"}
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, []model.NegativeItem{item}))

	item.Balance = 300
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, []model.NegativeItem{item}))

	balance, resolved := trackedItemState(t, db, "sub-1", "ABC Collections", "****1234")
	assert.Equal(t, 300.0, balance)
	assert.False(t, resolved)

	var count int
	require.NoError(t, db.Reader.QueryRow(`SELECT COUNT(*) FROM tracked_items`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestItemRepoSyncResolvesMissingItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)
	ctx := context.Background()

	first := []model.NegativeItem{
		{Creditor: "ABC Collections", Type: model.ItemCollection, Balance: 450, AccountNumber: "****1234", Status: "open"},
		{Creditor: "First Bank", Type: model.ItemChargeOff, Balance: 1200, AccountNumber: "****9876", Status: "charged off"},
	}
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, first))

	// Timestamps are second-resolution-safe via RFC3339Nano, but make the
	// two syncs clearly distinct anyway.
	time.Sleep(10 * time.Millisecond)

	second := first[:1]
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, second))

	_, resolved := trackedItemState(t, db, "sub-1", "ABC Collections", "****1234")
	assert.False(t, resolved)

	_, resolved = trackedItemState(t, db, "sub-1", "First Bank", "****9876")
	assert.True(t, resolved)
}

func TestItemRepoSyncReactivatesResolvedItem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)
	ctx := context.Background()

	item := model.NegativeItem{Creditor: "ABC Collections", Type: model.ItemCollection, Balance: 450, AccountNumber: "****1234", Status: "open"}
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, []model.NegativeItem{item}))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, nil))

	_, resolved := trackedItemState(t, db, "sub-1", "ABC Collections", "****1234")
	require.True(t, resolved)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, []model.NegativeItem{item}))

	_, resolved = trackedItemState(t, db, "sub-1", "ABC Collections", "****1234")
	assert.False(t, resolved)
}

func TestItemRepoSyncScopedToBureau(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)
	ctx := context.Background()

	item := model.NegativeItem{Creditor: "ABC Collections", Type: model.ItemCollection, Balance: 450, AccountNumber: "****1234", Status: "open"}
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauExperian, []model.NegativeItem{item}))
	time.Sleep(10 * time.Millisecond)

	// A sync for another bureau must not resolve Experian's items.
	require.NoError(t, repo.SyncItems(ctx, "sub-1", model.BureauEquifax, nil))

	_, resolved := trackedItemState(t, db, "sub-1", "ABC Collections", "****1234")
	assert.False(t, resolved)
}

func TestAuditRepoRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditRepo(db)

	require.NoError(t, repo.Record(context.Background(), "system", "credit_report.pull", "pull-1", "pulled experian report for sub-1"))

	var actor, action string
	err := db.Reader.QueryRow(`SELECT actor, action FROM audit_log WHERE entity_id = ?`, "pull-1").Scan(&actor, &action)
	require.NoError(t, err)
	assert.Equal(t, "system", actor)
	assert.Equal(t, "credit_report.pull", action)
}
