package entstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ID  string
	Val int
}

func (r rec) RecordID() string { return r.ID }
func (r rec) Clone() rec       { return r }

func Test_Table_Keeps_Order_And_Map_In_Sync_When_Mutated(t *testing.T) {
	t.Parallel()

	tbl := newTable[rec]()

	tbl.reset([]rec{{ID: "a"}, {ID: "b"}})
	tbl.prepend(rec{ID: "c"})

	require.Equal(t, 3, tbl.len())
	require.Equal(t, []string{"c", "a", "b"}, tbl.order)

	// Prepending an existing id swaps the record without duplicating order.
	tbl.prepend(rec{ID: "a", Val: 9})
	require.Equal(t, []string{"c", "a", "b"}, tbl.order)

	got, ok := tbl.get("a")
	require.True(t, ok)
	require.Equal(t, 9, got.Val)

	tbl.remove("a")
	require.Equal(t, []string{"c", "b"}, tbl.order)
	_, ok = tbl.get("a")
	require.False(t, ok)

	// Replace on an absent id must not resurrect a map entry.
	tbl.replace("a", rec{ID: "a"})
	require.Equal(t, 2, tbl.len())

	for _, r := range tbl.list() {
		_, ok := tbl.get(r.ID)
		require.True(t, ok)
	}
}

func Test_Table_Reset_Dedupes_When_Server_List_Has_Duplicates(t *testing.T) {
	t.Parallel()

	tbl := newTable[rec]()
	tbl.reset([]rec{{ID: "a", Val: 1}, {ID: "b"}, {ID: "a", Val: 2}})

	require.Equal(t, []string{"a", "b"}, tbl.order)

	got, _ := tbl.get("a")
	assert.Equal(t, 2, got.Val, "last record wins, first position kept")
}

func Test_Ledger_Begin_Clears_Stale_Error_When_Retried(t *testing.T) {
	t.Parallel()

	l := newLedger()

	l.begin("updateIssue_1")
	l.end("updateIssue_1")
	l.fail("updateIssue_1", "boom")
	l.fail("updateIssue_2", "other")

	require.Equal(t, "boom", l.errorFor("updateIssue_1"))

	// A retry against the same key overwrites the bookkeeping.
	l.begin("updateIssue_1")
	assert.True(t, l.loading("updateIssue_1"))
	assert.Empty(t, l.errorFor("updateIssue_1"))
	assert.Equal(t, "other", l.errorFor("updateIssue_2"), "other keys untouched")

	l.clearAllErrors()
	assert.Empty(t, l.errorFor("updateIssue_2"))
}

func Test_Patch_Compact_Drops_Do_Not_Change_Values_When_Filtered(t *testing.T) {
	t.Parallel()

	p := Patch{
		"title":    "",
		"notes":    nil,
		"status":   "done",
		"priority": 0,
		"dueDate":  NoDue(),
	}

	got := p.compact()

	assert.NotContains(t, got, "title")
	assert.NotContains(t, got, "notes")
	assert.Contains(t, got, "status")
	assert.Contains(t, got, "priority", "zero int is a real value, not a sentinel")
	assert.Contains(t, got, "dueDate", "tagged clear survives filtering")
}

func Test_Policy_Forces_Pessimistic_When_Any_Field_Unsafe(t *testing.T) {
	t.Parallel()

	p := NewPolicy("title", "priority")

	assert.True(t, p.AllowsOptimistic(Patch{"title": "x", "priority": 1}))
	assert.False(t, p.AllowsOptimistic(Patch{"title": "x", "notes": "y"}))
	assert.False(t, Policy{}.AllowsOptimistic(Patch{"title": "x"}), "zero policy is all-pessimistic")
}

func Test_DueDate_Encodes_One_Clear_Sentinel_When_Marshaled(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 14, 15, 9, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-14", DueOn(day).Wire())
	assert.Equal(t, "", NoDue().Wire())
	assert.True(t, NoDue().IsClear())
	assert.False(t, DueOn(day).IsClear())

	raw, err := json.Marshal(Patch{"dueDate": NoDue()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dueDate":""}`, string(raw))
}

func Test_OpKey_Omits_Separator_When_No_Target(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fetchIssues", OpKey("fetchIssues", ""))
	assert.Equal(t, "updateIssue_42", OpKey("updateIssue", "42"))
}
