package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRecentRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")
	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	id, err := store.Save(RunRecord{
		BaselineLabel:     "v1.0.0",
		CurrentLabel:      "v1.1.0-dev",
		Failed:            1,
		Passed:            4,
		MaxRequiredUpdate: "major",
		Findings: []FindingRecord{
			{RuleID: "fn_became_unsafe", LintLevel: "deny", RequiredUpdate: "major", Message: "function connect became unsafe"},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	runs, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "v1.0.0", runs[0].BaselineLabel)
	require.Len(t, runs[0].Findings, 1)
	assert.Equal(t, "fn_became_unsafe", runs[0].Findings[0].RuleID)
}

func TestRecentRespectsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")
	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 3; i++ {
		_, err := store.Save(RunRecord{BaselineLabel: "v1", CurrentLabel: "v2"})
		require.NoError(t, err)
	}

	runs, err := store.Recent(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
