package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndVerify(t *testing.T) {
	s := openStore(t)

	first, err := s.Append("cardiac_arrest_T4_s42", "run-1", "openai/gpt-5.2", "hash-a", 160, []byte(`{"run":"1"}`))
	require.NoError(t, err)
	assert.Empty(t, first.PrevHash)
	assert.NotEmpty(t, first.Hash)
	assert.NotEmpty(t, first.TranscriptHash)

	second, err := s.Append("cardiac_arrest_T4_s42", "run-2", "openai/gpt-5.2", "hash-a", 160, []byte(`{"run":"2"}`))
	require.NoError(t, err)
	assert.Equal(t, first.Hash, second.PrevHash)

	require.NoError(t, s.Verify())
}

func TestVerifyDetectsTampering(t *testing.T) {
	s := openStore(t)

	_, err := s.Append("scenario", "run-1", "model", "hash", 160, []byte(`{}`))
	require.NoError(t, err)
	_, err = s.Append("scenario", "run-2", "model", "hash", 160, []byte(`{}`))
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE runs SET agent_model = 'swapped' WHERE run_id = 'run-1'`)
	require.NoError(t, err)

	err = s.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash mismatch")
}

func TestDuplicateRunRejected(t *testing.T) {
	s := openStore(t)

	_, err := s.Append("scenario", "run-1", "model", "hash", 160, []byte(`{}`))
	require.NoError(t, err)
	_, err = s.Append("scenario", "run-1", "model", "hash", 160, []byte(`{}`))
	assert.Error(t, err)
}
