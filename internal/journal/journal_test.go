package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gotn-ai/gotn/internal/model"
)

func TestAppendAndReplay_ChainIsValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")

	j, err := Open(path)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := j.Append(model.EntryNodeStored, map[string]interface{}{"id": "node-" + string(rune('a'+i))})
		require.NoError(t, err)
	}

	result, err := j.Replay()
	require.NoError(t, err)
	require.Len(t, result.ValidEntries, 5)
	require.Empty(t, result.ChainBreaks)
	require.Zero(t, result.CorruptLines)
}

func TestReplay_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")

	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.Append(model.EntryNodeStored, map[string]interface{}{"id": "n1"})
	require.NoError(t, err)

	first, err := j.Replay()
	require.NoError(t, err)
	second, err := j.Replay()
	require.NoError(t, err)

	require.Equal(t, first.ValidEntries[0].Hash, second.ValidEntries[0].Hash)
}

func TestReplay_SkipsCorruptLinesButKeepsValidOnes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")

	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.Append(model.EntryNodeStored, map[string]interface{}{"id": "n1"})
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json at all\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err := j.Replay()
	require.NoError(t, err)
	require.Len(t, result.ValidEntries, 1)
	require.Equal(t, 1, result.CorruptLines)
}
