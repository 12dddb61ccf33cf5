package chat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edalab/edachat/internal/runtime"
)

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(dir, "churn analysis", "openrouter", "openai/gpt-4o-mini")
	s.Transcript().Append(NewTurn("1", RoleUser, "hello"))
	reply := NewTurn("2", RoleAssistant, "Hi.\n\n```python\ndef eda_function(sales):\n    return 1\n```")
	reply.CodeBlocks()[0].Outputs = []runtime.Output{{Kind: runtime.KindValue, Value: 1.0, Note: "baseline"}}
	s.Transcript().Append(reply)

	require.NoError(t, s.Save())

	loaded, err := LoadSession(filepath.Join(dir, s.ID))
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, "churn analysis", loaded.Name)
	require.Len(t, loaded.Transcript().Turns, 2)

	cbs := loaded.Transcript().Turns[1].CodeBlocks()
	require.Len(t, cbs, 1)
	require.Len(t, cbs[0].Outputs, 1)
	assert.Equal(t, "baseline", cbs[0].Outputs[0].Note)
}

func TestListSessionsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	a := NewSession(dir, "older", "openrouter", "m")
	require.NoError(t, a.Save())
	b := NewSession(dir, "newer", "openrouter", "m")
	require.NoError(t, b.Save())

	infos, err := ListSessions(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "newer", infos[0].Name)
}

func TestListSessionsMissingDir(t *testing.T) {
	infos, err := ListSessions(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestFindSessionByPrefix(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(dir, "target", "openrouter", "m")
	require.NoError(t, s.Save())

	found, err := FindSession(dir, s.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, s.ID, found.ID)

	_, err = FindSession(dir, "ffffffff")
	require.Error(t, err)
}

func TestSessionDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(dir, "gone", "openrouter", "m")
	require.NoError(t, s.Save())
	require.NoError(t, s.Delete())

	infos, err := ListSessions(dir)
	require.NoError(t, err)
	assert.Empty(t, infos)
}
