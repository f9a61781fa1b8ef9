package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gotn-ai/gotn/internal/config"
	"github.com/gotn-ai/gotn/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.WorkspaceDir = filepath.Join(dir, ".gotn")
	cfg.DatabaseURL = "" // sqlite readmodel under the workspace dir

	svc, err := Open(context.Background(), cfg, "proj1")
	require.NoError(t, err)
	return svc
}

func TestInitWorkspace_WritesMeta(t *testing.T) {
	svc := newTestService(t)
	env := svc.InitWorkspace(context.Background())
	require.True(t, env.OK)
}

func TestStoreNode_DefaultsIDAndStatus(t *testing.T) {
	svc := newTestService(t)
	env := svc.StoreNode(context.Background(), &model.Node{Summary: "do the thing"})
	require.True(t, env.OK)

	n, ok := env.Data.(*model.Node)
	require.True(t, ok)
	require.NotEmpty(t, n.ID)
	require.Equal(t, model.NodePending, n.Status)
}

func TestStoreNode_RejectsEmptySummary(t *testing.T) {
	svc := newTestService(t)
	env := svc.StoreNode(context.Background(), &model.Node{})
	require.False(t, env.OK)
}

func TestComposePlan_EndToEndLinearChain(t *testing.T) {
	svc := newTestService(t)

	first := svc.StoreNode(context.Background(), &model.Node{Summary: "first", Produces: []string{"a.json"}})
	require.True(t, first.OK)
	second := svc.StoreNode(context.Background(), &model.Node{Summary: "second", Requires: []string{"a.json"}})
	require.True(t, second.OK)

	infer := svc.InferEdges(context.Background())
	require.True(t, infer.OK)

	plan := svc.ComposePlan(context.Background())
	require.True(t, plan.OK)

	debug := svc.Debug(context.Background())
	require.True(t, debug.OK)
}

func TestRecover_RebuildsSnapshotFromJournal(t *testing.T) {
	svc := newTestService(t)
	stored := svc.StoreNode(context.Background(), &model.Node{Summary: "persisted"})
	require.True(t, stored.OK)

	recovered := svc.Recover(context.Background())
	require.True(t, recovered.OK)

	data, ok := recovered.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, 1, data["valid_entries"])
}
