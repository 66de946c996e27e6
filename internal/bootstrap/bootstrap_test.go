package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/testutil"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Output.JSONLPath = filepath.Join(t.TempDir(), "out", "patents.jsonl")
	cfg.Ledger = config.LedgerConfig{Enabled: true, Path: ":memory:"}
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "bootstraptest"
	return cfg
}

func TestBuild_LocalBackends(t *testing.T) {
	cfg := localConfig(t)
	logger := testutil.NewMockLogger()

	rt, err := Build(context.Background(), cfg, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"jsonl"}, rt.Service.Sinks())
	assert.NotNil(t, rt.Ledger)
	assert.Nil(t, rt.Producer)
	assert.Nil(t, rt.Searcher)
	require.Len(t, rt.Checks, 1)
	assert.Equal(t, "ledger", rt.Checks[0].Name)
	assert.NoError(t, rt.Checks[0].Fn(context.Background()))
	assert.True(t, logger.HasMessage("info", "normalizer ready"))

	raw, err := os.ReadFile(filepath.Join("..", "parser", "testdata", "grant_v45.xml"))
	require.NoError(t, err)
	_, err = rt.Service.ParseRecord(context.Background(), parser.Record{Text: raw, File: "ipg160102.xml"}, "run-1")
	require.NoError(t, err)

	rt.Close()
	out, err := os.ReadFile(cfg.Output.JSONLPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"US9855244B2"`)
}

func TestBuild_NothingEnabled(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	rt, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer rt.Close()

	assert.Empty(t, rt.Service.Sinks())
	assert.Empty(t, rt.Checks)
	assert.NotNil(t, rt.Collector)
}

//Personal.AI order the ending
