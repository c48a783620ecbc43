package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojks1999/tcp-load-balancer/pkg/domain"
	"github.com/manojks1999/tcp-load-balancer/pkg/resolver"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestStore_Parse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lb.cfg")
	writeConfig(t, path, `
[options]
buffer_size = 2048
algorithm = weighted_round_robin

[mappings]
127.0.0.1:8080 = 10.0.0.1:9000:5
`)
	logger, _ := test.NewNullLogger()
	store := NewStore(path, WithLogger(logger), WithResolver(resolver.Passthrough))
	require.NoError(t, store.Parse(context.Background()))

	assert.Equal(t, map[string]any{
		OptionPreResolveWorkers: true,
		OptionBufferSize:        2048,
		OptionAlgorithm:         AlgorithmWeightedRoundRobin,
	}, store.Options())

	v, err := store.OptionValue(OptionBufferSize)
	require.NoError(t, err)
	assert.Equal(t, 2048, v)

	_, err = store.OptionValue("listen_backlog")
	assert.ErrorIs(t, err, ErrUnknownOption)

	m := store.Mappings()["127.0.0.1:8080"]
	require.NotNil(t, m)
	assert.Equal(t, "127.0.0.1:8080", m.ListenAddress())
	assert.Equal(t, []domain.Worker{{Addr: "10.0.0.1", Port: 9000, Weight: 5}}, m.Workers())
}

func TestStore_ReparseReplacesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lb.cfg")
	writeConfig(t, path, "[options]\nbuffer_size = 2048\nalgorithm = round_robin\n[mappings]\n8080 = 10.0.0.1:9000\n")

	logger, hook := test.NewNullLogger()
	store := NewStore(path, WithLogger(logger), WithResolver(resolver.Passthrough))
	require.NoError(t, store.Parse(context.Background()))
	require.Contains(t, store.Mappings(), "8080")

	writeConfig(t, path, "[options]\nbuffer_size = nope\n[mappings]\n9090 = 10.0.0.2:9001\n")
	require.NoError(t, store.Parse(context.Background()))

	// options start over from the defaults, not from the previous parse
	assert.Equal(t, DefaultBufferSize, store.Result().Options.BufferSize)
	assert.Equal(t, AlgorithmRandom, store.Result().Options.Algorithm)
	assert.Equal(t, []string{"9090"}, store.Mappings().Keys())
	assert.Len(t, warnings(hook), 1)
}

func TestStore_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.cfg")
	logger, hook := test.NewNullLogger()
	store := NewStore(path, WithLogger(logger))

	err := store.Parse(context.Background())
	require.ErrorIs(t, err, ErrFileAccess)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, path, hook.LastEntry().Data["path"])
}

func TestStore_MissingMappingsSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lb.cfg")
	writeConfig(t, path, "[options]\nbuffer_size = 2048\n")

	logger, _ := test.NewNullLogger()
	store := NewStore(path, WithLogger(logger))

	err := store.Parse(context.Background())
	require.ErrorIs(t, err, ErrConfig)
	assert.Empty(t, store.Mappings())
	assert.Equal(t, DefaultOptions(), store.Result().Options)
}

func TestStore_FailedReparseKeepsPreviousResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lb.cfg")
	writeConfig(t, path, "[mappings]\n8080 = 10.0.0.1:9000\n")

	logger, _ := test.NewNullLogger()
	store := NewStore(path, WithLogger(logger), WithPreResolve(false))
	require.NoError(t, store.Parse(context.Background()))

	writeConfig(t, path, "[options]\nalgorithm = round_robin\n")
	require.ErrorIs(t, store.Parse(context.Background()), ErrConfig)

	assert.Equal(t, []string{"8080"}, store.Mappings().Keys())
	assert.Equal(t, AlgorithmRandom, store.Result().Options.Algorithm)
}

func TestStore_DefaultsBeforeParse(t *testing.T) {
	store := NewStore("unused.cfg")
	assert.Equal(t, "unused.cfg", store.Path())
	assert.Equal(t, DefaultOptions().Map(), store.Options())
	assert.NotNil(t, store.Mappings())
	assert.Empty(t, store.Mappings())
}
