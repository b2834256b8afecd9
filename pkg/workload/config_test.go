package workload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/hanfei1991/blockingqueue/pkg/errors"
)

func TestConfigAdjust(t *testing.T) {
	t.Parallel()

	cfg := Config{Producers: 1, Consumers: 1, ItemsPerProducer: 1, Mode: "PRIORITY"}
	require.NoError(t, cfg.Adjust())
	require.Equal(t, ModePriority, cfg.Mode)
	require.Equal(t, defaultBulkSize, cfg.BulkSize)

	def := DefaultConfig()
	require.NoError(t, def.Adjust())

	invalid := []Config{
		{Producers: 0, Consumers: 1, ItemsPerProducer: 1},
		{Producers: 1, Consumers: 0, ItemsPerProducer: 1},
		{Producers: 1, Consumers: 1, ItemsPerProducer: 0},
		{Producers: 1, Consumers: 1, ItemsPerProducer: 1, BulkSize: -1},
		{Producers: 1, Consumers: 1, ItemsPerProducer: 1, Rate: -1},
		{Producers: 1, Consumers: 1, ItemsPerProducer: 1, Mode: "lifo"},
	}
	for _, c := range invalid {
		c := c
		err := c.Adjust()
		require.True(t, errors.ErrWorkloadConfigInvalid.Equal(err), "config %+v", c)
	}
}

func TestConfigDecodeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "workload.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
producers = 2
consumers = 3
items-per-producer = 500
bulk-size = 10
mode = "priority"
rate = 1000.5
`), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.DecodeFile(path))
	require.Equal(t, Config{
		Producers:        2,
		Consumers:        3,
		ItemsPerProducer: 500,
		BulkSize:         10,
		Mode:             ModePriority,
		Rate:             1000.5,
	}, cfg)

	tomlStr, err := cfg.Toml()
	require.NoError(t, err)
	var decoded Config
	_, err = toml.Decode(tomlStr, &decoded)
	require.NoError(t, err)
	require.Equal(t, cfg, decoded)
	require.Contains(t, cfg.String(), `"items-per-producer":500`)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("producers = 1\ncapacity = 10\n"), 0o644))
	err = cfg.DecodeFile(unknown)
	require.True(t, errors.ErrWorkloadConfigUnknownItem.Equal(err))

	err = cfg.DecodeFile(filepath.Join(dir, "not-exist.toml"))
	require.True(t, errors.ErrWorkloadDecodeConfigFile.Equal(err))
	require.False(t, errors.ErrWorkloadConfigInvalid.Equal(err))
	require.Contains(t, err.Error(), "not-exist.toml")
}

func TestConfigOverlayFlags(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--producers=9", "--mode=priority"}))
	require.Equal(t, 9, cfg.Producers)

	fromFile := Config{Producers: 1, Consumers: 2, ItemsPerProducer: 3, BulkSize: 4, Mode: ModeFIFO}
	require.NoError(t, fromFile.OverlayFlags(fs))
	require.Equal(t, Config{Producers: 9, Consumers: 2, ItemsPerProducer: 3, BulkSize: 4, Mode: ModePriority}, fromFile)

	// a value that only the config's own flag type rejects
	loose := pflag.NewFlagSet("loose", pflag.ContinueOnError)
	loose.String("producers", "", "")
	require.NoError(t, loose.Parse([]string{"--producers=abc"}))
	err := fromFile.OverlayFlags(loose)
	require.True(t, errors.ErrWorkloadConfigInvalid.Equal(err))
	require.False(t, errors.ErrWorkloadDecodeConfigFile.Equal(err))
	require.Contains(t, err.Error(), "abc")
}
