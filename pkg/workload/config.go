package workload

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/log"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hanfei1991/blockingqueue/pkg/errors"
)

// queue orders a workload can run against
const (
	ModeFIFO     = "fifo"
	ModePriority = "priority"
)

const (
	defaultProducers        = 4
	defaultConsumers        = 4
	defaultItemsPerProducer = 10000
	defaultBulkSize         = 1
)

// Config describes a producer/consumer workload.
type Config struct {
	Producers        int `toml:"producers" json:"producers"`
	Consumers        int `toml:"consumers" json:"consumers"`
	ItemsPerProducer int `toml:"items-per-producer" json:"items-per-producer"`
	// BulkSize items are pushed inside one Lock/Unlock bracket.
	BulkSize int    `toml:"bulk-size" json:"bulk-size"`
	Mode     string `toml:"mode" json:"mode"`
	// Rate limits each producer to Rate items per second. 0 means unlimited.
	Rate float64 `toml:"rate" json:"rate"`
}

// DefaultConfig returns the config used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Producers:        defaultProducers,
		Consumers:        defaultConsumers,
		ItemsPerProducer: defaultItemsPerProducer,
		BulkSize:         defaultBulkSize,
		Mode:             ModeFIFO,
	}
}

// RegisterFlags binds the config fields to flags in fs.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.Producers, "producers", c.Producers, "number of producer goroutines")
	fs.IntVar(&c.Consumers, "consumers", c.Consumers, "number of consumer goroutines")
	fs.IntVar(&c.ItemsPerProducer, "items-per-producer", c.ItemsPerProducer, "items pushed by each producer")
	fs.IntVar(&c.BulkSize, "bulk-size", c.BulkSize, "items pushed per lock/unlock bracket")
	fs.StringVar(&c.Mode, "mode", c.Mode, `queue order, "fifo" or "priority"`)
	fs.Float64Var(&c.Rate, "rate", c.Rate, "items per second per producer, 0 for unlimited")
}

// OverlayFlags re-applies every flag set on the command line in changed
// onto c, so that flags take precedence over a config file.
func (c *Config) OverlayFlags(changed *pflag.FlagSet) error {
	fs := pflag.NewFlagSet("overlay", pflag.ContinueOnError)
	c.RegisterFlags(fs)

	var err error
	changed.Visit(func(f *pflag.Flag) {
		if err != nil || fs.Lookup(f.Name) == nil {
			return
		}
		err = fs.Set(f.Name, f.Value.String())
	})
	return errors.Wrap(errors.ErrWorkloadConfigInvalid, err, "bad flag value")
}

// Adjust fills defaults and validates the config.
func (c *Config) Adjust() error {
	if c.BulkSize == 0 {
		c.BulkSize = defaultBulkSize
	}
	if c.Mode == "" {
		c.Mode = ModeFIFO
	}
	c.Mode = strings.ToLower(c.Mode)

	switch {
	case c.Producers <= 0 || c.Producers > math.MaxInt32:
		return errors.ErrWorkloadConfigInvalid.GenWithStackByArgs("producers must be in [1, 2^31)")
	case c.Consumers <= 0:
		return errors.ErrWorkloadConfigInvalid.GenWithStackByArgs("consumers must be positive")
	case c.ItemsPerProducer <= 0 || int64(c.ItemsPerProducer) > math.MaxUint32:
		return errors.ErrWorkloadConfigInvalid.GenWithStackByArgs("items-per-producer must be in [1, 2^32)")
	case c.BulkSize < 0:
		return errors.ErrWorkloadConfigInvalid.GenWithStackByArgs("bulk-size must not be negative")
	case c.Rate < 0:
		return errors.ErrWorkloadConfigInvalid.GenWithStackByArgs("rate must not be negative")
	case c.Mode != ModeFIFO && c.Mode != ModePriority:
		return errors.ErrWorkloadConfigInvalid.GenWithStackByArgs("unknown mode " + c.Mode)
	}
	return nil
}

// DecodeFile loads the config from a TOML file. Unknown keys are rejected.
func (c *Config) DecodeFile(path string) error {
	metaData, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrWorkloadDecodeConfigFile, err)
	}
	undecoded := metaData.Undecoded()
	if len(undecoded) > 0 {
		var undecodedItems []string
		for _, item := range undecoded {
			undecodedItems = append(undecodedItems, item.String())
		}
		return errors.ErrWorkloadConfigUnknownItem.GenWithStackByArgs(strings.Join(undecodedItems, ","))
	}
	return nil
}

func (c *Config) String() string {
	cfg, err := json.Marshal(c)
	if err != nil {
		log.L().Error("marshal to json", zap.Reflect("workload config", c), zap.Error(err))
	}
	return string(cfg)
}

// Toml returns TOML format representation of config.
func (c *Config) Toml() (string, error) {
	var b bytes.Buffer

	err := toml.NewEncoder(&b).Encode(c)
	if err != nil {
		log.L().Error("fail to marshal config to toml", zap.Error(err))
		return "", err
	}

	return b.String(), nil
}
