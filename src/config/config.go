// Package config is for the settings of the fill and cut commands, which are unmarshalled
// from Viper (see: /cmd). Values come from, in order of precedence, command line flags that
// were set, an optional config file, and the defaults below.
package config

import (
	"fmt"

	"github.com/bcgsc/stash/src/stash"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// the config file sections each subcommand reads from
const (
	FillSection = "fill"
	CutSection  = "cut"
)

// FillConfig holds the settings of the fill command
type FillConfig struct {
	// log2 of the number of rows in the Stash
	LogRows uint32 `mapstructure:"logRows"`

	// number of worker threads
	Threads int `mapstructure:"threads"`

	// the spaced seed patterns
	Seeds []string `mapstructure:"seeds"`

	// number of reads held in memory at once
	BatchSize int `mapstructure:"batchSize"`

	// draw a progress bar on stderr
	Progress bool `mapstructure:"progress"`
}

// CutConfig holds the settings of the cut command
type CutConfig struct {
	NumberOfFrames   uint32 `mapstructure:"numberOfFrames"`
	Stride           uint32 `mapstructure:"stride"`
	Delta            uint32 `mapstructure:"delta"`
	Threshold        uint32 `mapstructure:"threshold"`
	MaxPoolingRadius uint32 `mapstructure:"maxPoolingRadius"`
	MinCutDistance   uint32 `mapstructure:"minCutDistance"`
	Threads          int    `mapstructure:"threads"`

	// directory to write signal plots to, no plots when empty
	PlotDir string `mapstructure:"plotDir"`
}

// Window returns the window parameters of the cut settings
func (c CutConfig) Window() stash.WindowParameters {
	return stash.WindowParameters{NumberOfFrames: c.NumberOfFrames, Stride: c.Stride, Delta: c.Delta}
}

// Cut returns the cut parameters of the cut settings
func (c CutConfig) Cut() stash.CutParameters {
	return stash.CutParameters{CutThreshold: c.Threshold, MaxPoolingRadius: c.MaxPoolingRadius, MinCutDistance: c.MinCutDistance}
}

// Config is the root-level settings struct
type Config struct {
	Fill FillConfig `mapstructure:"fill"`
	Cut  CutConfig  `mapstructure:"cut"`
}

// setDefaults registers the default settings
func setDefaults(v *viper.Viper) {
	v.SetDefault("fill.logRows", 30)
	v.SetDefault("fill.threads", 8)
	v.SetDefault("fill.seeds", stash.DefaultSeeds)
	v.SetDefault("fill.batchSize", 20000)
	v.SetDefault("fill.progress", false)
	v.SetDefault("cut.numberOfFrames", 1)
	v.SetDefault("cut.stride", 13)
	v.SetDefault("cut.delta", 751)
	v.SetDefault("cut.threshold", 11)
	v.SetDefault("cut.maxPoolingRadius", 1)
	v.SetDefault("cut.minCutDistance", 1000)
	v.SetDefault("cut.threads", 8)
	v.SetDefault("cut.plotDir", "")
}

// Default returns the settings used when there is no config file and no flag is set
func Default() Config {
	c, err := decode(viper.New())
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the config file (if one is given) and binds the flags of a subcommand under its section
func Load(configFile, section string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
	}
	var bindErr error
	if flags != nil {
		flags.VisitAll(func(flag *pflag.Flag) {
			if err := v.BindPFlag(section+"."+flag.Name, flag); err != nil && bindErr == nil {
				bindErr = err
			}
		})
	}
	if bindErr != nil {
		return Config{}, bindErr
	}
	return decode(v)
}

// decode applies the defaults and unmarshals the settings
func decode(v *viper.Viper) (Config, error) {
	setDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode settings: %w", err)
	}
	return c, nil
}
