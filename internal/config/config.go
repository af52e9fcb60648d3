package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ammScope/internal/model"
)

const envPrefix = "AMMSCOPE"

// Common holds settings shared by every command.
type Common struct {
	Seed        uint64
	LogLevel    string
	LogFile     string
	MetricsFile string
}

// load merges config file, environment variables, and flags on top of defaults.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("seed", uint64(0))
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("ammscope")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadCommon(v *viper.Viper) Common {
	return Common{
		Seed:        v.GetUint64("seed"),
		LogLevel:    v.GetString("log-level"),
		LogFile:     v.GetString("log-file"),
		MetricsFile: v.GetString("metrics-file"),
	}
}

// amounts parses ether-denominated settings into wei.
type amounts struct {
	v   *viper.Viper
	err error
}

func (a *amounts) wei(key string) *big.Int {
	if a.err != nil {
		return nil
	}
	out, err := model.ToWei(a.v.GetString(key))
	if err != nil {
		a.err = fmt.Errorf("%s: %w", key, err)
		return nil
	}
	return out
}
