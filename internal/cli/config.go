package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	Output    string
	Verbose   bool
	NoColor   bool
}

// Config keys, shared by flags, PLCTL_* environment variables and the config file
const (
	keyServer  = "server"
	keyToken   = "token"
	keyOutput  = "output"
	keyVerbose = "verbose"
	keyNoColor = "no-color"
	keyConfig  = "config"
)

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: "http://localhost:8080",
		Output:    "text",
	}
}

// LoadConfig resolves configuration with precedence flags, PLCTL_* env,
// config file (~/.plctl.yaml unless --config is given), then defaults
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault(keyServer, def.ServerURL)
	v.SetDefault(keyOutput, def.Output)

	v.SetEnvPrefix("PLCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".plctl")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		ServerURL: v.GetString(keyServer),
		Token:     v.GetString(keyToken),
		Output:    v.GetString(keyOutput),
		Verbose:   v.GetBool(keyVerbose),
		NoColor:   v.GetBool(keyNoColor),
	}
	if cfg.Output != "text" && cfg.Output != "json" {
		return nil, fmt.Errorf("invalid output format %q (want text or json)", cfg.Output)
	}
	return cfg, nil
}
