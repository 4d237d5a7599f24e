package config

import (
	"github.com/spf13/viper"

	"github.com/networksecurity/cloudsync/errors"
)

// EnvPrefix is the prefix of environment variables read by Load, e.g. CLOUDSYNC_STRICT.
const EnvPrefix = "CLOUDSYNC"

// SetDefaults registers the Default values on v so every key is known to viper,
// which AutomaticEnv needs to resolve environment variables during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("program", d.Program)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("dryrun", d.DryRun)
	v.SetDefault("delete", d.Delete)
	v.SetDefault("exclude", []string{})
	v.SetDefault("include", []string{})
	v.SetDefault("retries", d.Retries)
	v.SetDefault("retry_delay", d.RetryDelay)
	v.SetDefault("preflight", d.Preflight)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("profile", d.Profile)
	v.SetDefault("log_level", d.LogLevel)
}

// Load decodes and validates the configuration held by v. The caller is expected
// to have read any config file and bound flags beforehand.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to decode configuration",
			map[string]interface{}{
				"file": v.ConfigFileUsed(),
			},
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
