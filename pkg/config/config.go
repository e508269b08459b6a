// Package config resolves connection and polling settings from flags, the
// environment, an optional .env file and an optional config file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/project-copacetic/nessus/pkg/wait"
)

// Keys, as used in config files and bound to flags.
const (
	KeyHost           = "host"
	KeyToken          = "token"
	KeySecret         = "secret"
	KeyScan           = "scan"
	KeyCAFile         = "ca-file"
	KeyInsecure       = "insecure"
	KeyTimeout        = "timeout"
	KeyScanInterval   = "scan-interval"
	KeyScanAttempts   = "scan-attempts"
	KeyExportInterval = "export-interval"
	KeyExportAttempts = "export-attempts"
	KeyExportFormat   = "export-format"
)

// envNames maps keys to the environment variables they are read from.
var envNames = map[string]string{
	KeyHost:   "NESSUS_HOST",
	KeyToken:  "NESSUS_TOKEN",
	KeySecret: "NESSUS_SECRET",
	KeyScan:   "NESSUS_SCAN",
}

const envPrefix = "NESSUS"

type Config struct {
	Host     string
	Token    string
	Secret   string
	ScanID   uint64
	CAFile   string
	Insecure bool
	Timeout  time.Duration

	ScanPoll     Poll
	ExportPoll   Poll
	ExportFormat string
}

// Poll is the polling schedule for one kind of remote job. A negative
// attempts setting means no limit.
type Poll struct {
	Interval  time.Duration
	Attempts  uint64
	Unbounded bool
}

func (p Poll) Options() wait.Options {
	if p.Unbounded {
		return wait.Options{Interval: p.Interval}
	}
	return wait.Options{Interval: p.Interval, MaxAttempts: wait.Attempts(p.Attempts)}
}

func loadPoll(v *viper.Viper, intervalKey, attemptsKey string) Poll {
	p := Poll{Interval: v.GetDuration(intervalKey)}
	if n := v.GetInt64(attemptsKey); n < 0 {
		p.Unbounded = true
	} else {
		p.Attempts = uint64(n)
	}
	return p
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTimeout, 60*time.Second)
	v.SetDefault(KeyScanInterval, 60*time.Second)
	v.SetDefault(KeyScanAttempts, 30)
	v.SetDefault(KeyExportInterval, 3*time.Second)
	v.SetDefault(KeyExportAttempts, 40)
	v.SetDefault(KeyExportFormat, "nessus")
}

// New returns a viper instance with defaults and environment bindings set up.
// A .env file in the working directory, if any, is loaded into the process
// environment first; variables already set take precedence.
func New() (*viper.Viper, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "bind %s", env)
		}
	}
	return v, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	log.Debugf("Loading environment from %s", path)
	return godotenv.Load(path)
}

// ReadFile merges the config file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

// Load builds a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:     strings.TrimSpace(v.GetString(KeyHost)),
		Token:    v.GetString(KeyToken),
		Secret:   v.GetString(KeySecret),
		ScanID:   v.GetUint64(KeyScan),
		CAFile:   v.GetString(KeyCAFile),
		Insecure: v.GetBool(KeyInsecure),
		Timeout:  v.GetDuration(KeyTimeout),

		ScanPoll:     loadPoll(v, KeyScanInterval, KeyScanAttempts),
		ExportPoll:   loadPoll(v, KeyExportInterval, KeyExportAttempts),
		ExportFormat: v.GetString(KeyExportFormat),
	}
	if cfg.ScanPoll.Interval < 0 || cfg.ExportPoll.Interval < 0 {
		return nil, fmt.Errorf("poll intervals must not be negative")
	}
	return cfg, nil
}

// ValidateRemote checks the settings needed to talk to a scanner.
func (c *Config) ValidateRemote() error {
	if c.Host == "" {
		return fmt.Errorf("scanner host not set (--host or NESSUS_HOST)")
	}
	u, err := url.Parse(c.Host)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("scanner host %q must be an absolute URL", c.Host)
	}
	if c.Token == "" || c.Secret == "" {
		return fmt.Errorf("API keys not set (--token/--secret or NESSUS_TOKEN/NESSUS_SECRET)")
	}
	return nil
}
