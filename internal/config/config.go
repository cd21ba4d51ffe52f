// Package config loads the tracker's runtime configuration through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/push"
	"github.com/Veraticus/expense-tracker/internal/recurring"
	"github.com/Veraticus/expense-tracker/internal/scheduler"
)

// EnvPrefix namespaces environment overrides, e.g. TRACKER_DATABASE_PATH.
const EnvPrefix = "TRACKER"

// Config is the validated runtime configuration.
type Config struct {
	DatabasePath      string
	ServerAddr        string
	LogLevel          string
	LogFormat         string
	Push              push.Config
	Scheduler         scheduler.Config
	ReminderLookahead time.Duration
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	sched := scheduler.DefaultConfig()
	pushDefaults := push.DefaultConfig()

	v.SetDefault("database.path", "~/.local/share/tracker/tracker.db")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("push.enabled", false)
	v.SetDefault("push.service_account_path", "")
	v.SetDefault("push.project_id", "")
	v.SetDefault("push.endpoint", "")
	v.SetDefault("push.retry_attempts", pushDefaults.RetryAttempts)
	v.SetDefault("push.retry_delay", pushDefaults.RetryDelay)

	v.SetDefault("scheduler.goal_interval", sched.GoalInterval)
	v.SetDefault("scheduler.recurring_interval", sched.RecurringInterval)
	v.SetDefault("scheduler.healthcheck_interval", sched.HealthcheckInterval)
	v.SetDefault("scheduler.reminder_lookahead", recurring.DefaultLookahead)
}

// BindEnv makes every key overridable through TRACKER_ prefixed variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		ServerAddr:   v.GetString("server.addr"),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		Push: push.Config{
			Enabled:            v.GetBool("push.enabled"),
			ServiceAccountPath: ExpandPath(v.GetString("push.service_account_path")),
			ProjectID:          v.GetString("push.project_id"),
			Endpoint:           v.GetString("push.endpoint"),
			RetryAttempts:      v.GetInt("push.retry_attempts"),
			RetryDelay:         v.GetDuration("push.retry_delay"),
		},
		Scheduler: scheduler.Config{
			GoalInterval:        v.GetDuration("scheduler.goal_interval"),
			RecurringInterval:   v.GetDuration("scheduler.recurring_interval"),
			HealthcheckInterval: v.GetDuration("scheduler.healthcheck_interval"),
		},
		ReminderLookahead: v.GetDuration("scheduler.reminder_lookahead"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.ReminderLookahead <= 0 {
		return fmt.Errorf("%w: scheduler.reminder_lookahead must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	return c.Push.Validate()
}

// ExpandPath resolves a leading ~ to the home directory and then expands
// $VAR references.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
