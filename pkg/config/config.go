package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Repeater    RepeaterConfig          `mapstructure:"repeater"`
	Policy      PolicyConfig            `mapstructure:"policy"`
	Bridges     map[string][]BridgeRule `mapstructure:"bridges"`
	CallHistory CallHistoryConfig       `mapstructure:"call_history"`
	Monitor     MonitorConfig           `mapstructure:"monitor"`
	Logging     LoggingConfig           `mapstructure:"logging"`
}

// RepeaterConfig holds the core dispatch loop's tunables.
type RepeaterConfig struct {
	ColorCode     int `mapstructure:"color_code"`      // 1..15
	MaxSlots      int `mapstructure:"max_slots"`       // validated only; the slot limit is repeater.MaxSlots
	QueueCapacity int `mapstructure:"queue_capacity"`  // validated only; the queue depth is ingress.Capacity
	ExpiryMS      int `mapstructure:"expiry_ms"`        // voice call expiry threshold
	IdleSleepMS   int `mapstructure:"idle_sleep_ms"`    // dispatch loop idle poll interval
}

// PolicyConfig configures the reference pkg/policy router chain.
type PolicyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	ACL     string `mapstructure:"acl"` // e.g. "PERMIT:1-999999"
}

// BridgeRule represents a static bridge routing rule, mapstructure-loaded
// into pkg/policy.Rule at startup.
type BridgeRule struct {
	Sink     string `mapstructure:"sink"`
	TGID     int    `mapstructure:"tgid"`
	Timeslot int    `mapstructure:"timeslot"`
	Active   bool   `mapstructure:"active"`
	On       []int  `mapstructure:"on"`
	Off      []int  `mapstructure:"off"`
	Timeout  int    `mapstructure:"timeout"` // minutes
}

// CallHistoryConfig configures the optional pkg/callhistory observer.
type CallHistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// MonitorConfig configures the optional pkg/monitor websocket observer.
type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/dmr-repeater")
	}

	viper.SetEnvPrefix("DMR_REPEATER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is fine, defaults apply.
		} else if os.IsNotExist(err) {
			// File explicitly named but missing is also fine.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("repeater.color_code", 1)
	viper.SetDefault("repeater.max_slots", 16)
	viper.SetDefault("repeater.queue_capacity", 64)
	viper.SetDefault("repeater.expiry_ms", 180)
	viper.SetDefault("repeater.idle_sleep_ms", 5)

	viper.SetDefault("policy.enabled", true)
	viper.SetDefault("policy.acl", "PERMIT:ALL")

	viper.SetDefault("call_history.enabled", false)
	viper.SetDefault("call_history.db_path", "call-history.db")

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.host", "0.0.0.0")
	viper.SetDefault("monitor.port", 8080)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}
