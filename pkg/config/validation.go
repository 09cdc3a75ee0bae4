package config

import (
	"fmt"
	"strings"
)

// validate validates the configuration.
func validate(cfg *Config) error {
	if cfg.Repeater.ColorCode < 1 || cfg.Repeater.ColorCode > 15 {
		return fmt.Errorf("repeater.color_code must be between 1 and 15")
	}
	if cfg.Repeater.MaxSlots <= 0 {
		return fmt.Errorf("repeater.max_slots must be positive")
	}
	if cfg.Repeater.QueueCapacity <= 0 {
		return fmt.Errorf("repeater.queue_capacity must be positive")
	}
	if cfg.Repeater.ExpiryMS <= 0 {
		return fmt.Errorf("repeater.expiry_ms must be positive")
	}
	if cfg.Repeater.IdleSleepMS <= 0 {
		return fmt.Errorf("repeater.idle_sleep_ms must be positive")
	}

	if cfg.Policy.Enabled && cfg.Policy.ACL != "" {
		if !strings.HasPrefix(cfg.Policy.ACL, "PERMIT:") && !strings.HasPrefix(cfg.Policy.ACL, "DENY:") {
			return fmt.Errorf("policy.acl must start with PERMIT: or DENY:")
		}
	}

	for bridgeName, rules := range cfg.Bridges {
		for i, rule := range rules {
			if rule.Sink == "" {
				return fmt.Errorf("bridge %s rule %d: sink is required", bridgeName, i)
			}
			if rule.TGID <= 0 {
				return fmt.Errorf("bridge %s rule %d: tgid must be positive", bridgeName, i)
			}
			if rule.Timeslot != 1 && rule.Timeslot != 2 {
				return fmt.Errorf("bridge %s rule %d: timeslot must be 1 or 2", bridgeName, i)
			}
		}
	}

	if cfg.CallHistory.Enabled && cfg.CallHistory.DBPath == "" {
		return fmt.Errorf("call_history.db_path is required when call_history is enabled")
	}

	if cfg.Monitor.Enabled && (cfg.Monitor.Port <= 0 || cfg.Monitor.Port > 65535) {
		return fmt.Errorf("monitor.port must be between 1 and 65535")
	}

	return nil
}
