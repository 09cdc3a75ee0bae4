package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/config"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
)

// IntegrationSuite bundles the logger, config, and cancellable context an
// integration test typically needs, plus polling helpers for asserting on
// repeater state that changes asynchronously on the dispatch goroutine.
type IntegrationSuite struct {
	T      *testing.T
	Config *config.Config
	Logger *logger.Logger
	Ctx    context.Context
	Cancel context.CancelFunc
}

// NewIntegrationSuite creates a new integration test suite with a 30 second
// deadline and a debug-level logger.
func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	log := logger.New(logger.Config{
		Level:  "debug",
		Format: "text",
	})

	return &IntegrationSuite{
		T:      t,
		Config: CreateDefaultConfig(),
		Logger: log,
		Ctx:    ctx,
		Cancel: cancel,
	}
}

// Cleanup cancels the suite's context.
func (s *IntegrationSuite) Cleanup() {
	s.Cancel()
}

// WaitFor polls condition every 10ms until it returns true or timeout
// elapses, returning whether it succeeded.
func (s *IntegrationSuite) WaitFor(condition func() bool, timeout time.Duration, message string) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.T.Logf("WaitFor timeout: %s", message)
	return false
}

// AssertEventually fails the test if condition does not become true within
// timeout.
func (s *IntegrationSuite) AssertEventually(condition func() bool, timeout time.Duration, message string) {
	if !s.WaitFor(condition, timeout, message) {
		s.T.Errorf("assertion failed: %s", message)
	}
}

// CreateDefaultConfig returns a minimal valid configuration suitable as a
// starting point for integration tests, with a permit-all ACL policy and
// the optional sinks (call history, monitor) disabled.
func CreateDefaultConfig() *config.Config {
	return &config.Config{
		Repeater: config.RepeaterConfig{
			ColorCode:     1,
			MaxSlots:      16,
			QueueCapacity: 32,
			ExpiryMS:      180,
			IdleSleepMS:   5,
		},
		Policy: config.PolicyConfig{
			Enabled: true,
			ACL:     "PERMIT:ALL",
		},
		Bridges: make(map[string][]config.BridgeRule),
		CallHistory: config.CallHistoryConfig{
			Enabled: false,
		},
		Monitor: config.MonitorConfig{
			Enabled: false,
		},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "text",
		},
	}
}
