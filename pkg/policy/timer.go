package policy

import (
	"fmt"
	"sync"
	"time"
)

// TimerManager manages hangtime timers that auto-deactivate Rule values
// after their configured Timeout elapses.
type TimerManager struct {
	timers map[string]*time.Timer
	mu     sync.RWMutex
}

// NewTimerManager creates a new timer manager
func NewTimerManager() *TimerManager {
	return &TimerManager{
		timers: make(map[string]*time.Timer),
	}
}

func ruleKey(rule *Rule) string {
	return fmt.Sprintf("%s:%d:%d", rule.Sink, rule.TGID, rule.Timeslot)
}

// SetTimeout arms rule's hangtime timer (rule.Timeout, in minutes). It is a
// no-op if Timeout is zero or negative.
func (tm *TimerManager) SetTimeout(rule *Rule) {
	if rule.Timeout <= 0 {
		return
	}
	duration := time.Duration(rule.Timeout) * time.Minute
	tm.SetTimeoutWithCallback(rule, duration, func(r *Rule) {
		r.Deactivate()
	})
}

// SetTimeoutWithCallback arms a timer with an explicit duration and callback.
func (tm *TimerManager) SetTimeoutWithCallback(rule *Rule, duration time.Duration, callback func(*Rule)) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	key := ruleKey(rule)
	if existing, ok := tm.timers[key]; ok {
		existing.Stop()
	}

	timer := time.AfterFunc(duration, func() {
		callback(rule)
		tm.mu.Lock()
		delete(tm.timers, key)
		tm.mu.Unlock()
	})
	tm.timers[key] = timer
}

// ClearTimeout cancels rule's timer, if any.
func (tm *TimerManager) ClearTimeout(rule *Rule) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	key := ruleKey(rule)
	if timer, ok := tm.timers[key]; ok {
		timer.Stop()
		delete(tm.timers, key)
	}
}

// RefreshTimeout resets rule's hangtime timer to its full duration.
func (tm *TimerManager) RefreshTimeout(rule *Rule) {
	tm.SetTimeout(rule)
}

// HasTimer reports whether rule currently has an armed timer.
func (tm *TimerManager) HasTimer(rule *Rule) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	_, ok := tm.timers[ruleKey(rule)]
	return ok
}

// StopAll cancels every armed timer.
func (tm *TimerManager) StopAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for _, timer := range tm.timers {
		timer.Stop()
	}
	tm.timers = make(map[string]*time.Timer)
}
