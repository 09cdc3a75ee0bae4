package policy

import (
	"sync"

	"github.com/dbehnke/dmr-repeater/pkg/dmrpacket"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
)

// Rule is a single static routing entry: destination talkgroup + timeslot
// map to a named sink, with optional activation talkgroups and a hangtime
// timeout managed by TimerManager.
type Rule struct {
	Sink     string // sink name this rule targets, see Transport.Name
	TGID     int
	Timeslot int
	Active   bool
	On       []int // TGIDs that activate this rule
	Off      []int // TGIDs that deactivate this rule
	Timeout  int   // minutes before auto-disable (if >0)

	mu sync.RWMutex
}

// Matches checks if this rule matches the given TGID and timeslot
func (r *Rule) Matches(tgid uint32, timeslot dmrpacket.Timeslot) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.Active {
		return false
	}
	return int(tgid) == r.TGID && int(timeslot) == r.Timeslot
}

// ShouldActivate checks if this rule should be activated by the given TGID
func (r *Rule) ShouldActivate(tgid uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, on := range r.On {
		if on == int(tgid) {
			return true
		}
	}
	return false
}

// ShouldDeactivate checks if this rule should be deactivated by the given TGID
func (r *Rule) ShouldDeactivate(tgid uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, off := range r.Off {
		if off == int(tgid) {
			return true
		}
	}
	return false
}

// Activate activates this rule
func (r *Rule) Activate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Active = true
}

// Deactivate deactivates this rule
func (r *Rule) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Active = false
}

// BridgeRuleSet is a named collection of static routing rules. As a Policy
// it permits a candidate sink for a destination/timeslot pair only when
// the pair has at least one rule defined and an active rule names the
// sink — destinations with no rules at all are left unrestricted, since
// BridgeRuleSet models supplemental static routing, not a catch-all ACL
// (that is ACL's job; compose both with Chain when both are needed).
type BridgeRuleSet struct {
	Name  string
	Rules []*Rule
	mu    sync.RWMutex
}

// NewBridgeRuleSet creates a new bridge rule set
func NewBridgeRuleSet(name string) *BridgeRuleSet {
	return &BridgeRuleSet{Name: name}
}

// AddRule adds a rule to this rule set
func (brs *BridgeRuleSet) AddRule(rule *Rule) {
	brs.mu.Lock()
	defer brs.mu.Unlock()
	brs.Rules = append(brs.Rules, rule)
}

// MatchingRules returns all active rules for the given destination and
// timeslot, excluding rules that name excludeSink (the forwarding source,
// to prevent loops).
func (brs *BridgeRuleSet) MatchingRules(tgid uint32, timeslot dmrpacket.Timeslot, excludeSink string) []*Rule {
	brs.mu.RLock()
	defer brs.mu.RUnlock()

	result := make([]*Rule, 0)
	for _, rule := range brs.Rules {
		if rule.Sink == excludeSink {
			continue
		}
		if rule.Matches(tgid, timeslot) {
			result = append(result, rule)
		}
	}
	return result
}

// hasRuleFor reports whether any rule (active or not) targets this
// destination/timeslot pair, regardless of sink.
func (brs *BridgeRuleSet) hasRuleFor(tgid uint32, timeslot dmrpacket.Timeslot) bool {
	brs.mu.RLock()
	defer brs.mu.RUnlock()
	for _, rule := range brs.Rules {
		if int(tgid) == rule.TGID && int(timeslot) == rule.Timeslot {
			return true
		}
	}
	return false
}

// ProcessActivation activates every rule whose On list contains tgid.
// Returns the rules that were activated.
func (brs *BridgeRuleSet) ProcessActivation(tgid uint32) []*Rule {
	brs.mu.RLock()
	defer brs.mu.RUnlock()

	activated := make([]*Rule, 0)
	for _, rule := range brs.Rules {
		if rule.ShouldActivate(tgid) {
			rule.Activate()
			activated = append(activated, rule)
		}
	}
	return activated
}

// ProcessDeactivation deactivates every rule whose Off list contains tgid.
// Returns the rules that were deactivated.
func (brs *BridgeRuleSet) ProcessDeactivation(tgid uint32) []*Rule {
	brs.mu.RLock()
	defer brs.mu.RUnlock()

	deactivated := make([]*Rule, 0)
	for _, rule := range brs.Rules {
		if rule.ShouldDeactivate(tgid) {
			rule.Deactivate()
			deactivated = append(deactivated, rule)
		}
	}
	return deactivated
}

// Permit implements Policy: sink is allowed a packet if its destination and
// timeslot have no rules defined at all, or if an active rule names sink.
func (brs *BridgeRuleSet) Permit(_ *repeater.Repeater, source, sink repeater.Transport, packet *dmrpacket.Packet) bool {
	if !brs.hasRuleFor(packet.DstID, packet.Timeslot) {
		return true
	}
	sourceName := ""
	if source != nil {
		sourceName = source.Name()
	}
	for _, rule := range brs.MatchingRules(packet.DstID, packet.Timeslot, sourceName) {
		if rule.Sink == sink.Name() {
			return true
		}
	}
	return false
}
