// Package flow defines the approval status flow: the ordered chain of
// statuses a record walks through and which role may produce each one.
// A single Config is built at startup and injected everywhere; no other
// copy of the flow exists in the codebase.
package flow

import (
	"fmt"
)

// Status is one stage in the approval chain.
type Status string

// Role is an approver role in the sales hierarchy.
type Role string

// Canonical roles and statuses. These are the default configuration's
// vocabulary; a custom Config may define its own.
const (
	RoleTA  Role = "TA"  // Territory Assistant
	RoleTSM Role = "TSM" // Territory Sales Manager
	RoleAM  Role = "AM"  // Area Manager
	RoleZM  Role = "ZM"  // Zonal Manager
	RoleNSM Role = "NSM" // National Sales Manager
	RoleCM  Role = "CM"  // Country Manager

	StatusPendingTA     Status = "pending_ta"
	StatusApprovedByTA  Status = "approved_by_ta"
	StatusApprovedByTSM Status = "approved_by_tsm"
	StatusApprovedByAM  Status = "approved_by_am"
	StatusApprovedByZM  Status = "approved_by_zm"
	StatusApprovedByNSM Status = "approved_by_nsm"
	StatusFullyApproved Status = "fully_approved"
)

// Config is the status flow definition. Statuses are ordered from the
// initial state to the terminal state. RoleOutputs maps each role to
// the single status it is allowed to advance a record to. FastTrack,
// if non-empty, names the one role whose approval jumps straight to
// the terminal status regardless of adjacency.
type Config struct {
	Statuses    []Status        `yaml:"statuses"`
	RoleOutputs map[Role]Status `yaml:"roles"`
	FastTrack   Role            `yaml:"fast_track"`

	index map[Status]int
}

// Default returns the canonical flow: the five-level TA→NSM chain with
// the Country Manager as fast-track final approver.
func Default() *Config {
	cfg := &Config{
		Statuses: []Status{
			StatusPendingTA,
			StatusApprovedByTA,
			StatusApprovedByTSM,
			StatusApprovedByAM,
			StatusApprovedByZM,
			StatusApprovedByNSM,
			StatusFullyApproved,
		},
		RoleOutputs: map[Role]Status{
			RoleTA:  StatusApprovedByTA,
			RoleTSM: StatusApprovedByTSM,
			RoleAM:  StatusApprovedByAM,
			RoleZM:  StatusApprovedByZM,
			RoleNSM: StatusApprovedByNSM,
			RoleCM:  StatusFullyApproved,
		},
		FastTrack: RoleCM,
	}
	if err := cfg.Validate(); err != nil {
		// Default is fixed at compile time; failing here is a bug.
		panic(err)
	}
	return cfg
}

// Validate checks structural soundness and builds the status index.
// Must be called once before the Config is used.
func (c *Config) Validate() error {
	if len(c.Statuses) < 2 {
		return fmt.Errorf("flow: need at least an initial and a terminal status, got %d", len(c.Statuses))
	}

	c.index = make(map[Status]int, len(c.Statuses))
	for i, s := range c.Statuses {
		if s == "" {
			return fmt.Errorf("flow: empty status at position %d", i)
		}
		if _, dup := c.index[s]; dup {
			return fmt.Errorf("flow: duplicate status %q", s)
		}
		c.index[s] = i
	}

	if len(c.RoleOutputs) == 0 {
		return fmt.Errorf("flow: no roles configured")
	}
	for role, out := range c.RoleOutputs {
		if role == "" {
			return fmt.Errorf("flow: empty role name")
		}
		idx, ok := c.index[out]
		if !ok {
			return fmt.Errorf("flow: role %q outputs unknown status %q", role, out)
		}
		if idx == 0 {
			return fmt.Errorf("flow: role %q outputs the initial status %q", role, out)
		}
	}

	if c.FastTrack != "" {
		out, ok := c.RoleOutputs[c.FastTrack]
		if !ok {
			return fmt.Errorf("flow: fast-track role %q is not in the role set", c.FastTrack)
		}
		if out != c.Terminal() {
			return fmt.Errorf("flow: fast-track role %q must output the terminal status, outputs %q", c.FastTrack, out)
		}
	}

	return nil
}

// Initial returns the default status for records stored without one.
func (c *Config) Initial() Status { return c.Statuses[0] }

// Terminal returns the fully-approved status.
func (c *Config) Terminal() Status { return c.Statuses[len(c.Statuses)-1] }

// IsTerminal reports whether s is the terminal status.
func (c *Config) IsTerminal(s Status) bool { return s == c.Terminal() }

// IndexOf returns the position of s in the flow, or -1 when s is not
// a flow member.
func (c *Config) IndexOf(s Status) int {
	if i, ok := c.index[s]; ok {
		return i
	}
	return -1
}

// Next returns the immediate successor of s. ok is false when s is
// unknown or terminal.
func (c *Config) Next(s Status) (Status, bool) {
	i := c.IndexOf(s)
	if i < 0 || i >= len(c.Statuses)-1 {
		return "", false
	}
	return c.Statuses[i+1], true
}

// HasRole reports whether role is in the configured role set.
func (c *Config) HasRole(role Role) bool {
	_, ok := c.RoleOutputs[role]
	return ok
}

// OutputFor returns the status role is designated to produce. The
// fast-track role always produces the terminal status.
func (c *Config) OutputFor(role Role) (Status, bool) {
	if role != "" && role == c.FastTrack {
		return c.Terminal(), true
	}
	out, ok := c.RoleOutputs[role]
	return out, ok
}

// IsFastTrack reports whether role is the configured fast-track
// final approver.
func (c *Config) IsFastTrack(role Role) bool {
	return role != "" && role == c.FastTrack
}

// Roles returns the configured role set in flow-output order.
func (c *Config) Roles() []Role {
	roles := make([]Role, 0, len(c.RoleOutputs))
	for r := range c.RoleOutputs {
		roles = append(roles, r)
	}
	// Order by output position so the list reads as the chain.
	for i := 1; i < len(roles); i++ {
		for j := i; j > 0 && c.IndexOf(c.RoleOutputs[roles[j]]) < c.IndexOf(c.RoleOutputs[roles[j-1]]); j-- {
			roles[j], roles[j-1] = roles[j-1], roles[j]
		}
	}
	return roles
}
