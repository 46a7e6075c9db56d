// Package featureflags evaluates operational feature flags defined in
// configuration, with optional percentage rollouts bucketed per user.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

type ruleKind int

const (
	ruleOff ruleKind = iota
	ruleOn
	rulePercent
)

type rule struct {
	kind ruleKind
	pct  int
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "suggestions_no_cache=on,feed_tracing=25%"
type Manager struct {
	rules map[string]rule
}

// NewManager creates a feature-flag manager from a comma-separated config string.
// Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)

	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[key] = r
		}
	}

	return &Manager{rules: rules}
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{kind: ruleOn}, true
	case "off", "false", "0":
		return rule{kind: ruleOff}, true
	}
	if strings.HasSuffix(value, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
		if err != nil || pct < 0 {
			return rule{}, false
		}
		return rule{kind: rulePercent, pct: pct}, true
	}
	return rule{}, false
}

// Enabled returns whether a flag is enabled for a given user. Unknown flags
// are disabled. Percentage rules bucket users deterministically so a user
// stays in or out of a rollout across requests.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}

	switch r.kind {
	case ruleOn:
		return true
	case rulePercent:
		if r.pct >= 100 {
			return true
		}
		if r.pct <= 0 || userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < r.pct
	default:
		return false
	}
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
