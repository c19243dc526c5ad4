package contextstore

import (
	"fmt"
	"strings"

	"github.com/safegit/safegit/internal/classify"
)

// Verdict is the outcome of the permission check.
type Verdict struct {
	Decision Decision
	Reason   string
}

// Decision enumerates verdict kinds.
type Decision int

const (
	Allow Decision = iota
	Deny
	// NeedsElevation means the command is only permitted under ForceYes.
	// Maintenance mode maps destructive categories here.
	NeedsElevation
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case NeedsElevation:
		return "needs-elevation"
	}
	return "unknown"
}

// productionBlocked are the categories refused outright in
// environment=production, mode=normal.
var productionBlocked = map[classify.Category]bool{
	classify.PushForce:     true,
	classify.ResetHard:     true,
	classify.CleanForce:    true,
	classify.Rebase:        true,
	classify.FilterHistory: true,
}

// paranoidAllowlist is the only set of base subcommands permitted in
// paranoid mode. branch, tag, and remote are further restricted to their
// read-only listing variants.
var paranoidAllowlist = map[string]bool{
	"status": true, "log": true, "diff": true, "fetch": true,
	"show": true, "ls-files": true, "branch": true, "tag": true,
	"remote": true,
}

// IsPermitted applies the environment/mode rule matrix and the custom
// restriction set to argv.
func IsPermitted(ctx Context, argv []string, category classify.Category) Verdict {
	line := strings.Join(argv, " ")

	// Custom restrictions block any matching argv regardless of mode.
	for _, r := range ctx.Restrictions {
		if r != "" && strings.Contains(line, r) {
			return Verdict{Deny, fmt.Sprintf("argv matches restriction %q", r)}
		}
	}

	switch ctx.Mode {
	case Paranoid:
		return paranoidVerdict(argv)

	case CodeFreeze:
		if classify.IsWrite(argv) && !containsHotfix(argv) {
			return Verdict{Deny, "code freeze: write operations require a hotfix marker in the command"}
		}
		return Verdict{Allow, ""}

	case Maintenance:
		if category != classify.Passthrough {
			return Verdict{NeedsElevation, "maintenance mode: destructive operations require --force-yes"}
		}
		return Verdict{Allow, ""}
	}

	// Normal mode; only production adds blanket category blocks.
	if ctx.Environment == Production && productionBlocked[category] {
		return Verdict{Deny, fmt.Sprintf("category %s is blocked in production", category)}
	}
	return Verdict{Allow, ""}
}

func paranoidVerdict(argv []string) Verdict {
	sub := classify.Subcommand(argv)
	if !paranoidAllowlist[sub] {
		return Verdict{Deny, fmt.Sprintf("paranoid mode: %q is not on the allowlist", sub)}
	}
	switch sub {
	case "branch", "tag", "remote":
		if !classify.IsReadOnlyListing(argv) {
			return Verdict{Deny, fmt.Sprintf("paranoid mode: only read-only %s invocations are allowed", sub)}
		}
	}
	return Verdict{Allow, ""}
}

func containsHotfix(argv []string) bool {
	for _, a := range argv {
		if strings.Contains(strings.ToLower(a), "hotfix") {
			return true
		}
	}
	return false
}

// EscalateRisk applies environment-driven risk escalation: production turns
// High into Critical. Never lowers.
func EscalateRisk(ctx Context, risk classify.Risk) classify.Risk {
	if ctx.Environment == Production && risk == classify.High {
		return classify.Critical
	}
	return risk
}
