// Package startupcheck implements the registration-time cross-validation
// that Server.Start runs over a finished Registry. The built-in check that
// server.Builder adds is UI-whitelist-references-a-real-tool (spec.md §4.3);
// dynamic prompt/resource handler resolvability is not among the checks run
// here.
//
// The shape is adapted from the teacher repo's guards package: a composable
// Check returns a Result carrying a Severity, and a Runner aggregates
// Results from every registered Check. Where the teacher's guards enforced
// a spec-workflow state machine (proposal-before-spec, etc.), these checks
// enforce the kernel's own registration invariants.
package startupcheck

import (
	"fmt"
	"strings"
)

// Severity indicates how a failing check affects Server.Start.
type Severity int

const (
	// Warning is advisory: start proceeds, the message is logged.
	Warning Severity = iota
	// Fatal aborts Start; spec.md calls these errors Configuration errors.
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "FATAL"
	}
	return "WARNING"
}

// Result is the outcome of a single check.
type Result struct {
	CheckName string
	Passed    bool
	Severity  Severity
	Message   string
}

// Check inspects some aspect of a finished registry and reports issues.
type Check func() []Result

// Runner aggregates the results of every registered Check.
type Runner struct {
	checks []Check
}

func NewRunner() *Runner { return &Runner{} }

func (r *Runner) Add(c Check) { r.checks = append(r.checks, c) }

// Run executes every check and returns a single composed error if any
// Fatal result failed, naming each failing check. A nil return means start
// may proceed (Warning-level failures are returned alongside for the caller
// to log, but do not block).
func (r *Runner) Run() (warnings []Result, err error) {
	var fatal []Result
	for _, c := range r.checks {
		for _, res := range c() {
			if res.Passed {
				continue
			}
			if res.Severity == Fatal {
				fatal = append(fatal, res)
			} else {
				warnings = append(warnings, res)
			}
		}
	}
	if len(fatal) == 0 {
		return warnings, nil
	}
	var b strings.Builder
	b.WriteString("registration-time checks failed:")
	for _, res := range fatal {
		fmt.Fprintf(&b, "\n  - %s: %s", res.CheckName, res.Message)
	}
	return warnings, fmt.Errorf("%s", b.String())
}
