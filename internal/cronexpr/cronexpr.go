// Package cronexpr implements the cron-expression evaluator collaborator
// named in the scheduling spec: NextFireTime(pattern, after) -> time.
package cronexpr

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// NextFireTime returns the next time pattern fires strictly after after.
// An empty pattern means "one-shot, never recurs again" — the caller is
// expected to have handled the one-shot case (remaining_executions) before
// reaching here; NextFireTime errors if it is asked to parse an empty
// pattern so that mistake surfaces immediately instead of scheduling a
// bogus recurrence.
func NextFireTime(pattern string, after time.Time) (time.Time, error) {
	if pattern == "" {
		return time.Time{}, fmt.Errorf("cronexpr: empty pattern has no next fire time")
	}

	sched, err := cron.ParseStandard(pattern)
	if err != nil {
		return time.Time{}, fmt.Errorf("cronexpr: parse %q: %w", pattern, err)
	}

	return sched.Next(after), nil
}
