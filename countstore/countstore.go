// Package countstore tracks per-rule hit and distinct-offender tallies
// over rolling hour/day/total periods, for operator dashboards and
// runaway-rule diagnostics.
package countstore

import (
	"context"
	"time"
)

type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodTotal Period = "total"
)

var allPeriods = []Period{PeriodHour, PeriodDay, PeriodTotal}

type CountStore interface {
	// RecordHit bumps the rule's match tally in every period.
	RecordHit(ctx context.Context, rule string) error
	// RuleHits returns how many times the rule matched in the period.
	RuleHits(ctx context.Context, rule string, period Period) (int, error)
	// RecordOffender notes a user the rule matched against, in every
	// period.
	RecordOffender(ctx context.Context, rule, userID string) error
	// RuleOffenders returns how many distinct users the rule matched
	// against in the period.
	RuleOffenders(ctx context.Context, rule string, period Period) (int, error)
}

// periodKey stamps the rule name with the period's current wall-clock
// slot, so rolling buckets age out instead of being reset in place.
func periodKey(rule string, period Period) string {
	now := time.Now().UTC()
	switch period {
	case PeriodHour:
		return rule + "/" + now.Format("2006-01-02T15")
	case PeriodDay:
		return rule + "/" + now.Format(time.DateOnly)
	default:
		return rule
	}
}

// rolling buckets live twice their span, keeping the previous bucket
// readable while the current one fills
func periodTTL(period Period) time.Duration {
	switch period {
	case PeriodHour:
		return 2 * time.Hour
	case PeriodDay:
		return 48 * time.Hour
	default:
		return 0
	}
}
