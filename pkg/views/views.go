// Package views is the join engine: it turns the canonical snapshot
// tables into the three wide analytical views the aggregation and KPI
// layers consume. Each view follows a fixed, ordered join plan in which
// the join type encodes a business rule: inner stages drop rows that
// cannot produce a valid point-bearing event, left stages only enrich.
package views

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
)

// Derived column names added by the view builders.
const (
	ColParticipationDate   = "participation_date"
	ColParticipationWeek   = "participation_week"
	ColSubscriptionDate    = "subscription_date"
	ColSubscriptionWeek    = "subscription_week"
	ColSubscriptionWeekday = "subscription_weekday"
)

// Views is the output of one join-engine pass over a snapshot.
type Views struct {
	Campaigns *table.Table
	Rewards   *table.Table
	Boosts    *table.Table
}

// Build runs all three join plans. Inner-stage precondition failures
// (missing key columns) abort; empty inner results yield empty views and
// a warning, since downstream layers treat an empty view as "no data".
func Build(logger *zap.Logger, snap *snapshot.Snapshot) (*Views, error) {
	campaigns, err := BuildCampaigns(logger, snap)
	if err != nil {
		return nil, fmt.Errorf("views: campaigns: %w", err)
	}
	rewards, err := BuildRewards(logger, snap)
	if err != nil {
		return nil, fmt.Errorf("views: rewards: %w", err)
	}
	boosts, err := BuildBoosts(logger, snap)
	if err != nil {
		return nil, fmt.Errorf("views: boosts: %w", err)
	}
	return &Views{Campaigns: campaigns, Rewards: rewards, Boosts: boosts}, nil
}

// userEnrichment is the demographic slice of the users table every view
// attaches. Join idempotency (columns already present are never re-added)
// makes attaching it safe at any stage.
func userEnrichment(users *table.Table) *table.Table {
	return users.Select(
		snapshot.ColUserID,
		snapshot.ColUsername,
		snapshot.ColEmail,
		snapshot.ColActualPoints,
		snapshot.ColAgeBucket,
	)
}

// leftEnrich left-joins right onto base when every key column exists on
// both sides, and otherwise returns base untouched: a missing enrichment
// column narrows the view instead of failing the run.
func leftEnrich(logger *zap.Logger, base, right *table.Table, stage string, keys ...string) *table.Table {
	if !base.HasColumns(keys...) || !right.HasColumns(keys...) {
		logger.Debug("Skipping enrichment stage, key columns unavailable",
			zap.String("stage", stage),
			zap.Strings("keys", keys))
		return base
	}
	out, err := base.Join(right, table.Left, keys...)
	if err != nil {
		// Keys were checked above; any residual error means a bug worth
		// surfacing in logs, not a reason to drop the run.
		logger.Warn("Enrichment stage failed", zap.String("stage", stage), zap.Error(err))
		return base
	}
	return out
}
