package kpi

import (
	"fmt"
	"time"

	"github.com/rewardlytics/rewardsx/pkg/aggregate"
	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
	"github.com/rewardlytics/rewardsx/pkg/utils"
	"github.com/rewardlytics/rewardsx/pkg/views"
)

// NotAvailable distinguishes "no data to measure" from a measured zero
// change ("0%").
const NotAvailable = "N/A"

// GrowthPair is one event stream's trailing-window growth.
type GrowthPair struct {
	WoW string `json:"wow"`
	MoM string `json:"mom"`
}

// Growth is the full growth-rate block for the dashboard.
type Growth struct {
	Campaigns    GrowthPair `json:"campaigns"`
	Rewards      GrowthPair `json:"rewards"`
	Boosts       GrowthPair `json:"boosts"`
	WeeklyPoints string     `json:"weekly_points"`
}

// BuildGrowth computes growth over each view's own event timestamp,
// optionally scoped to one partner.
func BuildGrowth(v *views.Views, partner string) Growth {
	campaigns := FilterPartner(v.Campaigns, partner)
	rewards := FilterPartner(v.Rewards, partner)
	boosts := FilterPartner(v.Boosts, partner)
	return Growth{
		Campaigns: GrowthPair{
			WoW: EventGrowth(campaigns, snapshot.ColParticipationCreatedAt, 7),
			MoM: EventGrowth(campaigns, snapshot.ColParticipationCreatedAt, 30),
		},
		Rewards: GrowthPair{
			WoW: EventGrowth(rewards, snapshot.ColTransactionCreatedAt, 7),
			MoM: EventGrowth(rewards, snapshot.ColTransactionCreatedAt, 30),
		},
		Boosts: GrowthPair{
			WoW: EventGrowth(boosts, snapshot.ColSubscriptionCreatedAt, 7),
			MoM: EventGrowth(boosts, snapshot.ColSubscriptionCreatedAt, 30),
		},
		WeeklyPoints: WeeklyPointsGrowth(campaigns),
	}
}

// EventGrowth compares the count of events in the trailing windowDays
// window ending at the latest observed timestamp against the preceding
// window of the same length. No timestamp column, no rows or no
// parseable timestamps at all read as NotAvailable.
func EventGrowth(t *table.Table, timeCol string, windowDays int) string {
	if t == nil || t.NumRows() == 0 || !t.HasColumn(timeCol) {
		return NotAvailable
	}
	latest, ok := latestTimestamp(t, timeCol)
	if !ok {
		return NotAvailable
	}

	window := time.Duration(windowDays) * 24 * time.Hour
	currentFrom := latest.Add(-window)
	priorFrom := latest.Add(-2 * window)

	var current, prior float64
	for i := 0; i < t.NumRows(); i++ {
		ts, ok := t.Row(i).Time(timeCol)
		if !ok {
			continue
		}
		switch {
		case ts.After(currentFrom) && !ts.After(latest):
			current++
		case ts.After(priorFrom) && !ts.After(currentFrom):
			prior++
		}
	}
	return formatGrowth(prior, current)
}

// WeeklyPointsGrowth applies the same ratio logic to calendar-week
// (Mon-Sun) sums of the deduplicated partner score, comparing the week
// of the latest observed participation against the week before it.
func WeeklyPointsGrowth(campaigns *table.Table) string {
	if campaigns == nil || campaigns.NumRows() == 0 ||
		!campaigns.HasColumns(snapshot.ColParticipationCreatedAt, snapshot.ColPartnerPoints) {
		return NotAvailable
	}
	rows := aggregate.DedupPartnerRows(campaigns)
	latest, ok := latestTimestamp(rows, snapshot.ColParticipationCreatedAt)
	if !ok {
		return NotAvailable
	}

	currentWeek := utils.WeekStart(latest)
	priorWeek := currentWeek.AddDate(0, 0, -7)

	var current, prior float64
	for i := 0; i < rows.NumRows(); i++ {
		r := rows.Row(i)
		ts, ok := r.Time(snapshot.ColParticipationCreatedAt)
		if !ok {
			continue
		}
		switch utils.WeekStart(ts) {
		case currentWeek:
			current += r.Float(snapshot.ColPartnerPoints)
		case priorWeek:
			prior += r.Float(snapshot.ColPartnerPoints)
		}
	}
	return formatGrowth(prior, current)
}

// formatGrowth renders the sentinel-aware growth string: "0%" when both
// windows are empty, the fixed "+100%" when something appeared out of
// nothing, otherwise the signed percentage to one decimal.
func formatGrowth(prior, current float64) string {
	switch {
	case prior == 0 && current == 0:
		return "0%"
	case prior == 0:
		return "+100%"
	default:
		return fmt.Sprintf("%+.1f%%", (current-prior)/prior*100)
	}
}

func latestTimestamp(t *table.Table, timeCol string) (time.Time, bool) {
	var latest time.Time
	found := false
	for i := 0; i < t.NumRows(); i++ {
		if ts, ok := t.Row(i).Time(timeCol); ok {
			if !found || ts.After(latest) {
				latest = ts
				found = true
			}
		}
	}
	return latest, found
}
