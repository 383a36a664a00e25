// Package kpi composes the cross-view dashboard metrics out of the
// aggregation layer's outputs: engaged-user counts, point totals and
// growth-rate strings.
package kpi

import (
	"sort"
	"strings"

	"github.com/rewardlytics/rewardsx/pkg/aggregate"
	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
	"github.com/rewardlytics/rewardsx/pkg/views"
)

// Formula selects which "total points generated" definition a deployment
// considers canonical. The platform historically shipped both; they are
// not equivalent, so the choice is explicit configuration rather than a
// guess.
type Formula string

const (
	// FormulaPartnerScores totals the deduplicated cumulative partner
	// scores plus purchased-points transactions.
	FormulaPartnerScores Formula = "partner_scores"
	// FormulaCampaignValue totals the per-participation product points
	// plus redemption point values.
	FormulaCampaignValue Formula = "campaign_value"
)

// ParseFormula normalizes a configured formula name, defaulting to
// partner scores.
func ParseFormula(s string) Formula {
	if Formula(strings.ToLower(strings.TrimSpace(s))) == FormulaCampaignValue {
		return FormulaCampaignValue
	}
	return FormulaPartnerScores
}

// FilterPartner scopes a view to one partner by name. An empty partner
// means no scoping; a view without a partner name column yields the
// empty table, since none of its rows can be attributed to the partner.
func FilterPartner(t *table.Table, partner string) *table.Table {
	if t == nil {
		return table.New()
	}
	if partner == "" {
		return t
	}
	if !t.HasColumn(snapshot.ColPartnerName) {
		return table.New(t.Columns()...)
	}
	return t.Filter(func(r table.Row) bool {
		name, ok := r.String(snapshot.ColPartnerName)
		return ok && name == partner
	})
}

// EngagedUserSet is the union of distinct user ids across the three
// views, optionally scoped to one partner. Appearing anywhere, whether a
// redemption, a subscription or a completed participation, makes a user
// engaged.
func EngagedUserSet(v *views.Views, partner string) map[string]bool {
	set := map[string]bool{}
	for _, t := range []*table.Table{
		FilterPartner(v.Rewards, partner),
		FilterPartner(v.Boosts, partner),
		FilterPartner(v.Campaigns, partner),
	} {
		if !t.HasColumn(snapshot.ColUserID) {
			continue
		}
		for i := 0; i < t.NumRows(); i++ {
			if uid, ok := t.Row(i).String(snapshot.ColUserID); ok {
				set[uid] = true
			}
		}
	}
	return set
}

// Dashboard is the KPI tile block the presentation layer renders.
type Dashboard struct {
	Partner       string  `json:"partner,omitempty"`
	EngagedUsers  int     `json:"engaged_users"`
	MissionPoints float64 `json:"mission_points"`
	Redemptions   int     `json:"redemptions"`
	Subscriptions int     `json:"subscriptions"`
	TotalPoints   float64 `json:"total_points"`
	Formula       Formula `json:"formula"`
}

// BuildDashboard computes the scalar KPIs for one partner scope. Empty
// views read as zero everywhere; they are "no data", never an error.
func BuildDashboard(v *views.Views, partner string, formula Formula) Dashboard {
	campaigns := FilterPartner(v.Campaigns, partner)
	rewards := FilterPartner(v.Rewards, partner)
	boosts := FilterPartner(v.Boosts, partner)

	var missions float64
	if campaigns.HasColumn(snapshot.ColProductPoints) {
		for i := 0; i < campaigns.NumRows(); i++ {
			missions += campaigns.Row(i).Float(snapshot.ColProductPoints)
		}
	}

	return Dashboard{
		Partner:       partner,
		EngagedUsers:  len(EngagedUserSet(v, partner)),
		MissionPoints: missions,
		Redemptions:   rewards.NumRows(),
		Subscriptions: boosts.NumRows(),
		TotalPoints:   TotalPoints(campaigns, rewards, formula),
		Formula:       formula,
	}
}

// TotalPoints computes "total points generated" under the configured
// formula. Both components of either formula are independently
// zero-safe: a missing column or an empty view contributes zero.
func TotalPoints(campaigns, rewards *table.Table, formula Formula) float64 {
	switch formula {
	case FormulaCampaignValue:
		var missions float64
		if campaigns != nil && campaigns.HasColumn(snapshot.ColProductPoints) {
			for i := 0; i < campaigns.NumRows(); i++ {
				missions += campaigns.Row(i).Float(snapshot.ColProductPoints)
			}
		}
		return missions + redemptionSum(rewards, false)
	default:
		var partner float64
		for _, pts := range aggregate.PartnerPoints(campaigns) {
			partner += pts
		}
		return partner + redemptionSum(rewards, true)
	}
}

// redemptionSum totals redemption point values, dropping transaction-id
// duplicates first. With pointsPackagesOnly set, only purchased-points
// transactions count.
func redemptionSum(rewards *table.Table, pointsPackagesOnly bool) float64 {
	if rewards == nil || !rewards.HasColumn(snapshot.ColPrice) {
		return 0
	}
	clean := rewards
	if rewards.HasColumn(snapshot.ColTransactionID) {
		clean = rewards.DedupFirst(snapshot.ColTransactionID)
	}
	var sum float64
	for i := 0; i < clean.NumRows(); i++ {
		r := clean.Row(i)
		if pointsPackagesOnly {
			typ, ok := r.String(snapshot.ColProductType)
			if !ok || typ != snapshot.ProductTypePointsPackage {
				continue
			}
		}
		sum += r.Float(snapshot.ColPrice)
	}
	return sum
}

// PartnerNames lists the distinct partner names across the three views,
// the filter dropdown's source of truth.
func PartnerNames(v *views.Views) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range []*table.Table{v.Campaigns, v.Rewards, v.Boosts} {
		if t == nil || !t.HasColumn(snapshot.ColPartnerName) {
			continue
		}
		for i := 0; i < t.NumRows(); i++ {
			if name, ok := t.Row(i).String(snapshot.ColPartnerName); ok && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}
