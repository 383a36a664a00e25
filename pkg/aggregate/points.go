// Package aggregate computes correct per-user point totals from the
// joined views. Its whole job is restoring the right grain before
// summing: the joins that build the views fan rows out, and summing a
// fanned-out table silently multiplies every score by its join
// multiplicity.
package aggregate

import (
	"sort"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
)

// PartnerPoints returns each user's summed cumulative partner score from
// the campaigns view. The score is logically one row per (user, partner),
// so the view is first reduced to one row per (user_id, partner_name),
// keeping the first occurrence, and only the retained rows are summed.
// Summing before the reduction would count a user's score once per
// redundant join row.
func PartnerPoints(campaigns *table.Table) map[string]float64 {
	out := map[string]float64{}
	if campaigns == nil || !campaigns.HasColumns(snapshot.ColUserID, snapshot.ColPartnerPoints) {
		return out
	}
	deduped := campaigns.DedupFirst(snapshot.ColUserID, snapshot.ColPartnerName)
	for i := 0; i < deduped.NumRows(); i++ {
		r := deduped.Row(i)
		uid, ok := r.String(snapshot.ColUserID)
		if !ok {
			continue
		}
		out[uid] += r.Float(snapshot.ColPartnerPoints)
	}
	return out
}

// DedupPartnerRows exposes the retained one-row-per-(user, partner) slice
// of the campaigns view, for consumers (weekly growth) that need the
// deduplicated rows rather than the per-user sums.
func DedupPartnerRows(campaigns *table.Table) *table.Table {
	if campaigns == nil {
		return table.New()
	}
	return campaigns.DedupFirst(snapshot.ColUserID, snapshot.ColPartnerName)
}

// RewardPoints returns each user's summed redemption point value from
// the rewards view. The view's grain is one row per redemption, but the
// owned-product join can replay a transaction, so rows are first reduced
// to one per transaction id when that column survived ingestion.
func RewardPoints(rewards *table.Table) map[string]float64 {
	out := map[string]float64{}
	if rewards == nil || !rewards.HasColumns(snapshot.ColUserID, snapshot.ColPrice) {
		return out
	}
	clean := rewards
	if rewards.HasColumn(snapshot.ColTransactionID) {
		clean = rewards.DedupFirst(snapshot.ColTransactionID)
	}
	for i := 0; i < clean.NumRows(); i++ {
		r := clean.Row(i)
		uid, ok := r.String(snapshot.ColUserID)
		if !ok {
			continue
		}
		out[uid] += r.Float(snapshot.ColPrice)
	}
	return out
}

// BoostPoints returns each user's summed subscription point value from
// the boosts view. The view grain is already one row per subscription.
func BoostPoints(boosts *table.Table) map[string]float64 {
	out := map[string]float64{}
	if boosts == nil || !boosts.HasColumns(snapshot.ColUserID, snapshot.ColPrice) {
		return out
	}
	for i := 0; i < boosts.NumRows(); i++ {
		r := boosts.Row(i)
		uid, ok := r.String(snapshot.ColUserID)
		if !ok {
			continue
		}
		out[uid] += r.Float(snapshot.ColPrice)
	}
	return out
}

// MissionPointsByUser sums the campaigns view's product point value per
// user, without the (user, partner) reduction: each completed
// participation row carries the points its product grants.
func MissionPointsByUser(campaigns *table.Table) map[string]float64 {
	out := map[string]float64{}
	if campaigns == nil || !campaigns.HasColumns(snapshot.ColUserID, snapshot.ColProductPoints) {
		return out
	}
	for i := 0; i < campaigns.NumRows(); i++ {
		r := campaigns.Row(i)
		uid, ok := r.String(snapshot.ColUserID)
		if !ok {
			continue
		}
		out[uid] += r.Float(snapshot.ColProductPoints)
	}
	return out
}

// UserTotal is one user's point breakdown across the three sources.
type UserTotal struct {
	UserID        string  `json:"user_id"`
	Username      string  `json:"username,omitempty"`
	PartnerPoints float64 `json:"partner_points"`
	RewardPoints  float64 `json:"reward_points"`
	BoostPoints   float64 `json:"boost_points"`
	Total         float64 `json:"total"`
}

// Totals outer-unions the three per-user series into one breakdown per
// user, missing entries counting as zero. A user present only in the
// boosts view gets exactly their boost points as total; absence from a
// source never drops the user or poisons the sum.
func Totals(campaigns, rewards, boosts *table.Table) []UserTotal {
	partner := PartnerPoints(campaigns)
	reward := RewardPoints(rewards)
	boost := BoostPoints(boosts)

	names := usernames(campaigns, rewards, boosts)

	ids := map[string]bool{}
	for uid := range partner {
		ids[uid] = true
	}
	for uid := range reward {
		ids[uid] = true
	}
	for uid := range boost {
		ids[uid] = true
	}

	out := make([]UserTotal, 0, len(ids))
	for uid := range ids {
		t := UserTotal{
			UserID:        uid,
			Username:      names[uid],
			PartnerPoints: partner[uid],
			RewardPoints:  reward[uid],
			BoostPoints:   boost[uid],
		}
		t.Total = t.PartnerPoints + t.RewardPoints + t.BoostPoints
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func usernames(tables ...*table.Table) map[string]string {
	out := map[string]string{}
	for _, t := range tables {
		if t == nil || !t.HasColumns(snapshot.ColUserID, snapshot.ColUsername) {
			continue
		}
		for i := 0; i < t.NumRows(); i++ {
			r := t.Row(i)
			uid, ok := r.String(snapshot.ColUserID)
			if !ok {
				continue
			}
			if _, seen := out[uid]; seen {
				continue
			}
			if name, ok := r.String(snapshot.ColUsername); ok {
				out[uid] = name
			}
		}
	}
	return out
}
