package views

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
	"github.com/rewardlytics/rewardsx/pkg/utils"
)

// BuildCampaigns assembles the campaigns view: completed participations
// resolved against their campaign, reward definition and product, then
// enriched with partner, cumulative partner score and user demographics.
//
// The inner stages are correctness rules, not optimizations: a
// participation whose campaign, reward or product cannot be resolved
// cannot produce points and must be dropped, which also clears orphaned
// rows out of the view.
func BuildCampaigns(logger *zap.Logger, snap *snapshot.Snapshot) (*table.Table, error) {
	parts := snap.Table(snapshot.TableParticipations)
	caps := snapshot.Schemas[snapshot.TableParticipations].Resolve(parts)

	// Status is an optional capability: when the export carries it, only
	// completed participations count; when it does not, everything passes.
	base := parts
	if caps.Has(snapshot.ColStatus) {
		base = parts.Filter(func(r table.Row) bool {
			s, ok := r.String(snapshot.ColStatus)
			return ok && s == snapshot.StatusCompleted
		})
	}
	if base.NumRows() == 0 {
		logger.Warn("No completed campaign participations in snapshot")
		return base, nil
	}

	base, err := innerStage(logger, base, snap.Table(snapshot.TableCampaigns), "campaigns", snapshot.ColCampaignID)
	if err != nil || base.NumRows() == 0 {
		return base, err
	}

	base, err = innerStage(logger, base, snap.Table(snapshot.TableRewards), "rewards", snapshot.ColCampaignID)
	if err != nil || base.NumRows() == 0 {
		return base, err
	}

	products := snap.Table(snapshot.TableProducts).Select(
		snapshot.ColProductID,
		snapshot.ColProductPoints,
		snapshot.ColProductName,
		snapshot.ColProductType,
		snapshot.ColPartnerID,
	)
	base, err = innerStage(logger, base, products, "products", snapshot.ColProductID)
	if err != nil || base.NumRows() == 0 {
		return base, err
	}

	base = leftEnrich(logger, base, snap.Table(snapshot.TablePartners), "partners", snapshot.ColPartnerID)
	base = leftEnrich(logger, base, snap.Table(snapshot.TableUserPartnerScores), "partner_scores",
		snapshot.ColUserID, snapshot.ColPartnerID)
	base = leftEnrich(logger, base, userEnrichment(snap.Table(snapshot.TableUsers)), "users", snapshot.ColUserID)

	if base.HasColumn(snapshot.ColParticipationCreatedAt) {
		base = base.WithColumn(ColParticipationDate, func(r table.Row) any {
			ts, ok := r.Time(snapshot.ColParticipationCreatedAt)
			if !ok {
				return nil
			}
			return utils.DateOnly(ts)
		})
		base = base.WithColumn(ColParticipationWeek, func(r table.Row) any {
			ts, ok := r.Time(snapshot.ColParticipationCreatedAt)
			if !ok {
				return nil
			}
			return utils.WeekStart(ts)
		})
	}
	return base, nil
}

// innerStage runs one mandatory resolution step. A missing key column on
// either side is a hard precondition failure; an empty result is only a
// reportable data condition.
func innerStage(logger *zap.Logger, base, right *table.Table, stage string, keys ...string) (*table.Table, error) {
	out, err := base.Join(right, table.Inner, keys...)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}
	if out.NumRows() == 0 {
		logger.Warn("Inner join stage produced no rows, likely an upstream data problem",
			zap.String("stage", stage),
			zap.Int("input_rows", base.NumRows()))
	}
	return out, nil
}
