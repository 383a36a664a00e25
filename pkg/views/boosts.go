package views

import (
	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
	"github.com/rewardlytics/rewardsx/pkg/utils"
)

// BuildBoosts assembles the boosts view over subscriptions. Every stage
// is a left join: a subscription is an engagement event in its own right
// and still counts when its boost, partner or user cannot be resolved.
func BuildBoosts(logger *zap.Logger, snap *snapshot.Snapshot) (*table.Table, error) {
	base := snap.Table(snapshot.TableSubscriptions)

	base = leftEnrich(logger, base, snap.Table(snapshot.TableBoosts), "boosts", snapshot.ColBoostID)
	base = leftEnrich(logger, base, snap.Table(snapshot.TablePartners), "partners", snapshot.ColPartnerID)
	base = leftEnrich(logger, base, userEnrichment(snap.Table(snapshot.TableUsers)), "users", snapshot.ColUserID)

	if base.HasColumn(snapshot.ColSubscriptionCreatedAt) {
		base = base.WithColumn(ColSubscriptionDate, func(r table.Row) any {
			ts, ok := r.Time(snapshot.ColSubscriptionCreatedAt)
			if !ok {
				return nil
			}
			return utils.DateOnly(ts)
		})
		base = base.WithColumn(ColSubscriptionWeek, func(r table.Row) any {
			ts, ok := r.Time(snapshot.ColSubscriptionCreatedAt)
			if !ok {
				return nil
			}
			return utils.WeekStart(ts)
		})
		base = base.WithColumn(ColSubscriptionWeekday, func(r table.Row) any {
			ts, ok := r.Time(snapshot.ColSubscriptionCreatedAt)
			if !ok {
				return nil
			}
			return ts.UTC().Weekday().String()
		})
	}
	return base, nil
}
