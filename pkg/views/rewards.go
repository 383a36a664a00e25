package views

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
)

// BuildRewards assembles the rewards view: store transactions matched to
// the products the user owns, enriched with product, partner and user
// attributes.
//
// The base join runs on user_id, not on the store-product instance key.
// Joining on the instance key looks more precise but multiplies rows when
// a transaction maps onto several owned-product records; user_id is the
// grain the per-user aggregation needs, and the transaction-id dedup in
// the aggregation layer absorbs the fan-out this join does introduce.
func BuildRewards(logger *zap.Logger, snap *snapshot.Snapshot) (*table.Table, error) {
	tx := snap.Table(snapshot.TableTransactions)
	owned := snap.Table(snapshot.TableUserProducts)

	base, err := tx.Join(owned, table.Inner, snapshot.ColUserID)
	if err != nil {
		return nil, fmt.Errorf("stage user_products: %w", err)
	}
	if base.NumRows() == 0 {
		logger.Warn("No transactions matched an owned product",
			zap.Int("transactions", tx.NumRows()),
			zap.Int("user_products", owned.NumRows()))
		return base, nil
	}

	base = leftEnrich(logger, base, snap.Table(snapshot.TableProducts), "products", snapshot.ColProductID)
	base = leftEnrich(logger, base, snap.Table(snapshot.TablePartners), "partners", snapshot.ColPartnerID)
	base = leftEnrich(logger, base, userEnrichment(snap.Table(snapshot.TableUsers)), "users", snapshot.ColUserID)
	return base, nil
}
