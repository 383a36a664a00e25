package views_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/snapshot/snaptest"
	"github.com/rewardlytics/rewardsx/pkg/table"
	"github.com/rewardlytics/rewardsx/pkg/views"
)

var (
	tsMay2  = time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC) // a Friday
	tsMay3  = time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC)
	tsMay4  = time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC) // a Sunday
	weekApr = time.Date(2025, 4, 28, 0, 0, 0, 0, time.UTC)
)

// fixtureTables is a small consistent world: two users, two partners,
// one campaign rewarded with a 100-point product of partner p1, one
// store transaction and one boost subscription.
func fixtureTables(t *testing.T) map[string]*table.Table {
	return map[string]*table.Table{
		snapshot.TableUsers: snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColUsername, snapshot.ColEmail, snapshot.ColActualPoints, snapshot.ColAgeBucket},
			[]any{"u1", "alice", "alice@example.com", float64(500), "25-34"},
			[]any{"u2", "bob", "bob@example.com", float64(120), "18-24"},
		),
		snapshot.TablePartners: snaptest.Table(t,
			[]string{snapshot.ColPartnerID, snapshot.ColPartnerName},
			[]any{"p1", "Acme"},
			[]any{"p2", "Globex"},
		),
		snapshot.TableCampaigns: snaptest.Table(t,
			[]string{snapshot.ColCampaignID, snapshot.ColCampaignName, snapshot.ColCampaignCreatedAt},
			[]any{"c1", "Spring Push", tsMay2},
		),
		snapshot.TableParticipations: snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColCampaignID, snapshot.ColParticipationCreatedAt, snapshot.ColStatus},
			[]any{"u1", "c1", tsMay2, "completed"},
			[]any{"u2", "c1", tsMay3, "pending"},
		),
		snapshot.TableRewards: snaptest.Table(t,
			[]string{snapshot.ColRewardID, snapshot.ColCampaignID, snapshot.ColProductID, snapshot.ColPrice},
			[]any{"r1", "c1", "pr1", float64(25)},
		),
		snapshot.TableProducts: snaptest.Table(t,
			[]string{snapshot.ColProductID, snapshot.ColProductName, snapshot.ColProductType, snapshot.ColProductPoints, snapshot.ColPartnerID},
			[]any{"pr1", "Badge", "collectible", float64(100), "p1"},
			[]any{"pr2", "Point Pack", "points_package", float64(0), "p1"},
		),
		snapshot.TableUserProducts: snaptest.Table(t,
			[]string{snapshot.ColStoreProductID, snapshot.ColUserID, snapshot.ColProductID},
			[]any{"up1", "u1", "pr2"},
		),
		snapshot.TableTransactions: snaptest.Table(t,
			[]string{snapshot.ColTransactionID, snapshot.ColUserID, snapshot.ColProductID, snapshot.ColPrice, snapshot.ColTransactionCreatedAt},
			[]any{"t1", "u1", "pr2", float64(250), tsMay3},
		),
		snapshot.TableBoosts: snaptest.Table(t,
			[]string{snapshot.ColBoostID, snapshot.ColBoostName, snapshot.ColPartnerID},
			[]any{"b1", "Weekend Boost", "p2"},
		),
		snapshot.TableSubscriptions: snaptest.Table(t,
			[]string{snapshot.ColSubscriptionID, snapshot.ColUserID, snapshot.ColBoostID, snapshot.ColStartDate, snapshot.ColSubscriptionCreatedAt, snapshot.ColPrice},
			[]any{"s1", "u2", "b1", tsMay2, tsMay4, float64(10)},
		),
		snapshot.TableUserPartnerScores: snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColPartnerID, snapshot.ColPartnerPoints},
			[]any{"u1", "p1", float64(300)},
		),
	}
}

func buildSnapshot(t *testing.T, mutate func(map[string]*table.Table)) *snapshot.Snapshot {
	t.Helper()
	tables := fixtureTables(t)
	if mutate != nil {
		mutate(tables)
	}
	return snaptest.Snapshot(t, tables)
}

func TestBuildCampaignsHappyPath(t *testing.T) {
	logger := zaptest.NewLogger(t)
	out, err := views.BuildCampaigns(logger, buildSnapshot(t, nil))
	require.NoError(t, err)

	// Only u1's completed participation survives the status filter.
	require.Equal(t, 1, out.NumRows())
	r := out.Row(0)
	uid, _ := r.String(snapshot.ColUserID)
	require.Equal(t, "u1", uid)
	require.Equal(t, float64(100), r.Value(snapshot.ColProductPoints))

	name, _ := r.String(snapshot.ColPartnerName)
	require.Equal(t, "Acme", name)
	require.Equal(t, float64(300), r.Value(snapshot.ColPartnerPoints))
	username, _ := r.String(snapshot.ColUsername)
	require.Equal(t, "alice", username)

	require.Equal(t, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), r.Value(views.ColParticipationDate))
	require.Equal(t, weekApr, r.Value(views.ColParticipationWeek))
}

func TestBuildCampaignsWithoutStatusColumnKeepsAll(t *testing.T) {
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableParticipations] = snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColCampaignID, snapshot.ColParticipationCreatedAt},
			[]any{"u1", "c1", tsMay2},
			[]any{"u2", "c1", tsMay3},
		)
	})

	out, err := views.BuildCampaigns(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
}

func TestBuildCampaignsStatusAlreadyNormalized(t *testing.T) {
	// Ingestion lowercases statuses; the view trusts that and compares
	// against the canonical value only.
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableParticipations] = snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColCampaignID, snapshot.ColParticipationCreatedAt, snapshot.ColStatus},
			[]any{"u1", "c1", tsMay2, snapshot.NormalizeStatus("Completed")},
			[]any{"u2", "c1", tsMay3, snapshot.NormalizeStatus("REJECTED")},
		)
	})

	out, err := views.BuildCampaigns(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
}

func TestBuildCampaignsDropsOrphans(t *testing.T) {
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableParticipations] = snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColCampaignID, snapshot.ColParticipationCreatedAt, snapshot.ColStatus},
			[]any{"u1", "c1", tsMay2, "completed"},
			[]any{"u2", "ghost-campaign", tsMay3, "completed"},
		)
	})

	out, err := views.BuildCampaigns(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
}

func TestBuildCampaignsRewardFanOut(t *testing.T) {
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableRewards] = snaptest.Table(t,
			[]string{snapshot.ColRewardID, snapshot.ColCampaignID, snapshot.ColProductID, snapshot.ColPrice},
			[]any{"r1", "c1", "pr1", float64(25)},
			[]any{"r2", "c1", "pr1", float64(30)},
		)
	})

	out, err := views.BuildCampaigns(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	// Two reward definitions fan the single completed participation into
	// two rows; the aggregation layer is what restores the grain.
	require.Equal(t, 2, out.NumRows())
}

func TestBuildCampaignsUnknownPartnerKeepsRow(t *testing.T) {
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableProducts] = snaptest.Table(t,
			[]string{snapshot.ColProductID, snapshot.ColProductName, snapshot.ColProductType, snapshot.ColProductPoints, snapshot.ColPartnerID},
			[]any{"pr1", "Badge", "collectible", float64(100), "no-such-partner"},
		)
	})

	out, err := views.BuildCampaigns(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	require.Nil(t, out.Row(0).Value(snapshot.ColPartnerName))
}

func TestBuildCampaignsEmptyParticipations(t *testing.T) {
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableParticipations] = table.New(
			snapshot.ColUserID, snapshot.ColCampaignID, snapshot.ColParticipationCreatedAt, snapshot.ColStatus)
	})

	out, err := views.BuildCampaigns(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	require.Equal(t, 0, out.NumRows())
}

func TestBuildRewards(t *testing.T) {
	out, err := views.BuildRewards(zaptest.NewLogger(t), buildSnapshot(t, nil))
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())

	r := out.Row(0)
	require.Equal(t, float64(250), r.Value(snapshot.ColPrice))
	typ, _ := r.String(snapshot.ColProductType)
	require.Equal(t, "points_package", typ)
	name, _ := r.String(snapshot.ColPartnerName)
	require.Equal(t, "Acme", name)
	username, _ := r.String(snapshot.ColUsername)
	require.Equal(t, "alice", username)
}

func TestBuildRewardsDropsTransactionsWithoutOwnedProduct(t *testing.T) {
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableTransactions] = snaptest.Table(t,
			[]string{snapshot.ColTransactionID, snapshot.ColUserID, snapshot.ColProductID, snapshot.ColPrice, snapshot.ColTransactionCreatedAt},
			[]any{"t1", "u2", "pr2", float64(250), tsMay3},
		)
	})

	out, err := views.BuildRewards(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	require.Equal(t, 0, out.NumRows())
}

func TestBuildBoosts(t *testing.T) {
	out, err := views.BuildBoosts(zaptest.NewLogger(t), buildSnapshot(t, nil))
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())

	r := out.Row(0)
	bname, _ := r.String(snapshot.ColBoostName)
	require.Equal(t, "Weekend Boost", bname)
	pname, _ := r.String(snapshot.ColPartnerName)
	require.Equal(t, "Globex", pname)
	username, _ := r.String(snapshot.ColUsername)
	require.Equal(t, "bob", username)

	require.Equal(t, time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC), r.Value(views.ColSubscriptionDate))
	require.Equal(t, weekApr, r.Value(views.ColSubscriptionWeek))
	require.Equal(t, "Sunday", r.Value(views.ColSubscriptionWeekday))
}

func TestBuildBoostsKeepsUnresolvedSubscriptions(t *testing.T) {
	snap := buildSnapshot(t, func(tables map[string]*table.Table) {
		tables[snapshot.TableSubscriptions] = snaptest.Table(t,
			[]string{snapshot.ColSubscriptionID, snapshot.ColUserID, snapshot.ColBoostID, snapshot.ColStartDate, snapshot.ColSubscriptionCreatedAt, snapshot.ColPrice},
			[]any{"s1", "ghost-user", "ghost-boost", tsMay2, tsMay4, float64(10)},
		)
	})

	out, err := views.BuildBoosts(zaptest.NewLogger(t), snap)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	require.Nil(t, out.Row(0).Value(snapshot.ColBoostName))
	require.Nil(t, out.Row(0).Value(snapshot.ColUsername))
}

func TestBuildAllViews(t *testing.T) {
	v, err := views.Build(zaptest.NewLogger(t), buildSnapshot(t, nil))
	require.NoError(t, err)
	require.NotNil(t, v.Campaigns)
	require.NotNil(t, v.Rewards)
	require.NotNil(t, v.Boosts)
}
