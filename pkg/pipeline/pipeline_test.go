package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rewardlytics/rewardsx/pkg/pipeline"
	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/snapshot/snaptest"
	"github.com/rewardlytics/rewardsx/pkg/table"
)

func fixtureSnapshot(t *testing.T, score float64) *snapshot.Snapshot {
	ts := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	return snaptest.Snapshot(t, map[string]*table.Table{
		snapshot.TableUsers: snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColUsername, snapshot.ColActualPoints, snapshot.ColAgeBucket},
			[]any{"u1", "alice", float64(500), "25-34"},
		),
		snapshot.TablePartners: snaptest.Table(t,
			[]string{snapshot.ColPartnerID, snapshot.ColPartnerName},
			[]any{"p1", "Acme"},
		),
		snapshot.TableCampaigns: snaptest.Table(t,
			[]string{snapshot.ColCampaignID, snapshot.ColCampaignName, snapshot.ColCampaignCreatedAt},
			[]any{"c1", "Spring Push", ts},
		),
		snapshot.TableParticipations: snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColCampaignID, snapshot.ColParticipationCreatedAt, snapshot.ColStatus},
			[]any{"u1", "c1", ts, "completed"},
		),
		snapshot.TableRewards: snaptest.Table(t,
			[]string{snapshot.ColRewardID, snapshot.ColCampaignID, snapshot.ColProductID, snapshot.ColPrice},
			[]any{"r1", "c1", "pr1", float64(25)},
		),
		snapshot.TableProducts: snaptest.Table(t,
			[]string{snapshot.ColProductID, snapshot.ColProductName, snapshot.ColProductType, snapshot.ColProductPoints, snapshot.ColPartnerID},
			[]any{"pr1", "Badge", "collectible", float64(100), "p1"},
		),
		snapshot.TableUserPartnerScores: snaptest.Table(t,
			[]string{snapshot.ColUserID, snapshot.ColPartnerID, snapshot.ColPartnerPoints},
			[]any{"u1", "p1", score},
		),
	})
}

func TestRunProducesTotals(t *testing.T) {
	res, err := pipeline.Run(zaptest.NewLogger(t), fixtureSnapshot(t, 300))
	require.NoError(t, err)
	require.NotEmpty(t, res.Fingerprint)
	require.False(t, res.BuiltAt.IsZero())

	require.Len(t, res.Totals, 1)
	require.Equal(t, "u1", res.Totals[0].UserID)
	require.Equal(t, float64(300), res.Totals[0].PartnerPoints)
	require.Equal(t, float64(300), res.Totals[0].Total)
}

func TestRunIsDeterministic(t *testing.T) {
	logger := zaptest.NewLogger(t)
	first, err := pipeline.Run(logger, fixtureSnapshot(t, 300))
	require.NoError(t, err)
	second, err := pipeline.Run(logger, fixtureSnapshot(t, 300))
	require.NoError(t, err)

	require.Equal(t, first.Fingerprint, second.Fingerprint)
	require.Equal(t, first.Totals, second.Totals)
}

func TestCacheMemoizesByFingerprint(t *testing.T) {
	cache := pipeline.NewCache(zaptest.NewLogger(t))

	first, err := cache.Get(fixtureSnapshot(t, 300))
	require.NoError(t, err)
	require.Equal(t, 1, cache.Size())

	// An identical snapshot loaded later shares the fingerprint and must
	// come back as the same result instance.
	again, err := cache.Get(fixtureSnapshot(t, 300))
	require.NoError(t, err)
	require.Same(t, first, again)
	require.Equal(t, 1, cache.Size())

	// Different content computes separately.
	other, err := cache.Get(fixtureSnapshot(t, 999))
	require.NoError(t, err)
	require.NotSame(t, first, other)
	require.Equal(t, 2, cache.Size())
}

func TestCacheInvalidate(t *testing.T) {
	cache := pipeline.NewCache(zaptest.NewLogger(t))
	snap := fixtureSnapshot(t, 300)

	first, err := cache.Get(snap)
	require.NoError(t, err)

	cache.Invalidate(snap.Fingerprint())
	require.Equal(t, 0, cache.Size())

	recomputed, err := cache.Get(snap)
	require.NoError(t, err)
	require.NotSame(t, first, recomputed)
	require.Equal(t, first.Fingerprint, recomputed.Fingerprint)
}

func TestCacheReset(t *testing.T) {
	cache := pipeline.NewCache(zaptest.NewLogger(t))
	_, err := cache.Get(fixtureSnapshot(t, 300))
	require.NoError(t, err)
	_, err = cache.Get(fixtureSnapshot(t, 999))
	require.NoError(t, err)
	require.Equal(t, 2, cache.Size())

	cache.Reset()
	require.Equal(t, 0, cache.Size())
}
