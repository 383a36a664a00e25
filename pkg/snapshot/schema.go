package snapshot

import "github.com/rewardlytics/rewardsx/pkg/table"

// Canonical table names. One immutable snapshot of each is the input
// contract of the whole pipeline.
const (
	TableUsers             = "users"
	TablePartners          = "partners"
	TableCampaigns         = "campaigns"
	TableParticipations    = "campaign_participations"
	TableRewards           = "rewards"
	TableProducts          = "products"
	TableUserProducts      = "user_products"
	TableTransactions      = "store_transactions"
	TableBoosts            = "boosts"
	TableSubscriptions     = "subscriptions"
	TableUserPartnerScores = "user_partner_scores"
)

// Canonical column names shared across the pipeline. Per-table timestamp
// and id columns carry a table prefix so the wide joined views never
// collide on names.
const (
	ColUserID        = "user_id"
	ColUsername      = "username"
	ColEmail         = "email"
	ColActualPoints  = "actual_points"
	ColAgeBucket     = "age_bucket"
	ColUserCreatedAt = "user_created_at"

	ColPartnerID   = "partner_id"
	ColPartnerName = "partner_name"

	ColCampaignID        = "campaign_id"
	ColCampaignName      = "campaign_name"
	ColCampaignCreatedAt = "campaign_created_at"

	ColStatus                 = "status"
	ColParticipationCreatedAt = "participation_created_at"

	ColRewardID = "reward_id"

	ColProductID     = "product_id"
	ColProductName   = "product_name"
	ColProductType   = "product_type"
	ColProductPoints = "product_points"

	ColStoreProductID        = "store_product_id"
	ColStoreProductCreatedAt = "store_product_created_at"

	ColTransactionID        = "transaction_id"
	ColPrice                = "price"
	ColTransactionCreatedAt = "transaction_created_at"

	ColBoostID   = "boost_id"
	ColBoostName = "boost_name"

	ColSubscriptionID        = "subscription_id"
	ColStartDate             = "start_date"
	ColSubscriptionCreatedAt = "subscription_created_at"

	ColPartnerPoints = "partner_points"
)

// StatusCompleted is the one participation status that counts. Status is
// lowercased and trimmed at the ingestion boundary, so downstream filters
// treat it as a closed enumeration.
const StatusCompleted = "completed"

// ProductTypePointsPackage marks purchased-points products, the
// transaction flavor the partner-scores total-points formula adds in.
const ProductTypePointsPackage = "points_package"

// Schemas declares the column contract per canonical table. Guaranteed
// columns always come out of ingestion; optional ones depend on the
// export (the participation status column is the notable case: without
// it, every participation counts).
var Schemas = map[string]table.Schema{
	TableUsers: {
		Guaranteed: []table.Column{
			{Name: ColUserID, Kind: table.KindString},
			{Name: ColUsername, Kind: table.KindString},
			{Name: ColActualPoints, Kind: table.KindFloat},
			{Name: ColAgeBucket, Kind: table.KindString},
		},
		Optional: []table.Column{
			{Name: ColEmail, Kind: table.KindString},
			{Name: ColUserCreatedAt, Kind: table.KindTime},
		},
	},
	TablePartners: {
		Guaranteed: []table.Column{
			{Name: ColPartnerID, Kind: table.KindString},
			{Name: ColPartnerName, Kind: table.KindString},
		},
	},
	TableCampaigns: {
		Guaranteed: []table.Column{
			{Name: ColCampaignID, Kind: table.KindString},
			{Name: ColCampaignName, Kind: table.KindString},
			{Name: ColCampaignCreatedAt, Kind: table.KindTime},
		},
	},
	TableParticipations: {
		Guaranteed: []table.Column{
			{Name: ColUserID, Kind: table.KindString},
			{Name: ColCampaignID, Kind: table.KindString},
			{Name: ColParticipationCreatedAt, Kind: table.KindTime},
		},
		Optional: []table.Column{
			{Name: ColStatus, Kind: table.KindString},
		},
	},
	TableRewards: {
		Guaranteed: []table.Column{
			{Name: ColRewardID, Kind: table.KindString},
			{Name: ColCampaignID, Kind: table.KindString},
			{Name: ColProductID, Kind: table.KindString},
			{Name: ColPrice, Kind: table.KindFloat},
		},
	},
	TableProducts: {
		Guaranteed: []table.Column{
			{Name: ColProductID, Kind: table.KindString},
			{Name: ColProductName, Kind: table.KindString},
			{Name: ColProductType, Kind: table.KindString},
			{Name: ColProductPoints, Kind: table.KindFloat},
		},
		Optional: []table.Column{
			{Name: ColPartnerID, Kind: table.KindString},
		},
	},
	TableUserProducts: {
		Guaranteed: []table.Column{
			{Name: ColStoreProductID, Kind: table.KindString},
			{Name: ColUserID, Kind: table.KindString},
			{Name: ColProductID, Kind: table.KindString},
		},
		Optional: []table.Column{
			{Name: ColStoreProductCreatedAt, Kind: table.KindTime},
		},
	},
	TableTransactions: {
		Guaranteed: []table.Column{
			{Name: ColTransactionID, Kind: table.KindString},
			{Name: ColUserID, Kind: table.KindString},
			{Name: ColProductID, Kind: table.KindString},
			{Name: ColPrice, Kind: table.KindFloat},
			{Name: ColTransactionCreatedAt, Kind: table.KindTime},
		},
	},
	TableBoosts: {
		Guaranteed: []table.Column{
			{Name: ColBoostID, Kind: table.KindString},
			{Name: ColBoostName, Kind: table.KindString},
			{Name: ColPartnerID, Kind: table.KindString},
		},
	},
	TableSubscriptions: {
		Guaranteed: []table.Column{
			{Name: ColSubscriptionID, Kind: table.KindString},
			{Name: ColUserID, Kind: table.KindString},
			{Name: ColBoostID, Kind: table.KindString},
			{Name: ColStartDate, Kind: table.KindTime},
			{Name: ColSubscriptionCreatedAt, Kind: table.KindTime},
			{Name: ColPrice, Kind: table.KindFloat},
		},
	},
	TableUserPartnerScores: {
		Guaranteed: []table.Column{
			{Name: ColUserID, Kind: table.KindString},
			{Name: ColPartnerID, Kind: table.KindString},
			{Name: ColPartnerPoints, Kind: table.KindFloat},
		},
	},
}

// RequiredTables is the canonical set a snapshot must carry. A missing
// table aborts the run with an error naming it.
var RequiredTables = []string{
	TableUsers,
	TablePartners,
	TableCampaigns,
	TableParticipations,
	TableRewards,
	TableProducts,
	TableUserProducts,
	TableTransactions,
	TableBoosts,
	TableSubscriptions,
	TableUserPartnerScores,
}
