package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/table"
	"github.com/rewardlytics/rewardsx/pkg/utils"
)

// csvTableSpec describes how one exported CSV file maps onto a canonical
// table: columns to discard, raw header renames, and which normalization
// pass runs after the raw load. Headers without an explicit rename slug
// down to lowercase underscore form ("User ID" -> "user_id").
type csvTableSpec struct {
	file      string
	drop      []string
	rename    map[string]string
	normalize func(*table.Table) *table.Table
}

var csvSpecs = map[string]csvTableSpec{
	TableUsers: {
		file: "user.csv",
		drop: []string{"Lottery Numbers", "Pin", "Full Name", "Banner Picture URL", "Profile Picture URL", "User Preferences"},
		rename: map[string]string{
			"ID":         ColUserID,
			"Score":      ColActualPoints,
			"Created At": ColUserCreatedAt,
		},
		normalize: normalizeUsers,
	},
	TablePartners: {
		file: "partner.csv",
		drop: []string{"Logo URL", "Settings", "Discord Guild ID", "Description", "Discord URL", "Insta Gram URL", "Modalities", "Site URL", "Twitch URL"},
		rename: map[string]string{
			"ID":   ColPartnerID,
			"Name": ColPartnerName,
		},
	},
	TableCampaigns: {
		file: "campaign.csv",
		drop: []string{"Description", "Cover Picture URL", "Start Date", "Finish Date", "Status", "Highlight", "Premium", "Sponsored", "Updated At"},
		rename: map[string]string{
			"ID":         ColCampaignID,
			"Name":       ColCampaignName,
			"Created At": ColCampaignCreatedAt,
		},
	},
	TableParticipations: {
		file: "campaign_user.csv",
		drop: []string{"Updated At"},
		rename: map[string]string{
			"ID":         "participation_id",
			"Created At": ColParticipationCreatedAt,
		},
		normalize: normalizeParticipations,
	},
	TableRewards: {
		file: "reward.csv",
		rename: map[string]string{
			"ID": ColRewardID,
		},
	},
	TableProducts: {
		file: "product.csv",
		drop: []string{"Description", "Cover Picture URL", "Hash", "Tags", "Redeemable"},
		rename: map[string]string{
			"ID":   ColProductID,
			"Name": ColProductName,
			"Type": ColProductType,
		},
		normalize: normalizeProducts,
	},
	TableUserProducts: {
		file: "user_product.csv",
		drop: []string{"End Date", "Serial Number", "Updated At", "Opened"},
		rename: map[string]string{
			"ID":         ColStoreProductID,
			"Created At": ColStoreProductCreatedAt,
		},
	},
	TableTransactions: {
		file: "store_transaction.csv",
		drop: []string{"Wallet ID", "Updated At"},
		rename: map[string]string{
			"ID":         ColTransactionID,
			"Created At": ColTransactionCreatedAt,
		},
	},
	TableBoosts: {
		file: "boost.csv",
		drop: []string{"Con Figs", "Cover Picture URL", "Description", "Allow Points Purchase"},
		rename: map[string]string{
			"ID":   ColBoostID,
			"Name": ColBoostName,
		},
	},
	TableSubscriptions: {
		file: "subscription.csv",
		drop: []string{"Updated At"},
		rename: map[string]string{
			"ID":         ColSubscriptionID,
			"Created At": ColSubscriptionCreatedAt,
		},
	},
	TableUserPartnerScores: {
		file: "user_partner_score.csv",
		drop: []string{"ID", "Created At", "Updated At"},
		rename: map[string]string{
			"Score": ColPartnerPoints,
		},
	},
}

// CSVSource loads the canonical snapshot from a directory of exported CSV
// files, one per table. Missing files are fatal; malformed cells coerce
// to safe defaults.
type CSVSource struct {
	Dir    string
	Logger *zap.Logger
}

// NewCSVSource reads the export directory from SNAPSHOT_DIR (default
// "data").
func NewCSVSource(logger *zap.Logger) *CSVSource {
	return &CSVSource{
		Dir:    utils.Env("SNAPSHOT_DIR", "data"),
		Logger: logger,
	}
}

func (s *CSVSource) Name() string { return "csv:" + s.Dir }

// Load reads every canonical table concurrently and assembles a snapshot.
func (s *CSVSource) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	pool := pond.NewPool(utils.EnvInt("SNAPSHOT_LOAD_WORKERS", 4))
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	var mu sync.Mutex
	tables := make(map[string]*table.Table, len(csvSpecs))

	for name, spec := range csvSpecs {
		name, spec := name, spec
		group.SubmitErr(func() error {
			t, err := s.loadTable(name, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			tables[name] = t
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	snap, err := New(tables)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Snapshot loaded",
		zap.String("source", s.Name()),
		zap.Int("tables", len(tables)),
		zap.String("fingerprint", snap.Fingerprint()[:12]),
		zap.Duration("took", time.Since(start)))
	return snap, nil
}

func (s *CSVSource) loadTable(name string, spec csvTableSpec) (*table.Table, error) {
	path := filepath.Join(s.Dir, spec.file)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (expected file %s)", ErrMissingTable, name, path)
		}
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("snapshot: read header of %s: %w", path, err)
	}

	schema := Schemas[name]
	dropped := make(map[string]bool, len(spec.drop))
	for _, d := range spec.drop {
		dropped[d] = true
	}

	// Resolve each raw header to a canonical column, or -1 when dropped.
	cols := make([]string, 0, len(header))
	keep := make([]int, 0, len(header))
	for i, raw := range header {
		raw = strings.TrimSpace(raw)
		if dropped[raw] {
			continue
		}
		canonical, ok := spec.rename[raw]
		if !ok {
			canonical = slugColumn(raw)
		}
		cols = append(cols, canonical)
		keep = append(keep, i)
	}

	t := table.New(cols...)
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		cells := make([]any, len(cols))
		for j, i := range keep {
			var raw string
			if i < len(record) {
				raw = record[i]
			}
			cells[j] = coerceCell(raw, schema.Kind(cols[j]))
		}
		if err := t.AppendRow(cells...); err != nil {
			return nil, fmt.Errorf("snapshot: table %s: %w", name, err)
		}
	}

	if spec.normalize != nil {
		t = spec.normalize(t)
	}
	return t, nil
}

// coerceCell parses a raw CSV field according to the declared column
// kind. Malformed floats and timestamps coerce to safe defaults, never
// errors.
func coerceCell(raw string, kind table.Kind) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	switch kind {
	case table.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return float64(0)
		}
		return f
	case table.KindTime:
		ts, ok := ParseTimestamp(raw)
		if !ok {
			return nil
		}
		return ts
	default:
		return raw
	}
}

func slugColumn(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
}

// normalizeUsers derives the age bucket from the birth date, then drops
// the raw birth date from the canonical table.
func normalizeUsers(t *table.Table) *table.Table {
	now := time.Now().UTC()
	if t.HasColumn("birth_date") {
		t = t.WithColumn(ColAgeBucket, func(r table.Row) any {
			s, ok := r.String("birth_date")
			if !ok {
				return ""
			}
			birth, ok := ParseTimestamp(s)
			if !ok {
				return ""
			}
			return AgeBucket(birth, now)
		})
		keep := make([]string, 0, len(t.Columns()))
		for _, c := range t.Columns() {
			if c != "birth_date" {
				keep = append(keep, c)
			}
		}
		t = t.Select(keep...)
	} else if !t.HasColumn(ColAgeBucket) {
		t = t.WithColumn(ColAgeBucket, func(table.Row) any { return "" })
	}
	return t
}

// normalizeProducts extracts the point value from the embedded metadata
// field and drops the raw metadata.
func normalizeProducts(t *table.Table) *table.Table {
	if t.HasColumn("metadata") {
		t = t.WithColumn(ColProductPoints, func(r table.Row) any {
			s, ok := r.String("metadata")
			if !ok {
				return float64(0)
			}
			return MetadataPoints(s)
		})
		keep := make([]string, 0, len(t.Columns()))
		for _, c := range t.Columns() {
			if c != "metadata" {
				keep = append(keep, c)
			}
		}
		t = t.Select(keep...)
	} else if !t.HasColumn(ColProductPoints) {
		t = t.WithColumn(ColProductPoints, func(table.Row) any { return float64(0) })
	}
	return t
}

// normalizeParticipations lowercases the status once so every downstream
// filter can treat it as a closed enumeration.
func normalizeParticipations(t *table.Table) *table.Table {
	if !t.HasColumn(ColStatus) {
		return t
	}
	return t.WithColumn(ColStatus, func(r table.Row) any {
		s, ok := r.String(ColStatus)
		if !ok {
			return nil
		}
		return NormalizeStatus(s)
	})
}
