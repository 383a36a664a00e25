package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/db/clickhouse"
	"github.com/rewardlytics/rewardsx/pkg/table"
)

// WarehouseSource reads the canonical tables out of the ClickHouse
// database the platform ETL lands them in. Warehouse column names match
// the canonical names, so the declared schemas drive both the SELECT
// list and the scan.
type WarehouseSource struct {
	Client *clickhouse.Client
	Logger *zap.Logger
}

func NewWarehouseSource(client *clickhouse.Client, logger *zap.Logger) *WarehouseSource {
	return &WarehouseSource{Client: client, Logger: logger}
}

func (s *WarehouseSource) Name() string {
	return "clickhouse:" + s.Client.Database
}

// Load reads every canonical table and assembles a snapshot. A canonical
// table missing from the warehouse is fatal; a missing optional column
// just narrows the loaded table.
func (s *WarehouseSource) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	tables := make(map[string]*table.Table, len(RequiredTables))
	for _, name := range RequiredTables {
		t, err := s.loadTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables[name] = t
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

func (s *WarehouseSource) loadTable(ctx context.Context, name string) (*table.Table, error) {
	exists, err := s.Client.TableExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: check table %s: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s (database %s)", ErrMissingTable, name, s.Client.Database)
	}

	schema := Schemas[name]
	cols := make([]table.Column, 0, len(schema.Guaranteed)+len(schema.Optional))
	cols = append(cols, schema.Guaranteed...)
	for _, c := range schema.Optional {
		ok, err := s.Client.ColumnExists(ctx, name, c.Name)
		if err != nil {
			return nil, fmt.Errorf("snapshot: check column %s.%s: %w", name, c.Name, err)
		}
		if ok {
			cols = append(cols, c)
		}
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), name)
	rows, err := s.Client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read table %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	t := table.New(names...)
	for rows.Next() {
		holders := make([]any, len(cols))
		for i, c := range cols {
			switch c.Kind {
			case table.KindFloat:
				holders[i] = new(float64)
			case table.KindTime:
				holders[i] = new(time.Time)
			default:
				holders[i] = new(string)
			}
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, fmt.Errorf("snapshot: scan table %s: %w", name, err)
		}
		cells := make([]any, len(cols))
		for i, c := range cols {
			switch c.Kind {
			case table.KindFloat:
				cells[i] = *holders[i].(*float64)
			case table.KindTime:
				ts := *holders[i].(*time.Time)
				if ts.IsZero() {
					cells[i] = nil
				} else {
					cells[i] = ts.UTC()
				}
			default:
				v := *holders[i].(*string)
				if name == TableParticipations && c.Name == ColStatus {
					v = NormalizeStatus(v)
				}
				if v == "" {
					cells[i] = nil
				} else {
					cells[i] = v
				}
			}
		}
		if err := t.AppendRow(cells...); err != nil {
			return nil, fmt.Errorf("snapshot: table %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: iterate table %s: %w", name, err)
	}
	return t, nil
}
