package pipeline

import (
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
)

// Cache memoizes pipeline results keyed by snapshot fingerprint, so
// re-loading an unchanged export never recomputes and correctness never
// depends on process lifetime: any caller can invalidate a fingerprint
// or drop the whole cache and force a fresh pass.
type Cache struct {
	logger  *zap.Logger
	results *xsync.Map[string, *Result]
}

func NewCache(logger *zap.Logger) *Cache {
	return &Cache{
		logger:  logger,
		results: xsync.NewMap[string, *Result](),
	}
}

// Get returns the memoized result for the snapshot, computing and
// storing it on first sight of the fingerprint.
func (c *Cache) Get(snap *snapshot.Snapshot) (*Result, error) {
	if res, ok := c.results.Load(snap.Fingerprint()); ok {
		c.logger.Debug("Pipeline cache hit", zap.String("fingerprint", snap.Fingerprint()[:12]))
		return res, nil
	}
	res, err := Run(c.logger, snap)
	if err != nil {
		return nil, err
	}
	c.results.Store(snap.Fingerprint(), res)
	return res, nil
}

// Invalidate drops one memoized result.
func (c *Cache) Invalidate(fingerprint string) {
	c.results.Delete(fingerprint)
}

// Reset drops every memoized result.
func (c *Cache) Reset() {
	c.results.Clear()
}

// Size returns the number of memoized results.
func (c *Cache) Size() int {
	return c.results.Size()
}
