package metrics

import (
	"time"

	"github.com/cuemby/mumpsdb/pkg/store"
)

// Collector periodically polls a GlobalStore's Stats and republishes them
// as the package's gauges.
type Collector struct {
	store  *store.GlobalStore
	stopCh chan struct{}
}

func NewCollector(s *store.GlobalStore) *Collector {
	return &Collector{
		store:  s,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds, in a background
// goroutine, until Stop is called.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	stats := c.store.Stats()
	GlobalsTotal.Set(float64(stats.GlobalCount))
	NodesTotal.Set(float64(stats.TotalNodes))
	IndexSize.Set(float64(stats.IndexSize))
	CacheSize.Set(float64(stats.CacheSize))
}
