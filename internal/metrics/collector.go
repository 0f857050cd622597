package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Collector periodically refreshes the gauges that are read from the
// database: connection pool stats and the permit status distribution.
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector creates a collector with the given refresh interval.
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop.
func (c *Collector) Start() {
	go c.collect()
}

// Stop stops the refresh loop and waits for it to exit.
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.refreshStatusGauges()
		}
	}
}

func (c *Collector) refreshStatusGauges() {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := c.db.Table("permits").
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	SetPermitsByStatus(counts)
}
