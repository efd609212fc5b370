package collector

import (
	"context"
	"log"
	"sync"
	"time"

	"linky-monitor/internal/mqtt"
	"linky-monitor/internal/snapshot"
	"linky-monitor/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linky_cycles_total",
		Help: "Aggregation cycles run since startup.",
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linky_cycle_duration_seconds",
		Help:    "Wall time of one full aggregation cycle.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

// Collector runs the aggregation cycle on a fixed interval: build the
// snapshot, store it, publish it. One goroutine owns the whole sequence;
// shutdown is honored between cycles only.
type Collector struct {
	assembler *snapshot.Assembler
	db        *storage.Database
	publisher *mqtt.Publisher
	interval  time.Duration
	retention time.Duration
	enabled   bool

	// state is only ever touched by the collection goroutine.
	state snapshot.CycleState

	mu           sync.RWMutex
	latest       *snapshot.Snapshot
	latestAt     time.Time
	isCollecting bool
}

type CollectorConfig struct {
	Assembler *snapshot.Assembler
	Database  *storage.Database
	Publisher *mqtt.Publisher
	Interval  time.Duration
	Retention time.Duration
	Enabled   bool
}

func NewCollector(cfg CollectorConfig) *Collector {
	return &Collector{
		assembler: cfg.Assembler,
		db:        cfg.Database,
		publisher: cfg.Publisher,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		enabled:   cfg.Enabled,
	}
}

func (c *Collector) Start(ctx context.Context) error {
	if !c.enabled {
		log.Println("Collector is disabled")
		return nil
	}

	c.mu.Lock()
	c.isCollecting = true
	c.mu.Unlock()

	log.Printf("Starting collector with interval %s", c.interval)

	// Initial collection
	c.collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Collector stopped")
			c.mu.Lock()
			c.isCollecting = false
			c.mu.Unlock()
			return nil
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	started := time.Now()
	cyclesTotal.Inc()

	snap := c.assembler.Build(ctx, &c.state)
	now := time.Now()

	c.mu.Lock()
	c.latest = snap
	c.latestAt = now
	c.mu.Unlock()

	if c.db != nil {
		if err := c.db.SaveSnapshot(now, snap); err != nil {
			log.Printf("Error saving snapshot: %v", err)
		}
		if c.retention > 0 {
			if err := c.db.CleanOldSnapshots(c.retention); err != nil {
				log.Printf("Error cleaning old snapshots: %v", err)
			}
		}
	}

	if c.publisher != nil {
		if err := c.publisher.PublishSnapshot(snap); err != nil {
			log.Printf("Error publishing snapshot: %v", err)
		}
		veille := c.assembler.ConsumptionVeille(ctx)
		if err := c.publisher.PublishVeille(veille); err != nil {
			log.Printf("Error publishing veille consumption: %v", err)
		}
	}

	cycleDuration.Observe(time.Since(started).Seconds())
	log.Printf("Cycle done in %s: Yesterday=%.2fkWh, Week=%.2fkWh, Month=%.2fkWh, Year=%.2fkWh, Tempo=%s",
		time.Since(started).Round(time.Millisecond),
		snap.Yesterday, snap.CurrentWeek, snap.CurrentMonth, snap.CurrentYear,
		snap.DailyweekTempo[0])
}

// CollectOnce builds and returns one snapshot without publishing it.
func (c *Collector) CollectOnce(ctx context.Context) *snapshot.Snapshot {
	snap := c.assembler.Build(ctx, &c.state)

	c.mu.Lock()
	c.latest = snap
	c.latestAt = time.Now()
	c.mu.Unlock()

	return snap
}

func (c *Collector) GetLatest() (*snapshot.Snapshot, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.latestAt
}

func (c *Collector) IsCollecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCollecting
}

func (c *Collector) Stop() {
	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}
