// Package monitor measures round-trip latency to a single endpoint on a
// repeating schedule, smooths the recent measurement history into one
// representative value and classifies it into a quality tier.
package monitor

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultEndpoint is probed when no endpoint is configured.
	DefaultEndpoint = "https://example.com/"

	defaultInterval        = 10 * time.Second
	defaultAllowedFailures = 3
	defaultRequestTimeout  = 30 * time.Second
)

// Config holds the runtime settings of a Monitor.
type Config struct {
	CheckInterval         time.Duration // period between measurements
	AllowedFailedRequests int           // recent failures tolerated before reporting Disconnected
	HistorySize           int           // bound on the sample history
	LogLevel              string        // one of debug, info, warning, error
}

func (c *Config) setDefaults() {
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultInterval
	}
	if c.AllowedFailedRequests < 1 {
		c.AllowedFailedRequests = defaultAllowedFailures
	}
	if c.HistorySize < 1 {
		c.HistorySize = defaultHistorySize
	}
}

// Monitor drives the measurement schedule and keeps the derived state.
// Sampling starts immediately on construction and runs until Dispose.
type Monitor struct {
	mtx        sync.Mutex
	cfg        Config
	thresholds Thresholds
	sampler    *sampler
	history    *history
	logger     *log.Logger
	subscriber func(Tier, int64)
	current    Tier
	stop       chan struct{}
	wg         sync.WaitGroup
	running    bool
	disposed   bool
}

// New creates a Monitor probing the given endpoint and starts sampling.
// The endpoint must be an absolute URL; an empty endpoint falls back to
// DefaultEndpoint. A nil client uses an http.Client with a default timeout.
func New(endpoint string, client Doer) (*Monitor, error) {
	return NewWithConfig(endpoint, client, Config{})
}

// NewWithConfig is New with explicit initial settings. Zero values in cfg
// are replaced with defaults.
func NewWithConfig(endpoint string, client Doer, cfg Config) (*Monitor, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute URL", endpoint)
	}

	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	cfg.setDefaults()

	logger := log.New()
	logger.SetLevel(levelFromString(cfg.LogLevel))

	hist := newHistory(cfg.HistorySize)
	m := &Monitor{
		cfg:        cfg,
		thresholds: DefaultThresholds(),
		history:    hist,
		logger:     logger,
		sampler: &sampler{
			endpoint: endpoint,
			client:   client,
			history:  hist,
			logger:   logger,
		},
	}

	m.mtx.Lock()
	m.resumeLocked()
	m.mtx.Unlock()

	return m, nil
}

// Configure applies new settings and restarts the measurement schedule.
// The restart triggers an immediate sample, like Resume.
func (m *Monitor) Configure(checkInterval time.Duration, allowedFailedRequests int, logLevel string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.pauseLocked()

	if checkInterval > 0 {
		m.cfg.CheckInterval = checkInterval
	}
	m.cfg.AllowedFailedRequests = allowedFailedRequests
	m.cfg.LogLevel = logLevel
	m.logger.SetLevel(levelFromString(logLevel))
	m.logger.Debugf("reconfigured (interval=%s, allowed-failures=%d)",
		m.cfg.CheckInterval, allowedFailedRequests)

	m.resumeLocked()
}

// SetLatencyThresholds replaces all four tier boundaries (in milliseconds).
// No ordering is enforced; see Thresholds.Validate.
func (m *Monitor) SetLatencyThresholds(disconnected, slow, moderate, fast int64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.thresholds = Thresholds{
		Disconnected: disconnected,
		Slow:         slow,
		Moderate:     moderate,
		Fast:         fast,
	}
}

// OnLatencyChange registers the subscriber invoked after every measurement
// cycle with the classified tier and the smoothed latency in milliseconds.
// At most one subscriber is active; registering replaces the previous one.
func (m *Monitor) OnLatencyChange(fn func(tier Tier, latencyMs int64)) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.subscriber = fn
}

// Pause cancels future measurements. An in-flight sample is not awaited and
// may still land in the history.
func (m *Monitor) Pause() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.pauseLocked()
}

// Resume restarts the schedule with an immediate sample. Resuming a
// disposed or already running monitor is a no-op.
func (m *Monitor) Resume() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.resumeLocked()
}

// Dispose permanently stops the schedule. The history stays readable.
func (m *Monitor) Dispose() {
	m.mtx.Lock()
	m.pauseLocked()
	m.disposed = true
	m.mtx.Unlock()

	m.wg.Wait()
}

// LatencyHistory returns a copy of the recorded samples, oldest-inserted
// first.
func (m *Monitor) LatencyHistory() []Sample {
	return m.history.snapshot()
}

// CurrentStatus returns the most recently computed tier.
func (m *Monitor) CurrentStatus() Tier {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.current
}

// Needs to be locked externally.
func (m *Monitor) pauseLocked() {
	if !m.running {
		return
	}
	close(m.stop)
	m.running = false
}

// Needs to be locked externally.
func (m *Monitor) resumeLocked() {
	if m.running || m.disposed {
		return
	}
	m.stop = make(chan struct{})
	m.running = true
	m.wg.Add(1)
	go m.run(m.stop, m.cfg.CheckInterval)
}

// run fires an immediate measurement and then one per interval until the
// stop channel closes. Cycles are not serialized against each other: a
// round trip longer than the interval overlaps the next cycle.
func (m *Monitor) run(stop chan struct{}, interval time.Duration) {
	defer m.wg.Done()

	go m.cycle()

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			go m.cycle()
		}
	}
}

// cycle performs one measurement and publishes the resulting
// classification.
func (m *Monitor) cycle() {
	m.sampler.sample()

	m.mtx.Lock()
	allowed := m.cfg.AllowedFailedRequests
	th := m.thresholds
	sub := m.subscriber
	m.mtx.Unlock()

	latency := estimate(m.history.snapshot(), allowed)
	tier := th.classify(latency)

	m.mtx.Lock()
	m.current = tier
	m.mtx.Unlock()

	m.logger.Debugf("current latency %dms (%s)", latency, tier)
	if sub != nil {
		sub(tier, latency)
	}
}

func levelFromString(l string) log.Level {
	switch l {
	case "debug":
		return log.DebugLevel
	case "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
