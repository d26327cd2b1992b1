package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/connqual/latency_monitor/config"
	"github.com/connqual/latency_monitor/monitor"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	fsnotify "gopkg.in/fsnotify.v1"
)

const version string = "0.2.1"

var (
	showVersion     = kingpin.Flag("version", "Print version information").Default().Bool()
	listenAddress   = kingpin.Flag("web.listen-address", "Address on which to expose metrics and web interface").Default(":9430").String()
	metricsPath     = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics").Default("/metrics").String()
	configFile      = kingpin.Flag("config.path", "Path to config file").Default("").String()
	checkInterval   = kingpin.Flag("check.interval", "Interval between latency measurements").Default("10s").Duration()
	checkTimeout    = kingpin.Flag("check.timeout", "Timeout for a single measurement request").Default("30s").Duration()
	allowedFailures = kingpin.Flag("check.allowed-failures", "Number of recent failed requests tolerated before reporting disconnected").Default("3").Int()
	historySize     = kingpin.Flag("check.history-size", "Number of measurement results to remember").Default("100").Int()
	logLevel        = kingpin.Flag("log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warning, error]").Default("info").String()
	endpointFlag    = kingpin.Arg("endpoint", "URL of the endpoint to measure").Default("").String()
)

var (
	thresholdFast         = kingpin.Flag("threshold.fast", "Latency ceiling in millis for the fast tier").Default("200").Int64()
	thresholdModerate     = kingpin.Flag("threshold.moderate", "Latency ceiling in millis for the moderate tier").Default("500").Int64()
	thresholdSlow         = kingpin.Flag("threshold.slow", "Latency ceiling in millis for the slow tier").Default("1000").Int64()
	thresholdDisconnected = kingpin.Flag("threshold.disconnected", "Latency ceiling in millis before the connection counts as disconnected").Default("3000").Int64()

	latencyMetricsScale = rttInMills // might change in future
	rttMode             = kingpin.Flag("metrics.rttunit", "Export latency as either millis (default), or seconds (best practice), or both (for migrations). Valid choices: [ms, s, both]").Default("ms").String()
)

func main() {
	kingpin.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	setLogLevel(*logLevel)

	if latencyMetricsScale = rttUnitFromString(*rttMode); latencyMetricsScale == rttInvalid {
		kingpin.FatalUsage("metrics.rttunit must be `ms` for millis, or `s` for seconds, or `both`")
	}

	if mpath := *metricsPath; mpath == "" {
		log.Warnln("web.telemetry-path is empty, correcting to `/metrics`")
		mpath = "/metrics"
		metricsPath = &mpath
	} else if mpath[0] != '/' {
		mpath = "/" + mpath
		metricsPath = &mpath
	}

	cfg, err := loadConfig()
	if err != nil {
		kingpin.FatalUsage("could not load config.path: %v", err)
	}

	if cfg.Check.History < 1 {
		kingpin.FatalUsage("check.history-size must be greater than 0")
	}

	if cfg.Check.AllowedFailures < 1 {
		kingpin.FatalUsage("check.allowed-failures must be greater than 0")
	}

	m, collector, err := startMonitor(cfg)
	if err != nil {
		log.Errorln(err)
		os.Exit(2)
	}

	if *configFile != "" {
		go watchConfig(*configFile, cfg.Endpoint.URL, m)
	}

	startServer(collector)
}

func printVersion() {
	fmt.Println("latency-monitor")
	fmt.Printf("Version: %s\n", version)
	fmt.Println("Connection quality monitor with Prometheus export")
}

func startMonitor(cfg *config.Config) (*monitor.Monitor, *qualityCollector, error) {
	th := thresholdsFromConfig(cfg)
	if err := th.Validate(); err != nil {
		log.Warnf("applying unordered latency thresholds: %v", err)
	}

	client := &http.Client{Timeout: cfg.Check.Timeout.Duration()}
	m, err := monitor.NewWithConfig(cfg.Endpoint.URL, client, monitor.Config{
		CheckInterval:         cfg.Check.Interval.Duration(),
		AllowedFailedRequests: cfg.Check.AllowedFailures,
		HistorySize:           cfg.Check.History,
		LogLevel:              cfg.Log.Level,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cannot start monitoring: %w", err)
	}

	m.SetLatencyThresholds(th.Disconnected, th.Slow, th.Moderate, th.Fast)
	log.Infof("Created new monitor (endpoint=%s, interval=%s, allowed-failures=%d, history=%d)",
		cfg.Endpoint.URL,
		cfg.Check.Interval.Duration(),
		cfg.Check.AllowedFailures,
		cfg.Check.History)

	collector := newQualityCollector(cfg.Endpoint)
	m.OnLatencyChange(collector.observe)

	return m, collector, nil
}

func thresholdsFromConfig(cfg *config.Config) monitor.Thresholds {
	return monitor.Thresholds{
		Disconnected: cfg.Thresholds.Disconnected,
		Slow:         cfg.Thresholds.Slow,
		Moderate:     cfg.Thresholds.Moderate,
		Fast:         cfg.Thresholds.Fast,
	}
}

func watchConfig(path, endpoint string, m *monitor.Monitor) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorf("could not watch config file: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Errorf("could not watch config file: %v", err)
		return
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Infoln("Reloading config file")
			cfg, err := loadConfig()
			if err != nil {
				log.Errorf("could not reload config: %v", err)
				continue
			}
			applyConfig(cfg, endpoint, m)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Errorln(err)
		}
	}
}

func applyConfig(cfg *config.Config, endpoint string, m *monitor.Monitor) {
	if cfg.Endpoint.URL != endpoint {
		log.Warnf("endpoint changed to %s, changing the endpoint requires a restart", cfg.Endpoint.URL)
	}

	th := thresholdsFromConfig(cfg)
	if err := th.Validate(); err != nil {
		log.Warnf("applying unordered latency thresholds: %v", err)
	}

	m.SetLatencyThresholds(th.Disconnected, th.Slow, th.Moderate, th.Fast)
	m.Configure(cfg.Check.Interval.Duration(), cfg.Check.AllowedFailures, cfg.Log.Level)
}

func startServer(collector *qualityCollector) {
	log.Infof("Starting latency monitor (Version: %s)", version)
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, indexHTML, *metricsPath)
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)

	l := log.New()
	l.Level = log.ErrorLevel

	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      l,
		ErrorHandling: promhttp.ContinueOnError,
	})
	http.Handle(*metricsPath, h)

	log.Infof("Listening for %s on %s", *metricsPath, *listenAddress)
	log.Fatal(http.ListenAndServe(*listenAddress, nil))
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		cfg := &config.Config{}
		addFlagToConfig(cfg)

		return cfg, nil
	}

	f, err := os.Open(*configFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load config file: %w", err)
	}
	defer f.Close()

	cfg, err := config.FromYAML(f)
	if err == nil {
		addFlagToConfig(cfg)
	}

	return cfg, err
}

// addFlagToConfig updates cfg with command line flag values, unless the
// config has non-zero values.
func addFlagToConfig(cfg *config.Config) {
	if cfg.Endpoint.URL == "" {
		cfg.Endpoint.URL = *endpointFlag
	}
	if cfg.Check.Interval == 0 {
		cfg.Check.Interval.Set(*checkInterval)
	}
	if cfg.Check.Timeout == 0 {
		cfg.Check.Timeout.Set(*checkTimeout)
	}
	if cfg.Check.AllowedFailures == 0 {
		cfg.Check.AllowedFailures = *allowedFailures
	}
	if cfg.Check.History == 0 {
		cfg.Check.History = *historySize
	}
	if cfg.Thresholds.Fast == 0 {
		cfg.Thresholds.Fast = *thresholdFast
	}
	if cfg.Thresholds.Moderate == 0 {
		cfg.Thresholds.Moderate = *thresholdModerate
	}
	if cfg.Thresholds.Slow == 0 {
		cfg.Thresholds.Slow = *thresholdSlow
	}
	if cfg.Thresholds.Disconnected == 0 {
		cfg.Thresholds.Disconnected = *thresholdDisconnected
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = *logLevel
	}
}

const indexHTML = `<!doctype html>
<html>
<head>
	<meta charset="UTF-8">
	<title>Latency Monitor (Version ` + version + `)</title>
</head>
<body>
	<h1>Latency Monitor</h1>
	<p><a href="%s">Metrics</a></p>
</body>
</html>
`
