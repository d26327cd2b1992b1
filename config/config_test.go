package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseConfig(t *testing.T) {
	f, err := os.Open("testdata/config_test.yml")
	if err != nil {
		t.Error("failed to open file", err)
		t.FailNow()
	}

	c, err := FromYAML(f)
	f.Close()
	if err != nil {
		t.Error("failed to parse", err)
		t.FailNow()
	}

	if expected := "https://status.example.net/ping"; c.Endpoint.URL != expected {
		t.Errorf("expected endpoint to be %q, got %q", expected, c.Endpoint.URL)
	}
	labels := map[string]string{"env": "production", "region": "eu-west"}
	if !reflect.DeepEqual(labels, c.Endpoint.Labels) {
		t.Errorf("expected endpoint labels %v, got %v", labels, c.Endpoint.Labels)
	}

	if expected := 2 * time.Second; time.Duration(c.Check.Interval) != expected {
		t.Errorf("expected check.interval to be %v, got %v", expected, c.Check.Interval)
	}
	if expected := 3 * time.Second; time.Duration(c.Check.Timeout) != expected {
		t.Errorf("expected check.timeout to be %v, got %v", expected, c.Check.Timeout)
	}
	if expected := 4; c.Check.AllowedFailures != expected {
		t.Errorf("expected check.allowed-failures to be %d, got %d", expected, c.Check.AllowedFailures)
	}
	if expected := 42; c.Check.History != expected {
		t.Errorf("expected check.history-size to be %d, got %d", expected, c.Check.History)
	}

	if expected := int64(2500); c.Thresholds.Disconnected != expected {
		t.Errorf("expected thresholds.disconnected to be %d, got %d", expected, c.Thresholds.Disconnected)
	}
	if expected := int64(900); c.Thresholds.Slow != expected {
		t.Errorf("expected thresholds.slow to be %d, got %d", expected, c.Thresholds.Slow)
	}
	if expected := int64(400); c.Thresholds.Moderate != expected {
		t.Errorf("expected thresholds.moderate to be %d, got %d", expected, c.Thresholds.Moderate)
	}
	if expected := int64(150); c.Thresholds.Fast != expected {
		t.Errorf("expected thresholds.fast to be %d, got %d", expected, c.Thresholds.Fast)
	}

	if expected := "debug"; c.Log.Level != expected {
		t.Errorf("expected log.level to be %q, got %q", expected, c.Log.Level)
	}
}

func TestParsePlainEndpoint(t *testing.T) {
	c, err := FromYAML(strings.NewReader("endpoint: https://example.com/health\n"))
	if err != nil {
		t.Error("failed to parse", err)
		t.FailNow()
	}

	if expected := "https://example.com/health"; c.Endpoint.URL != expected {
		t.Errorf("expected endpoint to be %q, got %q", expected, c.Endpoint.URL)
	}
	if c.Endpoint.Labels != nil {
		t.Errorf("expected no endpoint labels, got %v", c.Endpoint.Labels)
	}
}
