package monitor

import (
	"net/http"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// Doer issues a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// sampler performs one measurement per cycle against a fixed endpoint and
// records the outcome into the history.
type sampler struct {
	endpoint string
	client   Doer
	history  *history
	logger   log.FieldLogger
	lastKey  atomic.Int64
}

// sample issues one GET request. A 200 response records the round trip
// time under its completion timestamp; everything else records a Failure
// sample. Request errors never propagate to the caller.
func (s *sampler) sample() {
	req, err := http.NewRequest(http.MethodGet, s.endpoint, nil)
	if err != nil {
		s.logger.WithField("endpoint", s.endpoint).Errorf("could not build request: %v", err)
		s.history.record(s.nextKey(time.Now()), Failure)
		return
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	done := time.Now()

	if err != nil {
		s.logger.WithField("endpoint", s.endpoint).Errorf("request failed: %v", err)
		s.history.record(s.nextKey(done), Failure)
		return
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(log.Fields{
			"endpoint": s.endpoint,
			"status":   resp.StatusCode,
		}).Error("endpoint returned unexpected status")
		s.history.record(s.nextKey(done), Failure)
		return
	}

	rtt := done.Sub(start).Milliseconds()
	s.history.record(s.nextKey(done), rtt)
	s.logger.Debugf("measured %dms for %s", rtt, s.endpoint)
}

// nextKey returns an epoch-millisecond key strictly above every key handed
// out before, so attempts completing within the same millisecond (or failed
// attempts in quick succession) never overwrite each other.
func (s *sampler) nextKey(t time.Time) int64 {
	ms := t.UnixMilli()
	for {
		last := s.lastKey.Load()
		if ms <= last {
			ms = last + 1
		}
		if s.lastKey.CompareAndSwap(last, ms) {
			return ms
		}
	}
}
