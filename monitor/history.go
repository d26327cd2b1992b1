package monitor

import "sync"

// Failure is the latency value recorded when a measurement attempt did not
// complete with a successful response.
const Failure int64 = -1

// Sample is a single latency measurement. A Latency of Failure marks a
// failed or unmeasurable request.
type Sample struct {
	Timestamp int64 // epoch milliseconds
	Latency   int64 // milliseconds, or Failure
}

// Failed reports whether the sample represents a failed request.
func (s Sample) Failed() bool {
	return s.Latency == Failure
}

const defaultHistorySize = 100

// history is a bounded record of samples in insertion order. Recording an
// existing timestamp overwrites the entry in place, so insertion order and
// timestamp order can diverge. Eviction always removes the oldest-inserted
// entry, never the smallest timestamp.
type history struct {
	mtx      sync.RWMutex
	samples  []Sample
	capacity int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = defaultHistorySize
	}
	return &history{
		samples:  make([]Sample, 0, capacity),
		capacity: capacity,
	}
}

// record saves a sample under the given timestamp, overwriting any entry
// already stored for it.
func (h *history) record(timestamp, latency int64) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	for i := range h.samples {
		if h.samples[i].Timestamp == timestamp {
			h.samples[i].Latency = latency
			return
		}
	}

	h.samples = append(h.samples, Sample{Timestamp: timestamp, Latency: latency})
	h.trim()
}

// trim evicts the oldest-inserted sample once the bound is exceeded.
// Needs to be locked externally.
func (h *history) trim() {
	if len(h.samples) > h.capacity {
		n := copy(h.samples, h.samples[1:])
		h.samples = h.samples[:n]
	}
}

// snapshot returns a copy of the recorded samples, oldest-inserted first.
func (h *history) snapshot() []Sample {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	s := make([]Sample, len(h.samples))
	copy(s, h.samples)
	return s
}
