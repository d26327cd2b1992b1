package monitor

// estimate derives the current latency from the sample history (oldest
// first). It tolerates up to allowedFailures recent failed requests before
// reporting the connection as down:
//
//   - an empty history is Failure
//   - fewer than 3 samples: the latest value wins as-is
//   - with at least allowedFailures samples, the newest allowedFailures are
//     inspected first; all failed means Failure, partially failed means the
//     newest success among them
//   - otherwise the newest 3 samples are averaged; if any of them failed,
//     the newest success anywhere in the history is used instead
//
// The failure window is checked before the averaging window even when
// allowedFailures < 3; short histories deliberately take the first branch
// that applies.
func estimate(samples []Sample, allowedFailures int) int64 {
	n := len(samples)
	if n == 0 {
		return Failure
	}
	if n < 3 {
		return samples[n-1].Latency
	}

	if a := allowedFailures; a > 0 && n >= a {
		failed := 0
		newestGood := Failure
		for i := n - 1; i >= n-a; i-- {
			if samples[i].Failed() {
				failed++
			} else if newestGood == Failure {
				newestGood = samples[i].Latency
			}
		}
		if failed == a {
			return Failure
		}
		if failed > 0 {
			return newestGood
		}
	}

	var sum int64
	for _, s := range samples[n-3:] {
		if s.Failed() {
			return newestSuccess(samples)
		}
		sum += s.Latency
	}
	return sum / 3
}

// newestSuccess scans the full history newest to oldest for the last
// successful measurement.
func newestSuccess(samples []Sample) int64 {
	for i := len(samples) - 1; i >= 0; i-- {
		if !samples[i].Failed() {
			return samples[i].Latency
		}
	}
	return Failure
}
