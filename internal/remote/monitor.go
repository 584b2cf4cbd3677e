package remote

import (
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
)

// latencyWindow is the number of recent requests the moving average spans.
const latencyWindow = 64

// Monitor aggregates request outcomes across every remote sharing one
// Client. Safe for concurrent use.
type Monitor struct {
	mu       sync.Mutex
	avg      *movingaverage.MovingAverage
	requests int64
	failures int64
}

func newMonitor() *Monitor {
	return &Monitor{avg: movingaverage.New(latencyWindow)}
}

func (m *Monitor) observe(d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.avg.Add(float64(d) / float64(time.Millisecond))
	m.requests++

	if err != nil {
		m.failures++
	}
}

// Stats is a point-in-time snapshot of the monitor.
type Stats struct {
	Requests   int64
	Failures   int64
	AvgLatency time.Duration
}

// Stats returns the current counters and the moving-average latency over
// the last requests.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Requests:   m.requests,
		Failures:   m.failures,
		AvgLatency: time.Duration(m.avg.Avg() * float64(time.Millisecond)),
	}
}
