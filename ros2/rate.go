package ros2

import (
	"time"
)

// Rate keeps a loop running at a fixed frequency. It tracks how long each
// cycle actually took so overruns shorten the next sleep instead of
// shifting every later cycle.
type Rate struct {
	actualCycleTime   time.Duration
	expectedCycleTime time.Duration
	start             time.Time
}

func NewRate(frequency float64) Rate {
	expectedCycleTime := time.Duration(float64(time.Second) / frequency)
	return Rate{0, expectedCycleTime, time.Now()}
}

func CycleTime(d time.Duration) Rate {
	return Rate{0, d, time.Now()}
}

func (r *Rate) CycleTime() time.Duration {
	return r.actualCycleTime
}

func (r *Rate) ExpectedCycleTime() time.Duration {
	return r.expectedCycleTime
}

func (r *Rate) Reset() {
	r.actualCycleTime = 0
	r.start = time.Now()
}

func (r *Rate) Sleep() {
	elapsed := time.Now().Sub(r.start)
	if remaining := r.expectedCycleTime - elapsed; remaining > 0 {
		time.Sleep(remaining)
	}
	r.actualCycleTime = time.Now().Sub(r.start)
	r.start = r.start.Add(r.expectedCycleTime)
}
