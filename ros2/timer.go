package ros2

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// wallTimer fires a callback at a fixed wall clock period. The callback is
// not invoked here; each tick enqueues it on the node's job channel so it
// runs on the spin goroutine together with subscription callbacks.
type wallTimer struct {
	period    time.Duration
	callback  func()
	jobChan   chan func()
	resetChan chan time.Duration
	stopChan  chan struct{}
}

func newWallTimer(period time.Duration, callback func(), jobChan chan func()) *wallTimer {
	timer := new(wallTimer)
	// time.NewTicker rejects non-positive periods.
	if period <= 0 {
		period = time.Millisecond
	}
	timer.period = period
	timer.callback = callback
	timer.jobChan = jobChan
	timer.resetChan = make(chan time.Duration, 10)
	timer.stopChan = make(chan struct{}, 10)
	return timer
}

func (timer *wallTimer) run(wg *sync.WaitGroup, logger *logrus.Entry) {
	defer wg.Done()
	ticker := time.NewTicker(timer.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			select {
			case timer.jobChan <- timer.callback:
			default:
				logger.Warn("Timer tick dropped; job queue is full")
			}
		case period := <-timer.resetChan:
			if period <= 0 {
				period = time.Millisecond
			}
			timer.period = period
			ticker.Reset(period)
		case <-timer.stopChan:
			return
		}
	}
}

func (timer *wallTimer) Reset(period time.Duration) {
	timer.resetChan <- period
}

func (timer *wallTimer) Stop() {
	timer.stopChan <- struct{}{}
}
