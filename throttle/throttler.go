// bird-finder - locate and confirm small moving subjects in camera frames
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package throttle

import (
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/TheCacophonyProject/bird-finder/loglimiter"
)

// NewThrottler returns a throttler for the action called name.
func NewThrottler(name string, conf ThrottlerConfig, listener ThrottledEventListener) *Throttler {
	return NewThrottlerWithClock(name, conf, listener, new(realClock))
}

func NewThrottlerWithClock(
	name string,
	conf ThrottlerConfig,
	listener ThrottledEventListener,
	clock ratelimit.Clock,
) *Throttler {
	if listener == nil {
		listener = new(nullListener)
	}
	t := &Throttler{
		name:     name,
		apply:    conf.ApplyThrottling,
		listener: listener,
		log:      loglimiter.New(time.Minute),
	}
	if t.apply {
		// One token is returned every MinRefill.
		rate := 1 / conf.MinRefill.Seconds()
		t.bucket = ratelimit.NewBucketWithRateAndClock(rate, conf.BucketSize, clock)
	}
	return t
}

// Throttler limits how often an action (reporting a confirmed bird,
// releasing the shutter) may happen. A burst of up to the bucket size is
// allowed after which actions are refused until the bucket refills.
// Repeated triggers are common when a subject sits still in front of the
// camera or the wind keeps moving a branch, and the extra actions add
// nothing.
type Throttler struct {
	mu        sync.Mutex
	name      string
	apply     bool
	bucket    *ratelimit.Bucket
	listener  ThrottledEventListener
	throttled bool
	log       *loglimiter.LogLimiter
}

// Allow takes a token if one is available. The listener is told the first
// time an action is refused after a run of allowed ones.
func (t *Throttler) Allow() bool {
	if !t.apply {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bucket.TakeAvailable(1) > 0 {
		t.throttled = false
		return true
	}
	t.log.Printf("%s throttled", t.name)
	if !t.throttled {
		t.throttled = true
		t.listener.WhenThrottled(t.name)
	}
	return false
}

// Available returns the number of actions that could happen right now.
func (t *Throttler) Available() int64 {
	if !t.apply {
		return -1
	}
	return t.bucket.Available()
}

type ThrottledEventListener interface {
	WhenThrottled(name string)
}

type nullListener struct{}

func (lis *nullListener) WhenThrottled(name string) {}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

// Now implements Clock.Now by calling time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// Sleep implements Clock.Sleep by calling time.Sleep.
func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
