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

package confirm

import (
	"math"
	"sync/atomic"
	"time"
)

// DefaultGateInterval is the shortest gap between two confirmations.
const DefaultGateInterval = 1200 * time.Millisecond

// Decision is the outcome of Gate.TryAcquire. SinceLast is
// math.MaxInt64 when the gate has never been acquired.
type Decision struct {
	Accepted  bool
	SinceLast time.Duration
}

// NewGate returns a gate that admits at most one acquisition per
// minInterval.
func NewGate(minInterval time.Duration) *Gate {
	return &Gate{minInterval: minInterval}
}

// Gate is a lock free minimum interval limiter. Any number of goroutines
// may race on TryAcquire and at most one of them wins per interval.
type Gate struct {
	minInterval time.Duration
	// last is the unix nano time of the last acquisition, 0 for never.
	last int64
}

// MinInterval returns the configured interval.
func (g *Gate) MinInterval() time.Duration {
	return g.minInterval
}

// TryAcquire attempts to take the gate at now.
func (g *Gate) TryAcquire(now time.Time) Decision {
	nowNano := now.UnixNano()
	for {
		previous := atomic.LoadInt64(&g.last)
		sinceLast := time.Duration(math.MaxInt64)
		if previous != 0 {
			sinceLast = time.Duration(nowNano - previous)
		}
		if sinceLast < g.minInterval {
			return Decision{Accepted: false, SinceLast: sinceLast}
		}
		if atomic.CompareAndSwapInt64(&g.last, previous, nowNano) {
			return Decision{Accepted: true, SinceLast: sinceLast}
		}
	}
}
