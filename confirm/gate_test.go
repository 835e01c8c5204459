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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstAcquireAccepted(t *testing.T) {
	gate := NewGate(DefaultGateInterval)
	now := time.Unix(1000, 0)

	decision := gate.TryAcquire(now)
	assert.True(t, decision.Accepted)
	assert.Equal(t, time.Duration(math.MaxInt64), decision.SinceLast)
}

func TestAcquireWithinIntervalRejected(t *testing.T) {
	gate := NewGate(DefaultGateInterval)
	now := time.Unix(1000, 0)
	gate.TryAcquire(now)

	decision := gate.TryAcquire(now.Add(500 * time.Millisecond))
	assert.False(t, decision.Accepted)
	assert.Equal(t, 500*time.Millisecond, decision.SinceLast)

	// A rejection doesn't move the window.
	decision = gate.TryAcquire(now.Add(DefaultGateInterval))
	assert.True(t, decision.Accepted)
	assert.Equal(t, DefaultGateInterval, decision.SinceLast)

	assert.False(t, gate.TryAcquire(now.Add(DefaultGateInterval+time.Millisecond)).Accepted)
}

func TestConcurrentAcquireHasOneWinner(t *testing.T) {
	gate := NewGate(DefaultGateInterval)
	now := time.Unix(1000, 0)

	var accepted int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if gate.TryAcquire(now).Accepted {
				atomic.AddInt32(&accepted, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), accepted)
}
