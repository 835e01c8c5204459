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

package loglimiter

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// New returns a new LogLimiter with the configured minimum log interval.
func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
	}
}

// LogLimiter will suppress log messages if the same log message is
// seen within some time interval. When a suppressed message is next let
// through the number of dropped repeats is appended.
type LogLimiter struct {
	mu            sync.Mutex
	interval      time.Duration
	nowFunc       func() time.Time
	previousEntry string
	previousTime  time.Time
	suppressed    int
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(s string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.nowFunc()
	if s == limiter.previousEntry {
		if now.Sub(limiter.previousTime) < limiter.interval {
			limiter.suppressed++
			return
		}
		if limiter.suppressed > 0 {
			log.Printf("%s [%d repeats suppressed]", s, limiter.suppressed)
			limiter.previousTime = now
			limiter.suppressed = 0
			return
		}
	}

	log.Print(s)
	limiter.previousTime = now
	limiter.previousEntry = s
	limiter.suppressed = 0
}
