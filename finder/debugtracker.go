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

package finder

import (
	"fmt"
	"math"
	"strings"
)

// debugTracker accumulates per frame analysis values between verbose log
// lines. A nil tracker ignores updates so the engine can call it
// unconditionally.
type debugTracker struct {
	names  []string
	values map[string]*trackedValue
}

func newDebugTracker(names ...string) *debugTracker {
	d := &debugTracker{
		names:  names,
		values: make(map[string]*trackedValue),
	}
	for _, name := range names {
		d.values[name] = newTrackedValue()
	}
	return d
}

func (d *debugTracker) update(name string, x int) {
	if d == nil {
		return
	}
	value := d.values[name]
	if value == nil {
		value = newTrackedValue()
		d.values[name] = value
		d.names = append(d.names, name)
	}
	value.update(x)
}

func (d *debugTracker) reset() {
	if d == nil {
		return
	}
	for _, value := range d.values {
		value.reset()
	}
}

// summary renders every value that saw at least one update, in the order
// the names were registered, e.g. "threshold=16..40 avg 22.5 (n=10)".
func (d *debugTracker) summary() string {
	if d == nil {
		return ""
	}
	var out []string
	for _, name := range d.names {
		value := d.values[name]
		if value.n == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%s=%d..%d avg %.1f (n=%d)", name, value.min, value.max, value.avg, value.n))
	}
	return strings.Join(out, "; ")
}

func newTrackedValue() *trackedValue {
	v := new(trackedValue)
	v.reset()
	return v
}

type trackedValue struct {
	n   int
	min int
	max int
	avg float64
}

func (v *trackedValue) reset() {
	v.n = 0
	v.max = math.MinInt32
	v.min = math.MaxInt32
	v.avg = 0
}

func (v *trackedValue) update(x int) {
	v.n++
	if x > v.max {
		v.max = x
	}
	if x < v.min {
		v.min = x
	}
	// Cumulative moving average
	v.avg = v.avg + ((float64(x) - v.avg) / float64(v.n))
}
