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
	"math"
	"time"
)

// Point is a position in normalised [0,1] view coordinates unless stated
// otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp returns the point limited to the unit square.
func (p Point) Clamp() Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// Result is a stable detection. A nil *Result means nothing is currently
// detected. Results are replaced wholesale and must not be modified by
// listeners.
type Result struct {
	NormX     float64   `json:"normX"`
	NormY     float64   `json:"normY"`
	ViewX     float64   `json:"viewX"`
	ViewY     float64   `json:"viewY"`
	Timestamp time.Time `json:"timestamp"`
}

// Normalized returns the detection centre in normalised coordinates.
func (r *Result) Normalized() Point {
	return Point{X: r.NormX, Y: r.NormY}
}

// Listener receives every dispatched finder result, including nil.
type Listener interface {
	OnResult(result *Result)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(result *Result)

// OnResult implements Listener.
func (f ListenerFunc) OnResult(result *Result) {
	f(result)
}

// markerRadiusFrac is the size of the finder marker relative to the
// shorter view side.
const markerRadiusFrac = 0.05

// FocusTarget decides where a tap should focus. When the tap lands within
// the finder marker drawn for result the marker position is used instead
// of the tap. The returned bool reports whether the tap snapped to the
// marker.
func FocusTarget(tap Point, result *Result, viewW, viewH int) (Point, bool) {
	tap = tap.Clamp()
	if result == nil || viewW <= 0 || viewH <= 0 {
		return tap, false
	}
	radius := float64(minInt(viewW, viewH)) * markerRadiusFrac
	dx := tap.X*float64(viewW) - result.ViewX
	dy := tap.Y*float64(viewH) - result.ViewY
	if math.Hypot(dx, dy) <= radius {
		return result.Normalized(), true
	}
	return tap, false
}
