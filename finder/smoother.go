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

import "math"

const (
	smoothingAlpha  = 0.2
	stabilityRadius = 0.05
)

// CentroidSmoother applies an exponential moving average to normalised
// centroids and counts how many consecutive frames stayed within
// stabilityRadius of the previous one.
type CentroidSmoother struct {
	hasEma      bool
	emaX        float64
	emaY        float64
	hasAccepted bool
	acceptedX   float64
	acceptedY   float64
	stableCount int
	required    int
}

// Update feeds a raw normalised centroid from a width x height frame.
// The stable count is capped at required.
func (s *CentroidSmoother) Update(rawX, rawY float64, width, height, required int) (float64, float64, int) {
	x, y := rawX, rawY
	if s.hasEma {
		x = s.emaX + (rawX-s.emaX)*smoothingAlpha
		y = s.emaY + (rawY-s.emaY)*smoothingAlpha
	}
	x = clamp01(x)
	y = clamp01(y)
	s.emaX, s.emaY, s.hasEma = x, y, true

	if !s.hasAccepted {
		s.stableCount = 1
	} else {
		shortSide := math.Max(float64(minInt(width, height)), 1)
		dx := (x - s.acceptedX) * float64(width)
		dy := (y - s.acceptedY) * float64(height)
		if math.Hypot(dx, dy)/shortSide <= stabilityRadius {
			s.stableCount++
		} else {
			s.stableCount = 1
		}
	}
	if s.stableCount > required {
		s.stableCount = required
	}
	s.required = required

	// Track the latest candidate whether or not it is stable yet.
	s.acceptedX, s.acceptedY, s.hasAccepted = x, y, true
	return x, y, s.stableCount
}

// Stable reports whether the last Update reached the required run length.
func (s *CentroidSmoother) Stable() bool {
	return s.hasEma && s.stableCount >= s.required
}

// StableCount is the current run length.
func (s *CentroidSmoother) StableCount() int {
	return s.stableCount
}

// Reset forgets the average and the stability run.
func (s *CentroidSmoother) Reset() {
	*s = CentroidSmoother{}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
