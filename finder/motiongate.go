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
	"sync/atomic"
)

// OmegaCeiling is the angular speed (rad/s) at or above which analysis is
// suppressed.
const OmegaCeiling = 1.2

// MotionGate holds the most recent gyroscope angular speed. Writers and
// readers may be on different goroutines; only the freshest value matters.
type MotionGate struct {
	bits uint64
}

// GyroMagnitude returns the angular speed from the per axis rates.
func GyroMagnitude(wx, wy, wz float64) float64 {
	return math.Sqrt(wx*wx + wy*wy + wz*wz)
}

// Update stores a new angular speed.
func (g *MotionGate) Update(omega float64) {
	atomic.StoreUint64(&g.bits, math.Float64bits(omega))
}

// UpdateRates stores the magnitude of the given per axis rates.
func (g *MotionGate) UpdateRates(wx, wy, wz float64) {
	g.Update(GyroMagnitude(wx, wy, wz))
}

// Omega returns the most recently stored angular speed.
func (g *MotionGate) Omega() float64 {
	return math.Float64frombits(atomic.LoadUint64(&g.bits))
}

// OverCeiling reports whether the camera is moving too fast to analyse.
func (g *MotionGate) OverCeiling() bool {
	return g.Omega() >= OmegaCeiling
}

// Reset clears the stored angular speed.
func (g *MotionGate) Reset() {
	g.Update(0)
}
