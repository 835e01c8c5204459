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

import "fmt"

// HudState is the colour of the ROI indicator.
type HudState int

const (
	Yellow HudState = iota
	Green
)

func (h HudState) String() string {
	if h == Green {
		return "GREEN"
	}
	return "YELLOW"
}

// MarshalText lets the state be sent as its name in JSON.
func (h HudState) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HudState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "GREEN":
		*h = Green
	case "YELLOW":
		*h = Yellow
	default:
		return fmt.Errorf("unknown hud state %q", text)
	}
	return nil
}

const (
	DefaultConfidenceThreshold = 0.4
	MinConfidenceThreshold     = 0.3
	MaxConfidenceThreshold     = 0.8
)

// HudStateFor is Green only when a score is present and reaches
// threshold.
func HudStateFor(score *float64, threshold float64) HudState {
	if score != nil && *score >= threshold {
		return Green
	}
	return Yellow
}

// ClampThreshold limits a user supplied confidence threshold to the
// supported range.
func ClampThreshold(threshold float64) float64 {
	if threshold < MinConfidenceThreshold {
		return MinConfidenceThreshold
	}
	if threshold > MaxConfidenceThreshold {
		return MaxConfidenceThreshold
	}
	return threshold
}
