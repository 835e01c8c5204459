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
	"image"
	"sync"
	"time"
)

// DefaultOverlayTTL is how long an ROI stays on screen after it was last
// shown.
const DefaultOverlayTTL = 1200 * time.Millisecond

// OverlayState describes the ROI indicator to draw. A Pending overlay has
// no score yet and is drawn dashed; a scored one is drawn solid in the
// Hud colour.
type OverlayState struct {
	Rect    image.Rectangle `json:"rect"`
	Score   *float64        `json:"score"`
	Hud     HudState        `json:"hud"`
	Pending bool            `json:"pending"`
	ShownAt time.Time       `json:"shownAt"`
}

// NewOverlay creates an overlay that hides itself ttl after each Show.
func NewOverlay(ttl time.Duration, threshold float64) *Overlay {
	return &Overlay{
		ttl:       ttl,
		threshold: threshold,
		nowFunc:   time.Now,
	}
}

// Overlay holds the currently displayed ROI.
type Overlay struct {
	mu        sync.Mutex
	ttl       time.Duration
	threshold float64
	state     *OverlayState
	nowFunc   func() time.Time
}

// Show displays rect with score, which is nil while scoring is pending.
// It returns the new state.
func (o *Overlay) Show(rect image.Rectangle, score *float64) OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := OverlayState{
		Rect:    rect,
		Hud:     HudStateFor(score, o.threshold),
		Pending: score == nil,
		ShownAt: o.nowFunc(),
	}
	if score != nil {
		s := *score
		state.Score = &s
	}
	o.state = &state
	return state
}

// Current returns the visible overlay at now, or nil once it has expired.
func (o *Overlay) Current(now time.Time) *OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == nil {
		return nil
	}
	if now.Sub(o.state.ShownAt) >= o.ttl {
		o.state = nil
		return nil
	}
	state := *o.state
	return &state
}

// Visible reports whether an overlay is showing at now.
func (o *Overlay) Visible(now time.Time) bool {
	return o.Current(now) != nil
}

// Clear hides the overlay.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = nil
}

// SetThreshold changes the GREEN threshold. A showing overlay is
// re-evaluated.
func (o *Overlay) SetThreshold(threshold float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.threshold = threshold
	if o.state != nil {
		o.state.Hud = HudStateFor(o.state.Score, threshold)
	}
}

// Threshold returns the GREEN threshold.
func (o *Overlay) Threshold() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.threshold
}
