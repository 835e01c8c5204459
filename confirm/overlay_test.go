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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOverlay(now *time.Time) *Overlay {
	o := NewOverlay(DefaultOverlayTTL, DefaultConfidenceThreshold)
	o.nowFunc = func() time.Time { return *now }
	return o
}

func TestPendingOverlay(t *testing.T) {
	now := time.Unix(1000, 0)
	o := newTestOverlay(&now)

	state := o.Show(image.Rect(0, 0, 10, 10), nil)
	assert.True(t, state.Pending)
	assert.Nil(t, state.Score)
	assert.Equal(t, Yellow, state.Hud)
}

func TestOverlayExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	o := newTestOverlay(&now)
	o.Show(image.Rect(0, 0, 10, 10), score(0.5))

	assert.True(t, o.Visible(now.Add(DefaultOverlayTTL-time.Millisecond)))
	assert.False(t, o.Visible(now.Add(DefaultOverlayTTL)))
	assert.Nil(t, o.Current(now))
}

func TestShowRestartsExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	o := newTestOverlay(&now)
	o.Show(image.Rect(0, 0, 10, 10), nil)

	now = now.Add(time.Second)
	o.Show(image.Rect(0, 0, 10, 10), score(0.2))
	current := o.Current(now.Add(time.Second))
	require.NotNil(t, current)
	assert.False(t, current.Pending)
}

func TestScoredOverlayColour(t *testing.T) {
	now := time.Unix(1000, 0)
	o := newTestOverlay(&now)

	state := o.Show(image.Rect(0, 0, 10, 10), score(0.5))
	assert.Equal(t, Green, state.Hud)
	assert.False(t, state.Pending)
	assert.Equal(t, 0.5, *state.Score)

	o.SetThreshold(0.6)
	current := o.Current(now)
	require.NotNil(t, current)
	assert.Equal(t, Yellow, current.Hud)
	assert.Equal(t, 0.6, o.Threshold())
}

func TestOverlayClear(t *testing.T) {
	now := time.Unix(1000, 0)
	o := newTestOverlay(&now)
	o.Show(image.Rect(0, 0, 10, 10), nil)
	o.Clear()
	assert.False(t, o.Visible(now))
}
