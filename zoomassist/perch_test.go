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

package zoomassist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/bird-finder/confirm"
)

func TestGreenTransitionZooms(t *testing.T) {
	p := NewPerchAssist(DefaultConfig())
	now := time.Unix(100, 0)

	target, fire := p.OnHud(confirm.Green, 1.0, 10, now)
	require.True(t, fire)
	assert.InDelta(t, 1.6, target, 1e-9)
	assert.True(t, p.Active())
}

func TestTargetLimitedByCeilingAndDevice(t *testing.T) {
	p := NewPerchAssist(DefaultConfig())
	now := time.Unix(100, 0)

	target, fire := p.OnHud(confirm.Green, 1.5, 10, now)
	require.True(t, fire)
	assert.Equal(t, 2.0, target)

	p.OnHud(confirm.Yellow, 1, 1.2, now)
	target, fire = p.OnHud(confirm.Green, 1.0, 1.2, now.Add(2*time.Second))
	require.True(t, fire)
	assert.Equal(t, 1.2, target)
}

func TestNoZoomWhenAlreadyAtTarget(t *testing.T) {
	p := NewPerchAssist(DefaultConfig())
	target, fire := p.OnHud(confirm.Green, 2.0, 8, time.Unix(100, 0))
	assert.False(t, fire)
	assert.Equal(t, 2.0, target)
}

func TestStayingGreenDoesNotZoomAgain(t *testing.T) {
	p := NewPerchAssist(DefaultConfig())
	now := time.Unix(100, 0)
	_, fire := p.OnHud(confirm.Green, 1, 8, now)
	require.True(t, fire)

	_, fire = p.OnHud(confirm.Green, 1.6, 8, now.Add(5*time.Second))
	assert.False(t, fire)
}

func TestCooldown(t *testing.T) {
	p := NewPerchAssist(DefaultConfig())
	now := time.Unix(100, 0)
	_, fire := p.OnHud(confirm.Green, 1, 8, now)
	require.True(t, fire)

	p.OnHud(confirm.Yellow, 1, 8, now)
	_, fire = p.OnHud(confirm.Green, 1, 8, now.Add(time.Second))
	assert.False(t, fire, "within cooldown")

	p.OnHud(confirm.Yellow, 1, 8, now)
	_, fire = p.OnHud(confirm.Green, 1, 8, now.Add(1200*time.Millisecond))
	assert.True(t, fire)
}

func TestDisabled(t *testing.T) {
	conf := DefaultConfig()
	conf.Enabled = false
	p := NewPerchAssist(conf)
	_, fire := p.OnHud(confirm.Green, 1, 8, time.Unix(100, 0))
	assert.False(t, fire)
	assert.True(t, p.Active())
}

func TestClear(t *testing.T) {
	p := NewPerchAssist(DefaultConfig())
	now := time.Unix(100, 0)
	p.OnHud(confirm.Green, 1, 8, now)
	p.Clear()
	assert.False(t, p.Active())

	_, fire := p.OnHud(confirm.Green, 1, 8, now.Add(2*time.Second))
	assert.True(t, fire)
}
