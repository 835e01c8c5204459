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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLoopPrevious(t *testing.T) {
	fl := NewFrameLoop(2)
	assert.Nil(t, fl.Previous())
	assert.False(t, fl.HasPrevious())

	fl.Current().Pix = []byte{1}
	fl.Move()
	require.NotNil(t, fl.Previous())
	assert.Equal(t, []byte{1}, fl.Previous().Pix)

	fl.Current().Pix = []byte{2}
	fl.Move()
	assert.Equal(t, []byte{2}, fl.Previous().Pix)
	// The oldest buffer is handed back for reuse.
	assert.Equal(t, []byte{1}, fl.Current().Pix)
}

func TestFrameLoopCopyRecent(t *testing.T) {
	fl := NewFrameLoop(2)
	assert.Nil(t, fl.CopyRecent())

	fl.Current().Pix = []byte{5, 6}
	fl.Current().Width = 2
	fl.Current().Height = 1
	fl.Move()

	recent := fl.CopyRecent()
	require.NotNil(t, recent)
	fl.Previous().Pix[0] = 99
	assert.Equal(t, []byte{5, 6}, recent.Pix)
	assert.Equal(t, 2, recent.Width)
}

func TestFrameLoopClear(t *testing.T) {
	fl := NewFrameLoop(2)
	fl.Move()
	assert.True(t, fl.HasPrevious())
	fl.Clear()
	assert.False(t, fl.HasPrevious())
	assert.Nil(t, fl.Previous())
}
