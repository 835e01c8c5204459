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

import "sync"

// LumaFrame is a packed 8-bit luminance frame.
type LumaFrame struct {
	Pix    []byte
	Width  int
	Height int
}

// Copy returns a deep copy of the frame.
func (f *LumaFrame) Copy() *LumaFrame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &LumaFrame{Pix: pix, Width: f.Width, Height: f.Height}
}

// NewFrameLoop creates a loop holding the last size frames.
func NewFrameLoop(size int) *FrameLoop {
	if size < 2 {
		size = 2
	}
	frames := make([]*LumaFrame, size)
	for i := range frames {
		frames[i] = new(LumaFrame)
	}
	return &FrameLoop{
		size:   size,
		frames: frames,
	}
}

// FrameLoop stores the last n luminance frames in a loop that will be
// overwritten when full. Frame buffers are reused so anything returned by
// the loop will eventually get overwritten.
type FrameLoop struct {
	size         int
	currentIndex int
	frames       []*LumaFrame
	stored       int
	mu           sync.Mutex
}

func (fl *FrameLoop) previousIndex() int {
	return (fl.currentIndex - 1 + fl.size) % fl.size
}

// Current returns the frame that will be written next.
func (fl *FrameLoop) Current() *LumaFrame {
	return fl.frames[fl.currentIndex]
}

// Previous returns the most recently stored frame, or nil if nothing has
// been stored since the loop was created or cleared.
func (fl *FrameLoop) Previous() *LumaFrame {
	if fl.stored == 0 {
		return nil
	}
	return fl.frames[fl.previousIndex()]
}

// HasPrevious reports whether a frame has been stored.
func (fl *FrameLoop) HasPrevious() bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.stored > 0
}

// Move marks the current frame as stored and moves forwards, returning the
// new current frame.
func (fl *FrameLoop) Move() *LumaFrame {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.stored < fl.size {
		fl.stored++
	}
	fl.currentIndex = (fl.currentIndex + 1) % fl.size
	return fl.Current()
}

// CopyRecent returns a copy of the most recently stored frame.
func (fl *FrameLoop) CopyRecent() *LumaFrame {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.stored == 0 {
		return nil
	}
	return fl.frames[fl.previousIndex()].Copy()
}

// Clear forgets all stored frames. The buffers are kept for reuse.
func (fl *FrameLoop) Clear() {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	fl.stored = 0
	fl.currentIndex = 0
}
