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
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheCacophonyProject/bird-finder/loglimiter"
)

const minLogInterval = time.Minute

// State describes where the engine is in its detection cycle.
type State int

const (
	// Idle means there is no previous frame to diff against.
	Idle State = iota
	// Tracking means frames are being diffed but nothing is locked.
	Tracking
	// Locked means a non-nil result has been dispatched and not yet lost.
	Locked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	case Locked:
		return "locked"
	}
	return "unknown"
}

// NewEngine creates an engine that delivers results to listener through
// dispatcher.
func NewEngine(conf Config, dispatcher Dispatcher, listener Listener) *Engine {
	return NewEngineWithClock(conf, dispatcher, listener, time.Now)
}

// NewEngineWithClock is NewEngine with the time source replaced, for
// playing back recorded frames faster than real time.
func NewEngineWithClock(conf Config, dispatcher Dispatcher, listener Listener, nowFunc func() time.Time) *Engine {
	if dispatcher == nil {
		dispatcher = Inline
	}
	e := &Engine{
		conf:       conf,
		profile:    conf.Profile.valid(),
		thresholds: conf.Profile.Thresholds(),
		frames:     NewFrameLoop(2),
		dispatcher: dispatcher,
		listener:   listener,
		nowFunc:    nowFunc,
		log:        loglimiter.New(minLogInterval),
	}
	e.activeProfile = int32(e.profile)
	if conf.Verbose {
		e.debug = newDebugTracker("threshold", "active", "area", "stable")
	}
	if e.conf.LogEvery < 1 {
		e.conf.LogEvery = 1
	}
	return e
}

// Engine finds a single moving subject in a stream of luminance frames.
// Analyze is expected to be called from one goroutine. The other methods
// may be called from anywhere except a Listener, which must not call
// Analyze, Reset or the profile setters.
type Engine struct {
	mu         sync.Mutex
	conf       Config
	profile    Profile
	thresholds Thresholds
	frames     *FrameLoop
	stats      DiffStats
	mask       []bool
	blobs      blobScratch
	smoother   CentroidSmoother
	gate       MotionGate

	lastAnalysis time.Time
	lastDispatch time.Time
	analyses     int

	// hasLastResult is set while the most recent dispatch was non-nil.
	hasLastResult int32
	activeProfile int32

	viewMu     sync.Mutex
	viewW      int
	viewH      int
	lastResult *Result

	dispatcher Dispatcher
	listener   Listener
	nowFunc    func() time.Time
	debug      *debugTracker
	log        *loglimiter.LogLimiter
}

// Gate returns the gyroscope gate feeding this engine.
func (e *Engine) Gate() *MotionGate {
	return &e.gate
}

// SetViewSize sets the size of the view results are projected onto.
func (e *Engine) SetViewSize(width, height int) {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	e.viewW, e.viewH = width, height
}

// ViewSize returns the current projection size.
func (e *Engine) ViewSize() (int, int) {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	return e.viewW, e.viewH
}

// LastResult returns the most recently dispatched result or nil.
func (e *Engine) LastResult() *Result {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	if e.lastResult == nil {
		return nil
	}
	r := *e.lastResult
	return &r
}

// Profile returns the active profile.
func (e *Engine) Profile() Profile {
	return Profile(atomic.LoadInt32(&e.activeProfile))
}

// SetProfile switches profile. It returns true only when the profile
// actually changed, in which case the caller must Reset the engine.
func (e *Engine) SetProfile(p Profile) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p = p.valid()
	if p == e.profile {
		return false
	}
	e.profile = p
	e.thresholds = p.Thresholds()
	atomic.StoreInt32(&e.activeProfile, int32(p))
	return true
}

// ApplyProfile switches profile and resets all tracking state if it
// changed.
func (e *Engine) ApplyProfile(p Profile) bool {
	if !e.SetProfile(p) {
		return false
	}
	e.Reset()
	return true
}

// State reports the current detection state.
func (e *Engine) State() State {
	if atomic.LoadInt32(&e.hasLastResult) == 1 {
		return Locked
	}
	if !e.frames.HasPrevious() {
		return Idle
	}
	return Tracking
}

// RecentFrame returns a copy of the last analysed luminance frame.
func (e *Engine) RecentFrame() *LumaFrame {
	return e.frames.CopyRecent()
}

// Reset forgets the cached frame and all smoothing state. If a result is
// currently shown a single nil is dispatched.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Engine) reset() {
	e.frames.Clear()
	e.smoother.Reset()
	e.lastAnalysis = time.Time{}
	e.gate.Reset()
	e.debug.reset()
	e.dispatchNull()
}

// Analyze processes one frame. Frames arriving faster than
// MinAnalysisInterval are skipped. Bad input never panics; it results in
// the frame being skipped or a nil result.
func (e *Engine) Analyze(plane Plane) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFunc()
	if now.Sub(e.lastAnalysis) < MinAnalysisInterval {
		return
	}
	e.lastAnalysis = now

	if e.gate.OverCeiling() {
		e.dispatchNull()
		// Skip the next frame as well so the result doesn't flicker at
		// the ceiling.
		e.lastAnalysis = now.Add(MinAnalysisInterval)
		return
	}
	thresholds := e.thresholds

	if plane.Data == nil {
		return
	}
	width, height := plane.Width, plane.Height
	current := e.frames.Current()
	current.Pix = ExtractLuma(plane, current.Pix)
	current.Width, current.Height = width, height
	previous := e.frames.Previous()
	e.frames.Move()
	if previous == nil || len(previous.Pix) != len(current.Pix) {
		return
	}

	AnalyzeDiff(current.Pix, previous.Pix, &e.stats)
	total := e.stats.Total
	if total == 0 {
		e.reset()
		return
	}

	threshold := ChooseThreshold(&e.stats)
	if cap(e.mask) < total {
		e.mask = make([]bool, total)
	}
	e.mask = e.mask[:total]
	onCount := Binarize(e.stats.Deltas, threshold, e.mask)
	activeRatio := float64(onCount) / float64(total)
	e.debug.update("threshold", threshold)
	e.debug.update("active", int(activeRatio*1000))
	e.logStats()

	if activeRatio > thresholds.ActiveRatioMax {
		if e.conf.Verbose {
			e.log.Print("too many points changed")
		}
		e.smoother.Reset()
		e.dispatchNull()
		return
	}

	blob := e.blobs.largest(e.mask, width, height, thresholds.MinAreaFrac, thresholds.MaxAreaFrac)
	if blob == nil {
		e.smoother.Reset()
		e.dispatchNull()
		return
	}
	e.debug.update("area", blob.Area)

	cx, cy := blob.Centroid()
	x, y, stable := e.smoother.Update(
		clamp01(cx/float64(width)),
		clamp01(cy/float64(height)),
		width, height,
		thresholds.StabilityRequired,
	)
	e.debug.update("stable", stable)
	if !e.smoother.Stable() {
		e.dispatchNull()
		return
	}
	e.dispatchResult(x, y, now)
}

func (e *Engine) logStats() {
	if e.debug == nil {
		return
	}
	e.analyses++
	if e.analyses%e.conf.LogEvery != 0 {
		return
	}
	e.log.Printf("finder %s: %s", e.profile, e.debug.summary())
	e.debug.reset()
}

func (e *Engine) dispatchNull() {
	if !atomic.CompareAndSwapInt32(&e.hasLastResult, 1, 0) {
		return
	}
	e.viewMu.Lock()
	e.lastResult = nil
	e.viewMu.Unlock()
	e.emit(nil)
}

func (e *Engine) dispatchResult(x, y float64, now time.Time) {
	if now.Sub(e.lastDispatch) < MinDispatchInterval && atomic.LoadInt32(&e.hasLastResult) == 1 {
		return
	}
	e.lastDispatch = now

	e.viewMu.Lock()
	viewW, viewH := e.viewW, e.viewH
	if viewW <= 0 || viewH <= 0 {
		e.lastResult = nil
		e.viewMu.Unlock()
		atomic.StoreInt32(&e.hasLastResult, 0)
		e.emit(nil)
		return
	}
	result := &Result{
		NormX:     x,
		NormY:     y,
		ViewX:     clamp01(x) * float64(viewW),
		ViewY:     clamp01(y) * float64(viewH),
		Timestamp: now,
	}
	e.lastResult = result
	e.viewMu.Unlock()

	atomic.StoreInt32(&e.hasLastResult, 1)
	e.emit(result)
}

func (e *Engine) emit(result *Result) {
	if e.listener == nil {
		return
	}
	listener := e.listener
	e.dispatcher.Dispatch(func() { listener.OnResult(result) })
}
