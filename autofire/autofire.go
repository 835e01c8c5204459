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

package autofire

import (
	"context"
	"sync"
	"time"

	"github.com/TheCacophonyProject/bird-finder/finder"
)

// OmegaSource supplies the latest gyroscope angular speed.
// *finder.MotionGate satisfies it.
type OmegaSource interface {
	Omega() float64
}

// FireFunc is called with the last tapped point when the camera has been
// held still long enough after a tap.
type FireFunc func(p finder.Point)

// Status is a snapshot of the state machine.
type Status struct {
	Armed     bool          `json:"armed"`
	Latched   bool          `json:"latched"`
	Ema       float64       `json:"ema"`
	StableFor time.Duration `json:"stableFor"`
	LastTap   finder.Point  `json:"lastTap"`
}

// New creates a state machine. Polls only happen through Run or Poll.
func New(conf Config, omega OmegaSource, fire FireFunc) *StateMachine {
	return &StateMachine{
		conf:    conf,
		omega:   omega,
		fire:    fire,
		lastTap: finder.Point{X: 0.5, Y: 0.5},
		nowFunc: time.Now,
	}
}

// StateMachine fires once per tap after the camera has settled. The gyro
// speed is smoothed and latched with hysteresis, any raw spike over the
// exit level restarts a quiet window, and stillness must be held
// continuously before firing.
type StateMachine struct {
	mu    sync.Mutex
	conf  Config
	omega OmegaSource
	fire  FireFunc

	ema          float64
	latched      bool
	lastOverExit time.Time
	stableSince  time.Time
	lastFire     time.Time
	armed        bool
	lastTapAt    time.Time
	lastTap      finder.Point

	nowFunc func() time.Time
}

// Tap arms the machine at p.
func (sm *StateMachine) Tap(p finder.Point, now time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.lastTap = p.Clamp()
	sm.lastTapAt = now
	sm.armed = true
	sm.stableSince = time.Time{}
}

// LongPress disarms the machine without firing. It returns p clamped to
// the view so the caller can confirm the subject there.
func (sm *StateMachine) LongPress(p finder.Point) finder.Point {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.armed = false
	sm.stableSince = time.Time{}
	return p.Clamp()
}

// Poll advances the machine to now. It returns true if it fired.
func (sm *StateMachine) Poll(now time.Time) bool {
	point, fired := sm.step(now)
	if fired && sm.fire != nil {
		sm.fire(point)
	}
	return fired
}

func (sm *StateMachine) step(now time.Time) (finder.Point, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	omega := sm.omega.Omega()
	sm.ema = sm.conf.Smoothing*omega + (1-sm.conf.Smoothing)*sm.ema
	if sm.latched {
		if sm.ema > sm.conf.ExitOmega {
			sm.latched = false
		}
	} else if sm.ema < sm.conf.EnterOmega {
		sm.latched = true
	}
	if omega > sm.conf.ExitOmega {
		sm.lastOverExit = now
	}
	recentQuiet := now.Sub(sm.lastOverExit) >= sm.conf.QuietWindow
	armedAndWaited := sm.armed && now.Sub(sm.lastTapAt) >= sm.conf.ArmDelay

	if !armedAndWaited || !sm.latched || !recentQuiet {
		sm.stableSince = time.Time{}
		return finder.Point{}, false
	}
	if sm.stableSince.IsZero() {
		sm.stableSince = now
	}
	if now.Sub(sm.stableSince) < sm.conf.Hold || now.Sub(sm.lastFire) < sm.conf.Cooldown {
		return finder.Point{}, false
	}
	sm.lastFire = now
	sm.armed = false
	sm.stableSince = time.Time{}
	return sm.lastTap, true
}

// Status returns a snapshot for reporting.
func (sm *StateMachine) Status(now time.Time) Status {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	status := Status{
		Armed:   sm.armed,
		Latched: sm.latched,
		Ema:     sm.ema,
		LastTap: sm.lastTap,
	}
	if !sm.stableSince.IsZero() {
		status.StableFor = now.Sub(sm.stableSince)
	}
	return status
}

// Run polls at the configured interval until ctx is done.
func (sm *StateMachine) Run(ctx context.Context) error {
	ticker := time.NewTicker(sm.conf.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sm.Poll(sm.nowFunc())
		}
	}
}
