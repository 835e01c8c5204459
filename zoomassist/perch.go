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
	"errors"
	"math"
	"sync"
	"time"

	"github.com/TheCacophonyProject/bird-finder/confirm"
)

type Config struct {
	Enabled    bool          `yaml:"enabled"`
	Multiplier float64       `yaml:"multiplier"`
	Ceiling    float64       `yaml:"ceiling"`
	Cooldown   time.Duration `yaml:"cooldown"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Multiplier: 1.6,
		Ceiling:    2.0,
		Cooldown:   1200 * time.Millisecond,
	}
}

func (conf *Config) Validate() error {
	if conf.Multiplier <= 1 {
		return errors.New("perch-assist multiplier must be above 1")
	}
	if conf.Ceiling <= 1 {
		return errors.New("perch-assist ceiling must be above 1")
	}
	if conf.Cooldown < 0 {
		return errors.New("perch-assist cooldown can't be negative")
	}
	return nil
}

// NewPerchAssist creates a PerchAssist. The HUD starts YELLOW.
func NewPerchAssist(conf Config) *PerchAssist {
	return &PerchAssist{
		conf:    conf,
		lastHud: confirm.Yellow,
	}
}

// PerchAssist zooms in once when the ROI indicator turns GREEN, so a
// confirmed subject fills more of the frame.
type PerchAssist struct {
	mu        sync.Mutex
	conf      Config
	lastHud   confirm.HudState
	lastPerch time.Time
	active    bool
}

// OnHud reports a new HUD state along with the current and maximum zoom
// ratios. When the HUD has just turned GREEN and the cooldown has passed
// it returns the zoom ratio to move to and true.
func (p *PerchAssist) OnHud(state confirm.HudState, current, max float64, now time.Time) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	becameGreen := state == confirm.Green && p.lastHud != confirm.Green
	p.lastHud = state
	p.active = state == confirm.Green
	if !p.conf.Enabled || !becameGreen {
		return current, false
	}
	if now.Sub(p.lastPerch) < p.conf.Cooldown {
		return current, false
	}
	target := math.Min(math.Min(current*p.conf.Multiplier, p.conf.Ceiling), max)
	if target <= current {
		return current, false
	}
	p.lastPerch = now
	return target, true
}

// Active reports whether the HUD is currently GREEN.
func (p *PerchAssist) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Clear is called when the overlay expires.
func (p *PerchAssist) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
	p.lastHud = confirm.Yellow
}
