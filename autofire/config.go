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
	"errors"
	"time"
)

type Config struct {
	Enabled      bool          `yaml:"enabled"`
	ArmDelay     time.Duration `yaml:"arm-delay"`
	Hold         time.Duration `yaml:"hold"`
	Cooldown     time.Duration `yaml:"cooldown"`
	QuietWindow  time.Duration `yaml:"quiet-window"`
	EnterOmega   float64       `yaml:"enter-omega"`
	ExitOmega    float64       `yaml:"exit-omega"`
	Smoothing    float64       `yaml:"smoothing"`
	PollInterval time.Duration `yaml:"poll-interval"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		ArmDelay:     350 * time.Millisecond,
		Hold:         600 * time.Millisecond,
		Cooldown:     1200 * time.Millisecond,
		QuietWindow:  800 * time.Millisecond,
		EnterOmega:   0.14,
		ExitOmega:    0.25,
		Smoothing:    0.2,
		PollInterval: 50 * time.Millisecond,
	}
}

func (conf *Config) Validate() error {
	if conf.EnterOmega <= 0 || conf.ExitOmega <= 0 {
		return errors.New("enter-omega and exit-omega must be positive")
	}
	if conf.EnterOmega > conf.ExitOmega {
		return errors.New("enter-omega can't be above exit-omega")
	}
	if conf.Smoothing <= 0 || conf.Smoothing > 1 {
		return errors.New("smoothing must be in (0,1]")
	}
	if conf.PollInterval <= 0 {
		return errors.New("poll-interval must be positive")
	}
	if conf.ArmDelay < 0 || conf.Hold < 0 || conf.Cooldown < 0 || conf.QuietWindow < 0 {
		return errors.New("auto-fire durations can't be negative")
	}
	return nil
}
