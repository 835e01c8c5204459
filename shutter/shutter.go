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

// Package shutter triggers a camera shutter wired to a GPIO pin.
package shutter

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

type Config struct {
	Pin   string        `yaml:"pin"`
	Pulse time.Duration `yaml:"pulse"`
	// ActiveLow pulls the pin low to release the shutter.
	ActiveLow bool `yaml:"active-low"`
}

func DefaultConfig() Config {
	return Config{
		Pin:   "",
		Pulse: 100 * time.Millisecond,
	}
}

func (conf *Config) Validate() error {
	if conf.Pin != "" && conf.Pulse <= 0 {
		return errors.New("shutter pulse must be positive")
	}
	return nil
}

// Pin is the part of gpio.PinOut a Release uses.
type Pin interface {
	Out(l gpio.Level) error
	String() string
}

// New initialises the GPIO host and returns a Release for the configured
// pin. With no pin configured the release only logs.
func New(conf Config) (*Release, error) {
	if conf.Pin == "" {
		return NewWithPin(conf, nil)
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(conf.Pin)
	if pin == nil {
		return nil, fmt.Errorf("failed to load shutter pin %s", conf.Pin)
	}
	return NewWithPin(conf, pin)
}

// NewWithPin returns a Release driving pin, which is moved to its idle
// level straight away. pin may be nil.
func NewWithPin(conf Config, pin Pin) (*Release, error) {
	r := &Release{
		pin:   pin,
		pulse: conf.Pulse,
		on:    gpio.High,
		off:   gpio.Low,
		sleep: time.Sleep,
	}
	if conf.ActiveLow {
		r.on, r.off = gpio.Low, gpio.High
	}
	if pin != nil {
		if err := pin.Out(r.off); err != nil {
			return nil, fmt.Errorf("failed to set shutter pin idle: %v", err)
		}
	}
	return r, nil
}

// Release pulses a shutter pin.
type Release struct {
	mu       sync.Mutex
	pin      Pin
	pulse    time.Duration
	on       gpio.Level
	off      gpio.Level
	sleep    func(time.Duration)
	released int
}

// Fire holds the pin at its active level for the pulse length.
func (r *Release) Fire() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.released++
	if r.pin == nil {
		log.Print("shutter released (no pin configured)")
		return nil
	}
	if err := r.pin.Out(r.on); err != nil {
		return fmt.Errorf("failed to set shutter pin %s: %v", r.pin, err)
	}
	r.sleep(r.pulse)
	if err := r.pin.Out(r.off); err != nil {
		return fmt.Errorf("failed to reset shutter pin %s: %v", r.pin, err)
	}
	return nil
}

// Count returns how many times Fire has been called.
func (r *Release) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}
