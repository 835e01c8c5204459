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

// Package prefs holds the user adjustable settings shared by the finder,
// the confirmer and the auto-fire loop. Changes are persisted to a YAML
// file and pushed to subscribers.
package prefs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/bird-finder/confirm"
	"github.com/TheCacophonyProject/bird-finder/finder"
)

// Prefs is a snapshot of the settings.
type Prefs struct {
	FinderEnabled       bool           `yaml:"finder-enabled"`
	Profile             finder.Profile `yaml:"finder-profile"`
	ConfidenceThreshold float64        `yaml:"confidence-threshold"`
	AutoFireEnabled     bool           `yaml:"auto-fire-enabled"`
}

func Defaults() Prefs {
	return Prefs{
		FinderEnabled:       true,
		Profile:             finder.Outdoor,
		ConfidenceThreshold: confirm.DefaultConfidenceThreshold,
		AutoFireEnabled:     true,
	}
}

// Store owns the current Prefs. Subscribers are called synchronously, in
// registration order, after every change.
type Store struct {
	mu          sync.RWMutex
	prefs       Prefs
	filename    string
	subscribers []func(Prefs)
}

// NewStore returns an in memory store starting at initial.
func NewStore(initial Prefs) *Store {
	initial.ConfidenceThreshold = confirm.ClampThreshold(initial.ConfidenceThreshold)
	return &Store{prefs: initial}
}

// Open loads filename if it exists and persists every later change to
// it. Missing values take their defaults.
func Open(filename string) (*Store, error) {
	p := Defaults()
	buf, err := ioutil.ReadFile(filename)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	if err == nil {
		if err := yaml.Unmarshal(buf, &p); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", filename)
		}
	}
	s := NewStore(p)
	s.filename = filename
	return s, nil
}

// Get returns the current settings.
func (s *Store) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Subscribe registers fn to be called with the new settings on change.
func (s *Store) Subscribe(fn func(Prefs)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) SetProfile(p finder.Profile) error {
	return s.Update(func(prefs *Prefs) {
		prefs.Profile = finder.ProfileFromPreference(p.PreferenceValue())
	})
}

// SetConfidenceThreshold stores threshold clamped to the supported range.
func (s *Store) SetConfidenceThreshold(threshold float64) error {
	return s.Update(func(prefs *Prefs) {
		prefs.ConfidenceThreshold = confirm.ClampThreshold(threshold)
	})
}

func (s *Store) SetFinderEnabled(enabled bool) error {
	return s.Update(func(prefs *Prefs) { prefs.FinderEnabled = enabled })
}

func (s *Store) SetAutoFireEnabled(enabled bool) error {
	return s.Update(func(prefs *Prefs) { prefs.AutoFireEnabled = enabled })
}

// Update applies fn and, if anything changed, saves and notifies
// subscribers. The in memory change is kept even if saving fails.
func (s *Store) Update(fn func(*Prefs)) error {
	s.mu.Lock()
	updated := s.prefs
	fn(&updated)
	if updated == s.prefs {
		s.mu.Unlock()
		return nil
	}
	s.prefs = updated
	subscribers := append([]func(Prefs){}, s.subscribers...)
	err := s.save()
	s.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(updated)
	}
	return err
}

func (s *Store) save() error {
	if s.filename == "" {
		return nil
	}
	buf, err := yaml.Marshal(&s.prefs)
	if err != nil {
		return errors.Wrap(err, "encoding prefs")
	}
	tmp := s.filename + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.filename), 0755); err != nil {
		return errors.Wrap(err, "creating prefs dir")
	}
	if err := ioutil.WriteFile(tmp, buf, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, s.filename), "saving prefs")
}
