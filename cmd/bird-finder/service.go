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

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/TheCacophonyProject/bird-finder/autofire"
	"github.com/TheCacophonyProject/bird-finder/confirm"
	"github.com/TheCacophonyProject/bird-finder/finder"
	"github.com/TheCacophonyProject/bird-finder/prefs"
)

const (
	dbusName = "org.cacophony.birdfinder"
	dbusPath = "/org/cacophony/birdfinder"
)

type service struct {
	app *app
}

func startService(a *app) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{app: a}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// Tap arms auto-fire at a normalised view position. The position used
// is returned; it is the finder marker when the tap landed on it.
func (s *service) Tap(x, y float64) (float64, float64, *dbus.Error) {
	target := s.app.tap(finder.Point{X: x, Y: y})
	return target.X, target.Y, nil
}

// LongPress disarms auto-fire and confirms the subject at (x, y).
func (s *service) LongPress(x, y float64) *dbus.Error {
	s.app.longPress(finder.Point{X: x, Y: y})
	return nil
}

// UpdateGyro takes the angular rates (rad/s) around each axis.
func (s *service) UpdateGyro(wx, wy, wz float64) *dbus.Error {
	s.app.engine.Gate().UpdateRates(wx, wy, wz)
	return nil
}

func (s *service) SetProfile(name string) *dbus.Error {
	for _, p := range finder.Profiles() {
		if p.PreferenceValue() == name {
			if err := s.app.prefs.SetProfile(p); err != nil {
				return makeDbusError("SetProfile", err)
			}
			return nil
		}
	}
	return makeDbusError("SetProfile", fmt.Errorf("unknown profile %q", name))
}

func (s *service) SetConfidenceThreshold(threshold float64) *dbus.Error {
	if err := s.app.prefs.SetConfidenceThreshold(threshold); err != nil {
		return makeDbusError("SetConfidenceThreshold", err)
	}
	return nil
}

func (s *service) SetFinderEnabled(enabled bool) *dbus.Error {
	if err := s.app.prefs.SetFinderEnabled(enabled); err != nil {
		return makeDbusError("SetFinderEnabled", err)
	}
	return nil
}

func (s *service) SetAutoFireEnabled(enabled bool) *dbus.Error {
	if err := s.app.prefs.SetAutoFireEnabled(enabled); err != nil {
		return makeDbusError("SetAutoFireEnabled", err)
	}
	return nil
}

// GetFinderResult returns the current finder result as JSON, "null" when
// nothing is locked.
func (s *service) GetFinderResult() (string, *dbus.Error) {
	buf, err := json.Marshal(s.app.engine.LastResult())
	if err != nil {
		return "", makeDbusError("GetFinderResult", err)
	}
	return string(buf), nil
}

type state struct {
	Finder   string                `json:"finder"`
	Profile  string                `json:"profile"`
	Omega    float64               `json:"omega"`
	Zoom     float64               `json:"zoom"`
	Prefs    prefs.Prefs           `json:"prefs"`
	AutoFire autofire.Status       `json:"autoFire"`
	Overlay  *confirm.OverlayState `json:"overlay"`
}

// GetState returns a JSON summary of the finder, auto-fire and overlay.
func (s *service) GetState() (string, *dbus.Error) {
	buf, err := json.Marshal(s.app.state())
	if err != nil {
		return "", makeDbusError("GetState", err)
	}
	return string(buf), nil
}

// TakeSnapshot will save the most recent analysed frame as a still.
func (s *service) TakeSnapshot() *dbus.Error {
	if s.app.snapshots == nil {
		return makeDbusError("TakeSnapshot", errors.New("snapshots are not available"))
	}
	if err := s.app.snapshots.take(); err != nil {
		return makeDbusError("TakeSnapshot", err)
	}
	return nil
}

func (a *app) state() state {
	now := a.nowFunc()
	return state{
		Finder:   a.engine.State().String(),
		Profile:  a.engine.Profile().PreferenceValue(),
		Omega:    a.engine.Gate().Omega(),
		Zoom:     a.currentZoom(),
		Prefs:    a.prefs.Get(),
		AutoFire: a.autoFire.Status(now),
		Overlay:  a.confirmer.Overlay().Current(now),
	}
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
