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

package throttle

import (
	"encoding/json"
	"log"
	"time"

	"github.com/godbus/dbus"
	"github.com/pkg/errors"
)

// EventQueue stores device events for later upload.
type EventQueue interface {
	Queue(eventType string, details map[string]interface{}, ts time.Time) error
}

// DbusEventQueue queues events with the event reporter over the system
// bus.
type DbusEventQueue struct{}

func (DbusEventQueue) Queue(eventType string, details map[string]interface{}, ts time.Time) error {
	eventDetails := map[string]interface{}{
		"description": map[string]interface{}{
			"type":    eventType,
			"details": details,
		},
	}
	detailsJSON, err := json.Marshal(&eventDetails)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return errors.Wrap(err, "connecting to system bus")
	}

	obj := conn.Object("org.cacophony.Events", "/org/cacophony/Events")
	call := obj.Call("org.cacophony.Events.Queue", 0, detailsJSON, ts.UnixNano())
	return errors.Wrap(call.Err, "queueing event")
}

// ThrottledEventRecorder uses the event api to record that an action was
// throttled at a particular time.
type ThrottledEventRecorder struct {
	Events  EventQueue
	NowFunc func() time.Time
}

func (er ThrottledEventRecorder) WhenThrottled(name string) {
	now := time.Now
	if er.NowFunc != nil {
		now = er.NowFunc
	}
	details := map[string]interface{}{"action": name}
	if err := er.Events.Queue("throttle", details, now()); err != nil {
		log.Printf("Could not record throttle event: %s", err)
	}
}
