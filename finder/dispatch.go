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

import "context"

// Dispatcher runs functions on the consumer context.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to a Dispatcher.
type DispatchFunc func(fn func())

// Dispatch implements Dispatcher.
func (f DispatchFunc) Dispatch(fn func()) {
	f(fn)
}

// Inline runs dispatched functions immediately on the caller's goroutine.
var Inline Dispatcher = DispatchFunc(func(fn func()) { fn() })

// NewSerialDispatcher returns a dispatcher that runs functions one at a
// time, in order, on the goroutine calling Run.
func NewSerialDispatcher(queueSize int) *SerialDispatcher {
	return &SerialDispatcher{
		queue: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

type SerialDispatcher struct {
	queue chan func()
	done  chan struct{}
}

// Dispatch queues fn. It blocks while the queue is full and drops fn once
// Run has returned.
func (d *SerialDispatcher) Dispatch(fn func()) {
	select {
	case d.queue <- fn:
	case <-d.done:
	}
}

// Run executes queued functions until ctx is cancelled.
func (d *SerialDispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-d.queue:
			fn()
		}
	}
}

// LatestFrame is a single slot hand-off between a frame reader and the
// analysis goroutine. Offering a frame while one is pending replaces it.
type LatestFrame struct {
	ch chan Plane
}

func NewLatestFrame() *LatestFrame {
	return &LatestFrame{ch: make(chan Plane, 1)}
}

// Offer hands p to the consumer. If an unconsumed frame was waiting it is
// returned so the caller can recycle its buffer.
func (l *LatestFrame) Offer(p Plane) (dropped *Plane) {
	for {
		select {
		case l.ch <- p:
			return dropped
		default:
		}
		select {
		case old := <-l.ch:
			dropped = &old
		default:
		}
	}
}

// Frames is the channel the analysis goroutine receives from.
func (l *LatestFrame) Frames() <-chan Plane {
	return l.ch
}
