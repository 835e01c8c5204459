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

package loglimiter

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Print("frame size changed")
	limiter.Print("detector failed")

	assert.Equal(t, "frame size changed\ndetector failed\n", logs.String())
}

func TestPrintf(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Printf("threshold: %d", 42)
	limiter.Printf("profile: %q", "WINDY")

	assert.Equal(t, "threshold: 42\nprofile: \"WINDY\"\n", logs.String())
}

func TestLimitPrintReportsSuppressed(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	now := time.Now()

	limiter := New(2 * time.Second)
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("gyro over ceiling")
	assert.Equal(t, "gyro over ceiling\n", logs.String())

	// Inside the window: dropped and counted.
	now = now.Add(time.Second)
	limiter.Print("gyro over ceiling")
	limiter.Print("gyro over ceiling")
	assert.Equal(t, "gyro over ceiling\n", logs.String())

	// Past the window the repeat count is reported.
	now = now.Add(time.Second)
	limiter.Print("gyro over ceiling")
	assert.Equal(t, "gyro over ceiling\ngyro over ceiling [2 repeats suppressed]\n", logs.String())

	// The count starts again after being reported.
	now = now.Add(2 * time.Second)
	limiter.Print("gyro over ceiling")
	assert.Equal(t, "gyro over ceiling\ngyro over ceiling [2 repeats suppressed]\ngyro over ceiling\n", logs.String())
}

func TestDifferentMessageLetThrough(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	now := time.Now()
	limiter := New(time.Minute)
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("hello")
	limiter.Print("world")
	limiter.Print("world")
	assert.Equal(t, "hello\nworld\n", logs.String())
}

func TestMixed(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	// Mixing Print and Printf doesn't matter if the resulting string is the same.
	limiter := New(time.Minute)
	limiter.Print("hello")
	limiter.Printf("hello")
	assert.Equal(t, "hello\n", logs.String())
}

func captureLogs() (*bytes.Buffer, func()) {
	flags := log.Flags()
	log.SetFlags(0)

	logs := new(bytes.Buffer)
	log.SetOutput(logs)

	return logs, func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}
}
