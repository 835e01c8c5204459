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
	"context"
	"fmt"
	"net"
	"os"

	pkgerrors "github.com/pkg/errors"

	"github.com/TheCacophonyProject/bird-finder/finder"
)

// listenGyro reads datagrams of "wx wy wz" angular rates (rad/s) from a
// unix socket at path and feeds their magnitude to gate.
func listenGyro(ctx context.Context, path string, gate *finder.MotionGate) error {
	os.Remove(path)
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return pkgerrors.Wrap(err, "listening for gyro samples")
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		omega, err := parseGyroSample(buf[:n])
		if err != nil {
			continue
		}
		gate.Update(omega)
	}
}

func parseGyroSample(sample []byte) (float64, error) {
	var wx, wy, wz float64
	if _, err := fmt.Sscanf(string(sample), "%g %g %g", &wx, &wy, &wz); err != nil {
		return 0, pkgerrors.Wrapf(err, "bad gyro sample %q", sample)
	}
	return finder.GyroMagnitude(wx, wy, wz), nil
}
