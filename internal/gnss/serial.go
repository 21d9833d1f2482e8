// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Serial is a receiver accessed directly over a serial interface on the
// system, e.g. via /dev/ttyN or /dev/ttyUSBN. It is *not* using the GNSS
// subsystem in the Linux kernel.
type Serial struct {
	lineSource
	mode serial.Mode
}

func NewSerial(path string, baud int, log logrus.FieldLogger) *Serial {
	s := Serial{
		mode: serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		lineSource: lineSource{
			path: path,
			log:  log,
		},
	}
	s.lineSource.opener = &s

	return &s
}

func (s *Serial) open() (io.ReadCloser, error) {
	port, err := serial.Open(s.path, &s.mode)
	if err != nil {
		return nil, fmt.Errorf("gnss.Serial.open(): %w", err)
	}
	return port, nil
}
