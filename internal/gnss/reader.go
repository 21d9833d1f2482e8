// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Reader replays NMEA lines from an already open stream such as stdin or a
// recorded log. It can be started once.
type Reader struct {
	lineSource
	r io.Reader
}

func NewReader(name string, r io.Reader, log logrus.FieldLogger) *Reader {
	rd := Reader{
		r: r,
		lineSource: lineSource{
			path: name,
			log:  log,
		},
	}
	rd.lineSource.opener = &rd

	return &rd
}

func (r *Reader) open() (io.ReadCloser, error) {
	return io.NopCloser(r.r), nil
}
