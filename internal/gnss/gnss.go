// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Source produces NMEA lines from a GNSS receiver. Start opens the receiver
// and sends each non-empty line to sendCh until a value arrives on stop or
// the receiver runs out of data. Read errors go to errCh; a receiver that
// reaches end of file reports io.EOF.
type Source interface {
	Start(sendCh chan<- []byte, stop <-chan bool, errCh chan<- error)
}

type opener interface {
	open() (io.ReadCloser, error)
}

type lineSource struct {
	opener
	path string
	log  logrus.FieldLogger
}

func (s *lineSource) Start(sendCh chan<- []byte, stop <-chan bool, errCh chan<- error) {
	rc, err := s.open()
	if err != nil {
		errCh <- fmt.Errorf("gnss.Start(): %w", err)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.log.WithError(err).WithField("path", s.path).Warn("error closing GNSS device")
		}
	}()
	s.log.WithField("path", s.path).Info("GNSS device opened")

	scanner := bufio.NewScanner(rc)
	scanner.Split(scanBoundedLines)

	for scanner.Scan() {
		line := cleanLine(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		select {
		case <-stop:
			s.log.WithField("path", s.path).Info("GNSS device stopped")
			return
		case sendCh <- line:
		}
	}
	if err := scanner.Err(); err != nil {
		errCh <- fmt.Errorf("gnss.Start(): %w", err)
		return
	}
	errCh <- io.EOF
}

// MaxLineLength bounds a single line. NMEA sentences are at most 82 bytes;
// longer runs without a newline (e.g. a receiver at the wrong baud rate) are
// discarded instead of failing the scan.
const MaxLineLength = 4096

// scanBoundedLines is bufio.ScanLines, except that MaxLineLength bytes without
// a newline are dropped and scanning resumes after them.
func scanBoundedLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	advance, token, err = bufio.ScanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= MaxLineLength {
		return len(data), nil, nil
	}
	return
}

// cleanLine copies a scanned line without surrounding whitespace. Some
// devices prefix messages with a NULL byte, which is dropped too.
func cleanLine(b []byte) []byte {
	b = bytes.Trim(b, " \t\r\n\x00")
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
