// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/postmarketOS/gnss_fix/internal/gnss"
	"gitlab.com/postmarketOS/gnss_fix/internal/nmea"
	"gitlab.com/postmarketOS/gnss_fix/internal/pool"
	"gitlab.com/postmarketOS/gnss_fix/internal/publish"
)

const recorded = "$GPGGA,123519.487,3754.587,N,14507.036,W,1,08,0.9,545.4,M,46.9,M,,*47\r\n" +
	"$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K\r\n" +
	"$GPRMC,123519.487,A,3754.587,N,14507.036,W,000.0,360.0,120419,,,D\r\n"

// socketPath keeps the path short enough for a unix socket.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "gnss")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "fix.sock")
}

type harness struct {
	server *Server
	pool   *pool.Pool
	hook   *logtest.Hook
	socket string
	errc   chan error
}

func newHarness(t *testing.T, source func(logrus.FieldLogger) gnss.Source) *harness {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	p := pool.New()
	go p.Start()

	dec := nmea.NewDecoder(log)
	dec.Assembler.Now = func() time.Time {
		return time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	}

	h := &harness{
		pool:   p,
		hook:   hook,
		socket: socketPath(t),
		errc:   make(chan error, 1),
	}
	h.server = New(h.socket, "", source(log), dec, publish.NewPool(p), p, log)
	return h
}

func (h *harness) serve(t *testing.T) {
	t.Helper()
	require.NoError(t, h.server.Listen())
	go func() { h.errc <- h.server.Serve() }()
}

func (h *harness) logged(msg string) bool {
	for _, e := range h.hook.AllEntries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}

func TestServeBroadcastsFixes(t *testing.T) {
	h := newHarness(t, func(log logrus.FieldLogger) gnss.Source {
		return gnss.NewReader("recorded", strings.NewReader(recorded), log)
	})
	h.serve(t)

	info, err := os.Stat(h.socket)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0660), info.Mode().Perm())

	conn, err := net.Dial("unix", h.socket)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	scanner := bufio.NewScanner(conn)
	var fixes []nmea.Fix
	for len(fixes) < 2 && scanner.Scan() {
		var fix nmea.Fix
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &fix))
		fixes = append(fixes, fix)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, fixes, 2)

	assert.Equal(t, nmea.FormatGGA, fixes[0].Format)
	require.NotNil(t, fixes[0].Altitude)
	assert.Equal(t, 545.4, *fixes[0].Altitude)
	assert.Nil(t, fixes[0].Speed)

	assert.Equal(t, nmea.FormatRMC, fixes[1].Format)
	assert.Nil(t, fixes[1].Altitude)
	assert.InDelta(t, -145.1173, fixes[1].Longitude, 1e-4)

	var decodeErr *logrus.Entry
	for _, e := range h.hook.AllEntries() {
		if e.Data["kind"] == "unsupported_format" {
			decodeErr = e
		}
	}
	require.NotNil(t, decodeErr)
	assert.Equal(t, "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K", decodeErr.Data["line"])

	assert.Eventually(t, func() bool { return h.logged("GNSS source exhausted") }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, h.server.Close())
	assert.NoError(t, <-h.errc)
}

func TestServeStopsSourceWithoutClients(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := newHarness(t, func(log logrus.FieldLogger) gnss.Source {
		return gnss.NewReader("pipe", pr, log)
	})
	h.serve(t)

	conn, err := net.Dial("unix", h.socket)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// keep writing until the source has been started and a fix arrives
	go func() {
		for {
			if _, err := pw.Write([]byte("$GPRMC,123519.487,A,3754.587,N,14507.036,W,1.0,360.0,120419,,,D\n")); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)
	var fix nmea.Fix
	require.NoError(t, json.Unmarshal(line, &fix))
	assert.Equal(t, nmea.FormatRMC, fix.Format)

	conn.Close()
	assert.Eventually(t, func() bool { return h.logged("no clients connected, closing GNSS") }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, h.server.Close())
	assert.NoError(t, <-h.errc)
}

func TestServeSourceError(t *testing.T) {
	h := newHarness(t, func(log logrus.FieldLogger) gnss.Source {
		return gnss.NewDevice(filepath.Join(os.TempDir(), "gnss-missing-device"), log)
	})
	h.server.AlwaysOn = true
	h.serve(t)

	select {
	case err := <-h.errc:
		assert.ErrorIs(t, err, os.ErrNotExist)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not fail")
	}
}

func TestListenUnknownGroup(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	s := New(socketPath(t), "gnss-fix-no-such-group", nil, nil, nil, pool.New(), log)
	assert.Error(t, s.Listen())
}

func TestCloseTwice(t *testing.T) {
	h := newHarness(t, func(log logrus.FieldLogger) gnss.Source {
		return gnss.NewReader("empty", strings.NewReader(""), log)
	})
	h.serve(t)

	require.NoError(t, h.server.Close())
	assert.NotPanics(t, func() { assert.NoError(t, h.server.Close()) })
	assert.NoError(t, <-h.errc)
}
