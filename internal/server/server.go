// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"gitlab.com/postmarketOS/gnss_fix/internal/gnss"
	"gitlab.com/postmarketOS/gnss_fix/internal/nmea"
	"gitlab.com/postmarketOS/gnss_fix/internal/pool"
	"gitlab.com/postmarketOS/gnss_fix/internal/publish"
)

type Server struct {
	socket    string
	sockGroup string
	connPool  *pool.Pool
	sock      net.Listener
	source    gnss.Source
	decoder   *nmea.Decoder
	publisher publish.Publisher
	log       logrus.FieldLogger

	// AlwaysOn keeps the source running without any socket client, e.g.
	// when fixes are also published to MQTT.
	AlwaysOn bool

	events    chan int
	quit      chan struct{}
	closeOnce sync.Once
}

// Create a new Server. Lines from source are decoded and every decoded fix is
// handed to publisher. The source is started when the first client connects
// and stopped when the last client disconnects.
func New(socket string, sockGroup string, source gnss.Source, decoder *nmea.Decoder, publisher publish.Publisher, connPool *pool.Pool, log logrus.FieldLogger) (s *Server) {
	s = &Server{
		socket:    socket,
		sockGroup: sockGroup,
		connPool:  connPool,
		source:    source,
		decoder:   decoder,
		publisher: publisher,
		log:       log,
		events:    make(chan int),
		quit:      make(chan struct{}),
	}

	return
}

// Listen creates the unix socket, readable and writable by the owner group.
func (s *Server) Listen() (err error) {
	if err := os.RemoveAll(s.socket); err != nil {
		return fmt.Errorf("server.Listen(): %w", err)
	}

	s.sock, err = net.Listen("unix", s.socket)
	if err != nil {
		return fmt.Errorf("server.Listen(): %w", err)
	}

	if err := os.Chmod(s.socket, 0660); err != nil {
		s.sock.Close()
		return fmt.Errorf("server.Listen(): %w", err)
	}

	if s.sockGroup == "" {
		return nil
	}

	group, err := user.LookupGroup(s.sockGroup)
	if err != nil {
		s.sock.Close()
		return fmt.Errorf("server.Listen(): %w", err)
	}

	gid, err := strconv.ParseInt(group.Gid, 10, 32)
	if err != nil {
		s.sock.Close()
		return fmt.Errorf("server.Listen(): %w", err)
	}

	if err := os.Chown(s.socket, -1, int(gid)); err != nil {
		s.sock.Close()
		return fmt.Errorf("server.Listen(): %w", err)
	}
	return nil
}

// Serve accepts clients and runs the source until Close is called or the
// source fails. A source that runs out of data is not restarted.
func (s *Server) Serve() error {
	defer s.sock.Close()

	s.log.WithField("socket", s.socket).Info("starting GNSS fix server")
	go s.connectionHandler()

	lines := make(chan []byte)
	// carries the error reported by a finished source run, nil if none
	sourceDone := make(chan error, 1)
	var stop chan bool

	clients := 0
	running := false
	stopping := false
	exhausted := false

	reconcile := func() {
		want := clients > 0 || s.AlwaysOn
		switch {
		case want && !running && !exhausted:
			stop = make(chan bool, 1)
			running, stopping = true, false
			go func(stop <-chan bool) {
				errCh := make(chan error, 1)
				s.source.Start(lines, stop, errCh)
				select {
				case err := <-errCh:
					sourceDone <- err
				default:
					sourceDone <- nil
				}
			}(stop)
		case !want && running && !stopping:
			s.log.Info("no clients connected, closing GNSS")
			stop <- true
			stopping = true
		}
	}
	defer func() {
		if running && !stopping {
			stop <- true
		}
	}()

	reconcile()
	for {
		select {
		case n := <-s.events:
			clients += n
			s.log.WithField("clients", clients).Debug("client count changed")
			reconcile()
		case line := <-lines:
			s.handleLine(line)
		case err := <-sourceDone:
			running = false
			switch {
			case errors.Is(err, io.EOF):
				s.log.Info("GNSS source exhausted")
				exhausted = true
			case err != nil:
				return fmt.Errorf("server.Serve(): %w", err)
			}
			reconcile()
		case <-s.quit:
			return nil
		}
	}
}

func (s *Server) handleLine(line []byte) {
	fix := s.decoder.DecodeBestEffort(string(line))
	if fix == nil {
		return
	}
	if err := s.publisher.Publish(*fix); err != nil {
		s.log.WithError(err).Warn("error publishing fix")
	}
}

// Close stops Serve and disconnects the listener.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.sock != nil {
			// Serve may already have closed it on the way out
			if cerr := s.sock.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}
	})
	return err
}

func (s *Server) connectionHandler() {
	for {
		conn, err := s.sock.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.WithError(err).Error("error accepting connection")
			}
			return
		}

		client := pool.NewClient(conn)
		s.connPool.Register <- client
		if !s.notify(1) {
			conn.Close()
			return
		}
		s.log.Info("new client connected")

		go s.clientConnection(client)
	}
}

// Routine run for each client connection
func (s *Server) clientConnection(c *pool.Client) {
	closed := make(chan struct{})
	go func() {
		// clients are not expected to send anything, a read returning
		// means the peer went away
		io.Copy(io.Discard, c.Conn)
		close(closed)
	}()

	defer func() {
		s.connPool.Unregister <- c
		c.Conn.Close()
		s.log.Info("client disconnected")
		s.notify(-1)
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if _, err := c.Conn.Write(msg); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) notify(n int) bool {
	select {
	case s.events <- n:
		return true
	case <-s.quit:
		return false
	}
}
