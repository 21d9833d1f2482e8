// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package pool

import (
	"net"
)

// SendBuffer is how many messages may queue for a client before new ones
// are dropped for it.
const SendBuffer = 16

type Client struct {
	Send chan []byte
	Conn net.Conn
}

func NewClient(conn net.Conn) *Client {
	return &Client{
		Send: make(chan []byte, SendBuffer),
		Conn: conn,
	}
}

type Pool struct {
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan []byte

	clients map[*Client]bool
	count   chan chan int
	quit    chan struct{}
}

func New() *Pool {
	return &Pool{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan []byte),
		clients:    make(map[*Client]bool),
		count:      make(chan chan int),
		quit:       make(chan struct{}),
	}
}

// Start runs the pool until Stop is called. Each broadcast message is
// newline terminated and queued for every registered client; a client whose
// queue is full misses the message.
func (p *Pool) Start() {
	for {
		select {
		case c := <-p.Register:
			p.clients[c] = true
		case c := <-p.Unregister:
			if p.clients[c] {
				delete(p.clients, c)
				close(c.Send)
			}
		case msg := <-p.Broadcast:
			line := append(append(make([]byte, 0, len(msg)+1), msg...), '\n')
			for c := range p.clients {
				select {
				case c.Send <- line:
				default:
				}
			}
		case reply := <-p.count:
			reply <- len(p.clients)
		case <-p.quit:
			for c := range p.clients {
				delete(p.clients, c)
				close(c.Send)
			}
			return
		}
	}
}

// Len returns the number of registered clients. It must only be called while
// the pool is started.
func (p *Pool) Len() int {
	reply := make(chan int)
	p.count <- reply
	return <-reply
}

// Stop unregisters every client and ends Start.
func (p *Pool) Stop() {
	close(p.quit)
}
