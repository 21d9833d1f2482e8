// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package publish

import (
	"encoding/json"
	"fmt"

	"gitlab.com/postmarketOS/gnss_fix/internal/nmea"
	"gitlab.com/postmarketOS/gnss_fix/internal/pool"
)

// Publisher delivers decoded fixes somewhere.
type Publisher interface {
	Publish(fix nmea.Fix) error
}

// Pool broadcasts fixes as JSON lines to the clients of a connection pool.
type Pool struct {
	pool *pool.Pool
}

func NewPool(p *pool.Pool) *Pool {
	return &Pool{pool: p}
}

func (p *Pool) Publish(fix nmea.Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("publish.Pool.Publish(): %w", err)
	}
	p.pool.Broadcast <- payload
	return nil
}

// Multi publishes to every publisher in order and returns the first error.
// Later publishers still run after an earlier one fails.
type Multi []Publisher

func (m Multi) Publish(fix nmea.Fix) (err error) {
	for _, p := range m {
		if perr := p.Publish(fix); perr != nil && err == nil {
			err = perr
		}
	}
	return
}
