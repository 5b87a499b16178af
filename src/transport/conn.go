// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package transport

import (
	"crypto/tls"
	"net"
	"sync"
)

// Conn is a client TLS connection observed by the validation kit.
//
// It implements trust.Socket: the handshake and the OCSP staple are exposed
// as events, and reads can be held back while validation is in flight.
type Conn struct {
	*tls.Conn

	handshake chan struct{}
	staple    chan []byte
	closed    chan struct{}

	handshakeOnce sync.Once
	closeOnce     sync.Once

	mu      sync.Mutex
	err     error
	paused  bool
	resumed chan struct{}

	onClose func()
}

func newConn() *Conn {
	return &Conn{
		handshake: make(chan struct{}),
		staple:    make(chan []byte, 1),
		closed:    make(chan struct{}),
	}
}

// HandshakeComplete implements trust.Socket.
func (c *Conn) HandshakeComplete() <-chan struct{} { return c.handshake }

// Staple implements trust.Socket.
func (c *Conn) Staple() <-chan []byte { return c.staple }

// Closed implements trust.Socket.
func (c *Conn) Closed() <-chan struct{} { return c.closed }

// Err implements trust.Socket.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pause implements trust.Socket. Reads block until Resume.
func (c *Conn) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		c.paused = true
		c.resumed = make(chan struct{})
	}
	return nil
}

// Resume implements trust.Socket.
func (c *Conn) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.paused = false
		close(c.resumed)
	}
	return nil
}

// Destroy implements trust.Socket. The connection is closed and err becomes
// the error returned by pending and future reads.
func (c *Conn) Destroy(err error) {
	c.shutdown(err)
}

// Read waits while the connection is paused.
func (c *Conn) Read(b []byte) (int, error) {
	for {
		c.mu.Lock()
		paused, resumed := c.paused, c.resumed
		c.mu.Unlock()
		if !paused {
			break
		}
		select {
		case <-resumed:
		case <-c.closed:
			return 0, c.closedErr()
		}
	}

	select {
	case <-c.closed:
		return 0, c.closedErr()
	default:
	}
	return c.Conn.Read(b)
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.shutdown(nil)
}

func (c *Conn) shutdown(cause error) error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = cause
		c.mu.Unlock()
		close(c.closed)

		if c.Conn != nil {
			err = c.Conn.Close()
		}
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}

func (c *Conn) closedErr() error {
	if err := c.Err(); err != nil {
		return err
	}
	return net.ErrClosed
}

func (c *Conn) deliverStaple(raw []byte) {
	select {
	case c.staple <- raw:
	default:
	}
}

func (c *Conn) completeHandshake() {
	c.handshakeOnce.Do(func() { close(c.handshake) })
}
