// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package transport

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnPauseGate(t *testing.T) {
	errRejected := errors.New("rejected")

	c := newConn()
	assert.NoError(t, c.Pause())
	assert.NoError(t, c.Pause())

	done := make(chan error, 1)
	go func() {
		_, err := c.Read(make([]byte, 1))
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("read returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	c.Destroy(errRejected)
	select {
	case err := <-done:
		assert.Same(t, errRejected, err)
	case <-time.After(time.Second):
		t.Fatal("read did not unblock on destroy")
	}
	assert.Same(t, errRejected, c.Err())

	assert.NoError(t, c.Resume())
	_, err := c.Read(make([]byte, 1))
	assert.Same(t, errRejected, err)
}

func TestConnEvents(t *testing.T) {
	c := newConn()
	released := 0
	c.onClose = func() { released++ }

	c.deliverStaple([]byte{1})
	c.deliverStaple([]byte{2})
	assert.Equal(t, []byte{1}, <-c.Staple())

	c.completeHandshake()
	c.completeHandshake()
	<-c.HandshakeComplete()

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	<-c.Closed()
	assert.Equal(t, 1, released)

	_, err := c.Read(make([]byte, 1))
	assert.ErrorIs(t, err, net.ErrClosed)
}
