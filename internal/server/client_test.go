package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/tarneeb41/internal/protocol"
)

func TestSendMessageAfterCloseIsNoOp(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, nil)
	c.Close()

	// Must neither panic nor write to the closed channel.
	c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))

	// Close is idempotent.
	c.Close()
}

func TestSendMessageConcurrentWithClose(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, nil)
	msg := protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SendMessage(msg)
		}()
	}
	c.Close()
	wg.Wait()
}

func TestSendMessageClosesOnFullBuffer(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, nil)
	msg := protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg)

	// Nothing drains the send channel, so one past the buffer
	// capacity must tear the client down instead of blocking.
	for i := 0; i < cap(c.send)+1; i++ {
		c.SendMessage(msg)
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	assert.True(t, closed)
}
