package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestNotifier_BroadcastWakesWaiters(t *testing.T) {
	n := NewNotifier()

	before := n.Wait()
	assert.False(t, isClosed(before))

	n.Broadcast()

	assert.True(t, isClosed(before))
	assert.False(t, isClosed(n.Wait()), "a fresh wait must block until the next broadcast")
}

func TestNotifier_AllWaitersWake(t *testing.T) {
	n := NewNotifier()

	const waiters = 20
	var ready, woke sync.WaitGroup
	ready.Add(waiters)
	woke.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer woke.Done()
			ch := n.Wait()
			ready.Done()
			<-ch
		}()
	}
	ready.Wait()

	n.Broadcast()

	done := make(chan struct{})
	go func() {
		woke.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not every waiter woke up")
	}
}
