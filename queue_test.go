// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package qsync

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueEnqueueOrdersByArrival(t *testing.T) {
	var q syncQueue
	n1 := newNode(ModeExclusive)
	n2 := newNode(ModeExclusive)
	n3 := newNode(ModeExclusive)

	q.enqueue(n1)
	q.enqueue(n2)
	q.enqueue(n3)

	assert.Same(t, n2, n1.next.Load())
	assert.Same(t, n3, n2.next.Load())
	assert.Same(t, n1, n2.prev.Load())
	assert.Same(t, n2, n3.prev.Load())
	assert.Same(t, n3, q.tail.Load())
}

func TestQueueCancelSplicesOutTailNode(t *testing.T) {
	var q syncQueue
	n1 := newNode(ModeExclusive)
	n2 := newNode(ModeExclusive)
	q.enqueue(n1)
	q.enqueue(n2)

	q.cancel(n2)
	assert.Same(t, n1, q.tail.Load())
	assert.Equal(t, statusCancelled, n2.loadStatus())
}

func TestQueueCancelWakesSuccessor(t *testing.T) {
	var q syncQueue
	n1 := newNode(ModeExclusive)
	n2 := newNode(ModeExclusive)
	n3 := newNode(ModeExclusive)
	q.enqueue(n1)
	q.enqueue(n2)
	q.enqueue(n3)
	n1.storeStatus(statusSignal) // as if armed by n2's shouldParkAfterFailedAcquire

	q.cancel(n2)

	select {
	case <-n3.parker().unpark:
	default:
		t.Fatal("n3 must be woken when n2 is cancelled, even though n1 is live and already armed")
	}

	// Now cancel n1, whose predecessor is the sentinel head: its live
	// successor (n3, relinked past the cancelled n2 above) must be woken
	// again.
	q.cancel(n1)
	select {
	case <-n3.parker().unpark:
	default:
		t.Fatal("cancelling the last live predecessor must wake the next live successor")
	}
}

func TestQueueHeadNeverCancelledUnderChaos(t *testing.T) {
	m := newTestMutex()
	const goroutines = 16
	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		i := i
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(i) + 1))
			for j := 0; j < iterations; j++ {
				if r.Intn(4) == 0 {
					ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*time.Duration(r.Intn(3)))
					err := m.s.AcquireExclusiveContext(ctx, 0)
					cancel()
					if err == nil {
						m.Unlock()
					}
				} else {
					m.Lock()
					m.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if h := m.s.q.head.Load(); h != nil {
		assert.NotEqual(t, statusCancelled, h.loadStatus(), "sentinel head must never be left CANCELLED")
	}
}

func TestIsOnSyncQueue(t *testing.T) {
	var q syncQueue
	n := newNode(ModeExclusive)
	n.storeStatus(statusCondition)
	assert.False(t, q.isOnSyncQueue(n))

	n.casStatus(statusCondition, statusDefault)
	q.enqueue(n)
	assert.True(t, q.isOnSyncQueue(n))
}
