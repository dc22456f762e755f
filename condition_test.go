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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionRoundTrip(t *testing.T) {
	m := newTestReentrantMutex()
	c := m.NewCondition()

	ready := false
	done := make(chan struct{})

	go func() {
		m.Lock()
		for !ready {
			require.NoError(t, c.Await(context.Background()))
		}
		m.Unlock()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)

	m.Lock()
	ready = true
	require.NoError(t, c.Signal())
	m.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never woke up after Signal")
	}
	assert.Equal(t, int64(0), m.HoldCount())
}

func TestConditionRestoresHoldCountAcrossRecursion(t *testing.T) {
	m := newTestReentrantMutex()
	c := m.NewCondition()

	m.Lock()
	m.Lock() // reentrant bump: hold count should now read 2
	require.Equal(t, int64(2), m.HoldCount())

	woke := make(chan struct{})
	go func() {
		defer close(woke)
		time.Sleep(20 * time.Millisecond)
		m.Lock()
		require.NoError(t, c.Signal())
		m.Unlock()
	}()

	require.NoError(t, c.Await(context.Background()))
	assert.Equal(t, int64(2), m.HoldCount(), "Await must restore the pre-wait hold count exactly")
	m.Unlock()
	m.Unlock()
	<-woke
}

func TestConditionSignalAllWakesEveryWaiter(t *testing.T) {
	m := newTestReentrantMutex()
	c := m.NewCondition()

	const waiters = 6
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			m.Lock()
			require.NoError(t, c.Await(context.Background()))
			m.Unlock()
		}()
	}

	for {
		n, err := m.s.WaitQueueLength(c)
		require.NoError(t, err)
		if n == waiters {
			break
		}
		time.Sleep(time.Millisecond)
	}

	m.Lock()
	require.NoError(t, c.SignalAll())
	m.Unlock()

	allDone := make(chan struct{})
	go func() { wg.Wait(); close(allDone) }()
	select {
	case <-allDone:
	case <-time.After(2 * time.Second):
		t.Fatal("SignalAll failed to wake every waiter")
	}
}

func TestConditionAwaitCancellationRace(t *testing.T) {
	m := newTestReentrantMutex()
	c := m.NewCondition()

	ctx, cancel := context.WithCancel(context.Background())
	awaitErr := make(chan error, 1)

	go func() {
		m.Lock()
		awaitErr <- c.Await(ctx)
		m.Unlock()
	}()
	for {
		n, err := m.s.WaitQueueLength(c)
		require.NoError(t, err)
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Race a Signal against the context cancellation: whichever wins, the
	// waiter must return exactly once and the mutex must end up
	// consistently held/released.
	cancel()
	m.Lock()
	_ = c.Signal()
	m.Unlock()

	select {
	case err := <-awaitErr:
		if err != nil {
			assert.True(t, errors.Is(err, context.Canceled))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Await never returned despite a cancelled context")
	}
}

func TestAwaitNanosTimesOut(t *testing.T) {
	m := newTestReentrantMutex()
	c := m.NewCondition()

	m.Lock()
	defer m.Unlock()

	remaining, err := c.AwaitNanos(50 * time.Millisecond)
	require.NoError(t, err)
	assert.LessOrEqual(t, remaining, time.Duration(0))
	assert.Equal(t, int64(1), m.HoldCount(), "timed-out Await must still reacquire the lock")
}

func TestAwaitRejectsNonOwner(t *testing.T) {
	m := newTestReentrantMutex()
	c := m.NewCondition()

	err := c.Await(context.Background())
	assert.ErrorIs(t, err, ErrIllegalMonitorState)
}

func TestOwnsDistinguishesSynchronizers(t *testing.T) {
	a := newTestReentrantMutex()
	b := newTestReentrantMutex()
	c := a.NewCondition()

	assert.True(t, a.s.Owns(c))
	assert.False(t, b.s.Owns(c))

	_, err := b.s.WaitQueueLength(c)
	assert.ErrorIs(t, err, ErrIllegalArgument)
}
