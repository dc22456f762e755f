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
	"time"
)

// parker is the parking primitive described in spec §4.1: a one-token,
// per-waiter wakeup that does not accumulate beyond a single outstanding
// unpark. It is the Go analogue of LockSupport.park/unpark, built the way
// the retrieved corpus builds a binary semaphore -- a capacity-1 channel --
// rather than reaching for runtime internals unavailable to ordinary Go
// code.
type parker struct {
	unpark chan struct{}
}

func newParker() *parker {
	return &parker{unpark: make(chan struct{}, 1)}
}

// park blocks until a matching unpark is delivered. A prior unpark that
// arrived before park was called is consumed immediately.
func (p *parker) park() {
	<-p.unpark
}

// parkContext blocks until unpark, or until ctx is done, whichever comes
// first. It reports ctx.Err() when ctx ends the wait.
func (p *parker) parkContext(ctx context.Context) error {
	select {
	case <-p.unpark:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parkNanos blocks until unpark or until d elapses, whichever comes first.
// It reports whether the deadline elapsed without an unpark.
func (p *parker) parkNanos(d time.Duration) (timedOut bool) {
	if d <= 0 {
		select {
		case <-p.unpark:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.unpark:
		return false
	case <-t.C:
		return true
	}
}

// unparkOne delivers a single wakeup token to the parked waiter. Issuing
// unpark before the matching park makes the next park return immediately.
// Multiple unparks without an intervening park collapse to one token.
func (p *parker) unparkOne() {
	select {
	case p.unpark <- struct{}{}:
	default:
	}
}
