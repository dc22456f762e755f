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

import "sync/atomic"

// Synchronizer is the queued-synchronizer core described by spec §3/§6. It
// owns one atomic integer ("state"), opaque to the core, and the lock-free
// sync queue of waiters contending to change it. A concrete collaborator
// (a mutex, a latch, a semaphore) is nothing more than a Synchronizer plus
// a Predicates value describing how to interpret state.
//
// The zero value is not usable; construct with New.
type Synchronizer struct {
	state atomic.Int64
	q     syncQueue
	pred  Predicates
}

// New returns a ready-to-use Synchronizer driven by pred. There is no
// explicit teardown: the Synchronizer is valid for the lifetime of
// whatever embeds or references it (spec §6).
func New(pred Predicates) *Synchronizer {
	return &Synchronizer{pred: pred}
}

// State returns the current value of the synchronization state.
// Acquire-ordered with respect to prior writes in the same goroutine.
func (s *Synchronizer) State() int64 {
	return s.state.Load()
}

// SetState unconditionally replaces the synchronization state.
// Release-ordered with respect to subsequent reads.
func (s *Synchronizer) SetState(v int64) {
	s.state.Store(v)
}

// CompareAndSetState atomically sets state to update if it currently
// equals expect, and reports whether it did so. This is the only mutation
// primitive a Predicates callback needs; it is sequentially consistent.
func (s *Synchronizer) CompareAndSetState(expect, update int64) bool {
	return s.state.CompareAndSwap(expect, update)
}
