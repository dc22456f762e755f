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

// Mode distinguishes an exclusive acquirer from a shared one.
type Mode int

const (
	// ModeExclusive is a single-holder acquire (a mutex-like hold).
	ModeExclusive Mode = iota
	// ModeShared is a multi-holder acquire (a latch/semaphore-like hold).
	ModeShared
)

func (m Mode) String() string {
	if m == ModeShared {
		return "shared"
	}
	return "exclusive"
}

// waitStatus values for node.status, per spec §3.
type waitStatus int32

const (
	statusDefault   waitStatus = 0  // initial value
	statusSignal    waitStatus = -1 // successor has been/must be unparked on release
	statusCondition waitStatus = -2 // node sits on a condition queue, not the sync queue
	statusCancelled waitStatus = 1  // terminal; never re-activated
)

// node is one queued acquire (or condition-wait) attempt. prev/next link it
// into the lock-free sync queue; nextWaiter singly-links it into a
// Condition's wait list. Only one of the two link sets is meaningful at a
// time (N1 in spec §3).
type node struct {
	prev atomic.Pointer[node]
	next atomic.Pointer[node]

	// nextWaiter links nodes on a Condition's singly-linked list. It is
	// mutated only while the owning Synchronizer is held exclusively, so
	// it needs no atomic access of its own.
	nextWaiter *node

	status atomic.Int32 // waitStatus, CAS'd only

	mode Mode

	// park is cleared once the node becomes head, or once it is
	// cancelled, so the parked goroutine (if any) can be garbage
	// collected independently of the queue node itself.
	park atomic.Pointer[parker]
}

func newNode(mode Mode) *node {
	n := &node{mode: mode}
	n.park.Store(newParker())
	return n
}

func (n *node) loadStatus() waitStatus {
	return waitStatus(n.status.Load())
}

func (n *node) casStatus(old, new waitStatus) bool {
	return n.status.CompareAndSwap(int32(old), int32(new))
}

func (n *node) storeStatus(s waitStatus) {
	n.status.Store(int32(s))
}

func (n *node) parker() *parker {
	return n.park.Load()
}

// scrub clears fields with no further use once the node is installed as
// head (its thread handle in particular -- see spec §3 Lifecycle).
func (n *node) scrub() {
	n.park.Store(nil)
}
