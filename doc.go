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

// Package qsync implements the queued-synchronizer primitive that sits
// underneath mutexes, read/write locks, semaphores, countdown latches and
// condition variables: a single atomic integer ("state"), a lock-free CLH
// wait queue, and a condition-queue facility that rebuilds acquire state
// across waits.
//
// A concrete synchronizer (a mutex, a latch, a semaphore...) is built by
// supplying a Predicates value to New. The core never interprets the state
// word itself; it only CASes it on behalf of the caller-supplied
// TryAcquire*/TryRelease* callbacks. Everything else -- enqueueing onto the
// wait queue, parking and unparking goroutines, splicing out cancelled
// waiters, propagating shared-mode wakeups, and migrating a condition
// waiter back onto the sync queue -- is the job of this package.
//
// Concrete collaborators (reentrant locks, fair locks, latches, barriers,
// blocking queues) are not part of this package. They are the package's
// callers: see the *_test.go files for worked examples (a plain mutex, a
// binary latch, a countdown latch and a reentrant-style mutex) built
// entirely on the exported API.
//
// Usage sketch for a simple spinlock-free mutex:
//
//	var s *qsync.Synchronizer
//	s = qsync.New(qsync.Predicates{
//	    TryAcquireExclusive: func(queued bool, arg int64) bool {
//	        return s.CompareAndSetState(0, 1)
//	    },
//	    TryReleaseExclusive: func(arg int64) bool {
//	        s.SetState(0)
//	        return true
//	    },
//	})
//	s.AcquireExclusive(0)
//	// ... critical section ...
//	s.ReleaseExclusive(0)
package qsync
