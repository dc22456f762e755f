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

// Predicates is the capability record a concrete synchronizer supplies to
// New. It replaces the overridable-method/subclassing mechanism of the
// source design (spec §9 "Subclassing as the plug-in mechanism") with a
// struct of closures: a collaborator implements only the modes it
// actually exercises.
//
// Every callback reads/CASes the Synchronizer's state via State,
// SetState, and CompareAndSetState -- the core never interprets the state
// word itself (spec I4). Acquire predicates MUST be side-effect-free on
// failure: a failed TryAcquire* may be retried or abandoned by the core
// without ever taking effect.
type Predicates struct {
	// TryAcquireExclusive attempts to transition state for an exclusive
	// acquire, given arg. queued is true when the caller already sits at
	// the head of the sync queue (spec §4.5's fairness hook); false on
	// the barging fast path.
	TryAcquireExclusive func(queued bool, arg int64) bool

	// TryReleaseExclusive adjusts state for a release of arg, and
	// reports whether the synchronizer is now fully released (so that a
	// successor may attempt to acquire).
	TryReleaseExclusive func(arg int64) bool

	// TryAcquireShared attempts a shared acquire of arg. A negative
	// result means failure; zero means "acquired, no cascade"; a
	// positive result means "acquired, and the next shared waiter
	// should also be allowed to try" (spec §4.3, §4.5 cascade).
	TryAcquireShared func(queued bool, arg int64) int

	// TryReleaseShared adjusts state for a shared release of arg, and
	// reports whether the synchronizer is now fully released.
	TryReleaseShared func(arg int64) bool

	// CheckConditionAccess returns a non-nil error (wrapping
	// ErrIllegalMonitorState) if the calling goroutine may not use a
	// condition method on this synchronizer right now -- typically
	// "caller does not hold the lock". isWait distinguishes Await-family
	// calls from Signal/SignalAll.
	CheckConditionAccess func(isWait bool) error
}

func (p Predicates) tryAcquireExclusive(queued bool, arg int64) bool {
	if p.TryAcquireExclusive == nil {
		panic(ErrNotImplemented)
	}
	return p.TryAcquireExclusive(queued, arg)
}

func (p Predicates) tryReleaseExclusive(arg int64) bool {
	if p.TryReleaseExclusive == nil {
		panic(ErrNotImplemented)
	}
	return p.TryReleaseExclusive(arg)
}

func (p Predicates) tryAcquireShared(queued bool, arg int64) int {
	if p.TryAcquireShared == nil {
		panic(ErrNotImplemented)
	}
	return p.TryAcquireShared(queued, arg)
}

func (p Predicates) tryReleaseShared(arg int64) bool {
	if p.TryReleaseShared == nil {
		panic(ErrNotImplemented)
	}
	return p.TryReleaseShared(arg)
}

func (p Predicates) checkConditionAccess(isWait bool) error {
	if p.CheckConditionAccess == nil {
		return nil
	}
	return p.CheckConditionAccess(isWait)
}
