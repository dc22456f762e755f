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

// unparkSuccessor implements spec §4.6: CAS head's waitStatus from
// whatever promise it holds back to the default, then unpark head's
// successor (n.next, or a tail-backward scan if that link is stale).
// Releasing is fire-and-forget: it never waits for the woken goroutine,
// and it is harmless to call with no waiters present.
func (s *Synchronizer) unparkSuccessor(h *node) {
	if status := h.loadStatus(); status != statusDefault {
		h.casStatus(status, statusDefault)
	}
	if succ := s.q.successor(h); succ != nil {
		if p := succ.parker(); p != nil {
			p.unparkOne()
		}
	}
}

// doReleaseShared wakes the head's successor whenever a head exists,
// whatever the head's waitStatus. It is shared by ReleaseExclusive,
// ReleaseShared and by the cascade
// propagation in AcquireShared/AcquireSharedContext/AcquireSharedTimed
// (spec §4.6: "callers of the shared acquire engine also do this unpark
// whenever they see a positive cascade value").
func (s *Synchronizer) doReleaseShared() {
	if h := s.q.head.Load(); h != nil {
		s.unparkSuccessor(h)
	}
}

// ReleaseExclusive releases an exclusive hold of arg. It reports whether
// the underlying TryReleaseExclusive predicate considered the
// synchronizer fully released.
func (s *Synchronizer) ReleaseExclusive(arg int64) bool {
	if s.pred.tryReleaseExclusive(arg) {
		s.doReleaseShared() // identical unpark-successor logic for either mode
		return true
	}
	return false
}

// ReleaseShared releases a shared hold of arg. It reports whether the
// underlying TryReleaseShared predicate considered the synchronizer fully
// released.
func (s *Synchronizer) ReleaseShared(arg int64) bool {
	if s.pred.tryReleaseShared(arg) {
		s.doReleaseShared()
		return true
	}
	return false
}
