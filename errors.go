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

import "errors"

// Sentinel errors surfaced by the public API. Check with errors.Is.
var (
	// ErrIllegalMonitorState is returned when a condition method is called
	// by a goroutine that CheckConditionAccess rejects (typically: one
	// that does not hold the synchronizer).
	ErrIllegalMonitorState = errors.New("qsync: illegal monitor state")

	// ErrIllegalArgument is returned when a condition created by one
	// Synchronizer is passed to the instrumentation methods of another.
	ErrIllegalArgument = errors.New("qsync: condition not owned by this synchronizer")

	// ErrNotImplemented is the value the core panics with when a
	// Predicates acquire/release callback left nil (a mode a concrete
	// synchronizer never exercises) is invoked anyway.
	ErrNotImplemented = errors.New("qsync: operation not implemented by this synchronizer")
)
