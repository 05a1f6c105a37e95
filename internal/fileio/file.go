// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fileio owns a file descriptor like a move-only handle: one owner,
// closed on Close, empty once moved-from. Splice is grounded directly on
// original_source/src/file_descriptor.cpp's splice(): an anonymous pipe
// plus an alternating splice-in/splice-out loop.
package fileio

import (
	"golang.org/x/sys/unix"

	"github.com/ringloop/ringhttpd/internal/gateway"
	"github.com/ringloop/ringhttpd/ringerr"
)

// File is an owning wrapper around a raw descriptor. A nil *File, or one
// whose descriptor is -1 (as Close leaves it), is empty: Fd() returns -1 and
// Close is a no-op. The zero File value holds descriptor 0 and is not empty.
type File struct {
	fd int
}

// Open opens path read-only. Failure is setup-fatal.
func Open(path string) (*File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, ringerr.Wrap("fileio.Open", ringerr.KindSetupFatal, err)
	}
	return &File{fd: fd}, nil
}

// FromFD wraps an already-open descriptor (e.g. an accepted connection).
func FromFD(fd int) *File { return &File{fd: fd} }

// Fd returns the raw descriptor, or -1 if this File is empty.
func (f *File) Fd() int {
	if f == nil {
		return -1
	}
	return f.fd
}

// Close closes the descriptor. Safe to call on an already-closed or empty File.
func (f *File) Close() error {
	if f == nil || f.fd < 0 {
		return nil
	}
	err := unix.Close(f.fd)
	f.fd = -1
	return err
}

// newPipe creates an anonymous pipe, returning (read-end, write-end).
func newPipe() (*File, *File, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], 0); err != nil {
		return nil, nil, ringerr.Wrap("fileio.pipe", ringerr.KindSetupFatal, err)
	}
	return &File{fd: fds[0]}, &File{fd: fds[1]}, nil
}

// Splice moves length bytes from in to out through the gateway g, via an
// intermediate pipe, matching original_source's splice() exactly: submit
// splice-in to the pipe's write end, then splice-out from the pipe's read
// end, accumulating bytes until length is reached. A negative intermediate
// result short-circuits with -1.
func Splice(g *gateway.Gateway, in, out *File, length int) (int, error) {
	readPipe, writePipe, err := newPipe()
	if err != nil {
		return 0, err
	}
	defer readPipe.Close()
	defer writePipe.Close()

	bytesSent := 0
	for bytesSent < length {
		op := gateway.NewOp()
		g.SubmitSplice(op, in.Fd(), writePipe.Fd(), length)
		c := op.Wait()
		op.Release()
		if c.Res < 0 {
			return -1, ringerr.WrapErrno("fileio.Splice(in->pipe)", ringerr.KindIOTransient, gateway.ErrnoFromRes(c.Res))
		}

		op2 := gateway.NewOp()
		g.SubmitSplice(op2, readPipe.Fd(), out.Fd(), length)
		c2 := op2.Wait()
		op2.Release()
		if c2.Res < 0 {
			return -1, ringerr.WrapErrno("fileio.Splice(pipe->out)", ringerr.KindIOTransient, gateway.ErrnoFromRes(c2.Res))
		}
		bytesSent += int(c2.Res)
	}
	return bytesSent, nil
}
