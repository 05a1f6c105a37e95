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

package gateway

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOpIsValidAndUserDataPointsToItself(t *testing.T) {
	op := NewOp()
	defer op.Release()

	assert.True(t, op.valid())
	assert.Equal(t, opFromUserData(op.sqe.UserData), op)
}

func TestReleaseInvalidatesOp(t *testing.T) {
	op := NewOp()
	op.Release()
	assert.False(t, op.valid())
}

func TestSendResultDeliversToWait(t *testing.T) {
	op := NewOp()
	defer op.Release()

	op.sendResult(Completion{Res: 7, Flags: 3})
	got := op.Wait()
	assert.EqualValues(t, 7, got.Res)
	assert.EqualValues(t, 3, got.Flags)
}

func TestSendResultReplacesUnconsumedMultishotCompletion(t *testing.T) {
	op := NewOp()
	defer op.Release()

	op.sendResult(Completion{Res: 1})
	op.sendResult(Completion{Res: 2}) // first value never Wait()'d, must not block
	got := op.Wait()
	assert.EqualValues(t, 2, got.Res, "newest completion wins over a stale unconsumed one")
}

func TestReleasedOpDrainsStaleCompletionOnReuse(t *testing.T) {
	op := NewOp()
	op.sendResult(Completion{Res: 99}) // never consumed before release
	op.Release()

	reused := NewOp()
	defer reused.Release()
	select {
	case c := <-reused.notify:
		t.Fatalf("expected no leftover completion, got %+v", c)
	default:
	}
}

func TestErrnoFromRes(t *testing.T) {
	assert.Equal(t, syscall.EAGAIN, ErrnoFromRes(-int32(syscall.EAGAIN)))
	assert.Equal(t, syscall.ECONNRESET, ErrnoFromRes(-int32(syscall.ECONNRESET)))
}
