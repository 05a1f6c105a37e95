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

package sock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewServer's bind/listen path is plain syscalls; only Accept/CancelAccept
// touch the gateway, so a nil *gateway.Gateway is fine here as long as
// those paths are never exercised.
func TestNewServerBindsAndListensOnEphemeralPort(t *testing.T) {
	srv, err := NewServer(nil, 0, 16)
	require.NoError(t, err)
	defer srv.Close()

	assert.GreaterOrEqual(t, srv.Fd(), 0)
}

func TestCloseWithoutAcceptIsSafe(t *testing.T) {
	srv, err := NewServer(nil, 0, 16)
	require.NoError(t, err)
	assert.NoError(t, srv.Close())
}

func TestCancelAcceptNoopBeforeFirstAccept(t *testing.T) {
	srv, err := NewServer(nil, 0, 16)
	require.NoError(t, err)
	defer srv.Close()

	// acceptOp is nil until Accept() is first called; CancelAccept must not
	// panic on a nil gateway in that state.
	assert.NotPanics(t, func() { srv.CancelAccept() })
}
