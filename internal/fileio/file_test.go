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

package fileio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringloop/ringhttpd/ringerr"
)

func TestOpenExistingFile(t *testing.T) {
	f, err := Open("file_test.go")
	require.NoError(t, err)
	defer f.Close()

	assert.GreaterOrEqual(t, f.Fd(), 0)
}

func TestOpenMissingFileIsSetupFatal(t *testing.T) {
	_, err := Open("definitely-does-not-exist.xyz")
	assert.Error(t, err)
	assert.True(t, ringerr.IsKind(err, ringerr.KindSetupFatal))
}

func TestFromFDWrapsExistingDescriptor(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "fileio")
	require.NoError(t, err)
	defer tmp.Close()

	f := FromFD(int(tmp.Fd()))
	assert.Equal(t, int(tmp.Fd()), f.Fd())
}

func TestCloseIsIdempotentAndNilSafe(t *testing.T) {
	var nilFile *File
	assert.NoError(t, nilFile.Close())
	assert.Equal(t, -1, nilFile.Fd())

	f := &File{fd: -1}
	assert.NoError(t, f.Close())
}

func TestCloseMarksFileEmpty(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "fileio")
	require.NoError(t, err)

	f := FromFD(int(tmp.Fd()))
	require.NoError(t, f.Close())
	assert.Equal(t, -1, f.Fd())
	assert.NoError(t, f.Close()) // second close is a no-op
}
