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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	c := DefaultConfig()
	c.Port = 0
	assert.Error(t, c.Validate())

	c.Port = 70000
	assert.Error(t, c.Validate())
}

func TestValidateRejectsNonPositiveWorkers(t *testing.T) {
	c := DefaultConfig()
	c.Workers = 0
	assert.Error(t, c.Validate())
}

func TestValidateRejectsNonPowerOfTwoBufferRing(t *testing.T) {
	c := DefaultConfig()
	c.MaxBufferRingSize = 100
	assert.Error(t, c.Validate())

	c.MaxBufferRingSize = 128
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsBadBufferSize(t *testing.T) {
	c := DefaultConfig()
	c.MaxBufferSize = 0
	assert.Error(t, c.Validate())
}

func TestValidateRejectsBadListenBacklog(t *testing.T) {
	c := DefaultConfig()
	c.SocketListenQueueSize = -1
	assert.Error(t, c.Validate())
}
