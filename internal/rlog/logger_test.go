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

package rlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: Warn, Output: &buf})

	l.Debugf("hidden")
	l.Infof("also hidden")
	assert.Empty(t, buf.String())

	l.Warnf("visible %d", 1)
	assert.Contains(t, buf.String(), "[WARN] visible 1")
}

func TestErrorAlwaysPasses(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: Error, Output: &buf})
	l.Errorf("boom")
	assert.Contains(t, buf.String(), "[ERROR] boom")
}

func TestWithFormatsKeyValuePairs(t *testing.T) {
	got := With("worker", 3, "fd", 42)
	assert.Equal(t, "worker=3 fd=42", got)
}

func TestWithOddArgsDropsTrailingKey(t *testing.T) {
	got := With("worker", 3, "dangling")
	assert.Equal(t, "worker=3", got)
}

func TestSetDefaultReplacesPackageLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := New(Config{Level: Debug, Output: &buf})

	orig := Default()
	SetDefault(custom)
	defer SetDefault(orig)

	Default().Infof("through default")
	assert.True(t, strings.Contains(buf.String(), "through default"))
}
