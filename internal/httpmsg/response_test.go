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

package httpmsg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseAppendToRoundTrips(t *testing.T) {
	resp := NewResponse(200, "OK", []byte("hi"))
	resp.SetKeepAlive(true)

	out := string(resp.AppendTo(nil))
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Content-Length: 2\r\n")
	assert.Contains(t, out, "Connection: keep-alive\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nhi"))
}

func TestResponseCloseHeader(t *testing.T) {
	resp := NewResponse(404, "Not Found", nil)
	resp.SetKeepAlive(false)
	out := string(resp.AppendTo(nil))
	assert.Contains(t, out, "Connection: close\r\n")
	assert.Contains(t, out, "Content-Length: 0\r\n")
}

func TestHeaderGetCaseInsensitive(t *testing.T) {
	var h Header
	h.Add("Content-Type", "text/plain")
	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.Equal(t, "", h.Get("missing"))
}
