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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCompleteRequestNoBody(t *testing.T) {
	p := NewParser()
	req, ok := p.Feed([]byte("GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	require.True(t, ok)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/hello", req.Path)
	assert.Equal(t, "HTTP/1.1", req.Version)
	assert.Equal(t, "example.com", req.Header.Get("Host"))
	assert.Empty(t, req.Body)
}

func TestFeedIncompleteHeadersNeedsMoreData(t *testing.T) {
	p := NewParser()
	_, ok := p.Feed([]byte("GET / HTTP/1.1\r\nHost: exa"))
	assert.False(t, ok)

	req, ok := p.Feed([]byte("mple.com\r\n\r\n"))
	require.True(t, ok)
	assert.Equal(t, "example.com", req.Header.Get("Host"))
}

func TestFeedWaitsForContentLengthBody(t *testing.T) {
	p := NewParser()
	_, ok := p.Feed([]byte("POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\nhel"))
	assert.False(t, ok)

	req, ok := p.Feed([]byte("lo"))
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), req.Body)
}

func TestFeedMalformedRequestLineReturnsError(t *testing.T) {
	p := NewParser()
	req, err, ok := p.FeedErr([]byte("GET\r\n\r\n"))
	assert.False(t, ok)
	assert.Nil(t, req)
	assert.Error(t, err)
}

func TestKeepAliveDefaults(t *testing.T) {
	reqHTTP11 := &Request{Version: "HTTP/1.1"}
	assert.True(t, reqHTTP11.KeepAlive())

	reqHTTP10 := &Request{Version: "HTTP/1.0"}
	assert.False(t, reqHTTP10.KeepAlive())
}

func TestKeepAliveHonorsConnectionHeader(t *testing.T) {
	req := &Request{Version: "HTTP/1.1"}
	req.Header.Add("Connection", "close")
	assert.False(t, req.KeepAlive())

	req2 := &Request{Version: "HTTP/1.0"}
	req2.Header.Add("Connection", "keep-alive")
	assert.True(t, req2.KeepAlive())
}

func TestPipelinedRequestsLeaveRemainderForNextFeed(t *testing.T) {
	p := NewParser()
	first := "GET /a HTTP/1.1\r\n\r\n"
	second := "GET /b HTTP/1.1\r\n\r\n"
	req, ok := p.Feed([]byte(first + second))
	require.True(t, ok)
	assert.Equal(t, "/a", req.Path)

	req2, ok := p.Feed(nil)
	require.True(t, ok)
	assert.Equal(t, "/b", req2.Path)
}
