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
	"strconv"

	"github.com/ringloop/ringhttpd/cache/mempool"
)

// Response is a serializable HTTP/1.1 status line plus headers plus body.
type Response struct {
	Version    string
	Status     int
	StatusText string
	Header     Header
	Body       []byte
}

// NewResponse builds a response with the given status and a Content-Length header set
// from len(body); callers add further headers before calling AppendTo.
func NewResponse(status int, statusText string, body []byte) *Response {
	r := &Response{Version: "HTTP/1.1", Status: status, StatusText: statusText, Body: body}
	r.Header.Add("Content-Length", strconv.Itoa(len(body)))
	return r
}

// SetKeepAlive sets the Connection header to match keepAlive, mirroring
// original_source's http_message.hpp response-side behavior.
func (r *Response) SetKeepAlive(keepAlive bool) {
	if keepAlive {
		r.Header.Add("Connection", "keep-alive")
	} else {
		r.Header.Add("Connection", "close")
	}
}

// AppendTo serializes the response into buf, growing it via mempool.Append
// (cache/mempool's bucketed allocation) instead of repeated string
// concatenation.
func (r *Response) AppendTo(buf []byte) []byte {
	buf = mempool.AppendStr(buf, r.Version)
	buf = mempool.Append(buf, ' ')
	buf = mempool.AppendStr(buf, strconv.Itoa(r.Status))
	buf = mempool.Append(buf, ' ')
	buf = mempool.AppendStr(buf, r.StatusText)
	buf = mempool.AppendStr(buf, "\r\n")
	for i, name := range r.Header.Names {
		buf = mempool.AppendStr(buf, name)
		buf = mempool.AppendStr(buf, ": ")
		buf = mempool.AppendStr(buf, r.Header.Values[i])
		buf = mempool.AppendStr(buf, "\r\n")
	}
	buf = mempool.AppendStr(buf, "\r\n")
	if len(r.Body) > 0 {
		buf = mempool.Append(buf, r.Body...)
	}
	return buf
}
