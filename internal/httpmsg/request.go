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

// Package httpmsg implements the wire-level HTTP/1.1 request parser and
// response serializer. Grounded on original_source/include/http_parser.hpp
// for the incremental accumulate-until-header-terminator design, and on
// bufiox's Reader/Writer and cache/mempool's size-bucketed allocation for
// the buffer strategy.
package httpmsg

// Header is an ordered list of name/value pairs, not a map, because HTTP
// allows repeated header names and original_source preserves request order.
type Header struct {
	Names  []string
	Values []string
}

// Get returns the first value for name (case-insensitive), or "" if absent.
func (h Header) Get(name string) string {
	for i, n := range h.Names {
		if equalFold(n, name) {
			return h.Values[i]
		}
	}
	return ""
}

// Add appends a header, preserving any existing entry with the same name.
func (h *Header) Add(name, value string) {
	h.Names = append(h.Names, name)
	h.Values = append(h.Values, value)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Request is a parsed HTTP/1.1 request. Method, Path, Version, and every
// header name/value are zero-copy views into the parser's accumulation
// buffer (unsafex.BinaryToString) and are only valid until the next Feed
// call on the same Parser.
type Request struct {
	Method  string
	Path    string
	Version string
	Header  Header
	Body    []byte
}

// KeepAlive reports whether the connection should remain open after this
// request, per original_source's http_message.hpp: HTTP/1.1 defaults to
// keep-alive unless the client sends "Connection: close"; HTTP/1.0 defaults
// to close unless the client sends "Connection: keep-alive".
func (r *Request) KeepAlive() bool {
	conn := r.Header.Get("Connection")
	switch {
	case equalFold(conn, "close"):
		return false
	case equalFold(conn, "keep-alive"):
		return true
	default:
		return r.Version == "HTTP/1.1"
	}
}
