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
	"bytes"
	"fmt"
	"strconv"

	"github.com/ringloop/ringhttpd/bufiox"
	"github.com/ringloop/ringhttpd/cache/mempool"
	"github.com/ringloop/ringhttpd/ringerr"
	"github.com/ringloop/ringhttpd/unsafex"
)

var (
	crlf       = []byte("\r\n")
	headerStop = []byte("\r\n\r\n")
)

// Parser accumulates chunks fed from a connection's provided-buffer recv
// until a full request (headers plus any body announced by Content-Length)
// is available. One Parser per connection, matching original_source's
// http_parser's per-connection accumulation buffer.
//
// A Request returned by Feed holds zero-copy string views into the Parser's
// accumulation buffer; the caller must finish using it before calling Feed
// again, since a subsequent Feed may grow and replace that buffer (mempool.Append
// frees the old backing array once it no longer fits).
type Parser struct {
	acc []byte
}

// NewParser returns an empty parser ready to accept the first chunk.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends chunk to the accumulation buffer and attempts to parse one
// complete request. It returns (nil, false) when more data is needed.
// A malformed request also yields (nil, false): Feed discards the
// ringerr.KindProtocol error that FeedErr reports.
func (p *Parser) Feed(chunk []byte) (*Request, bool) {
	req, _, ok := p.FeedErr(chunk)
	return req, ok
}

// FeedErr is Feed plus the parse error, for callers (internal/worker) that
// must distinguish "need more data" from "the client sent garbage".
func (p *Parser) FeedErr(chunk []byte) (*Request, error, bool) {
	p.acc = mempool.Append(p.acc, chunk...)

	headerEnd := bytes.Index(p.acc, headerStop)
	if headerEnd < 0 {
		return nil, nil, false
	}
	req, err := parseHeaderBlock(p.acc[:headerEnd+len(crlf)])
	if err != nil {
		return nil, ringerr.Wrap("httpmsg.Parser.Feed", ringerr.KindProtocol, err), false
	}

	bodyStart := headerEnd + len(headerStop)
	contentLength := 0
	if cl := req.Header.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 {
			return nil, ringerr.New("httpmsg.Parser.Feed", ringerr.KindProtocol, "invalid Content-Length"), false
		}
		contentLength = n
	}
	if len(p.acc)-bodyStart < contentLength {
		return nil, nil, false // headers complete, body still arriving
	}
	req.Body = p.acc[bodyStart : bodyStart+contentLength]

	// Leave any pipelined bytes for the next Feed call. The accumulation
	// buffer is re-sliced, not copied, so the returned Request's views still
	// point into the same backing array.
	leftover := p.acc[bodyStart+contentLength:]
	p.acc = leftover
	return req, nil, true
}

// Reset clears accumulated state, e.g. after a protocol error closes the
// connection and a new Parser is warranted instead of reuse.
func (p *Parser) Reset() {
	p.acc = p.acc[:0]
}

func parseHeaderBlock(block []byte) (*Request, error) {
	r := bufiox.NewBytesReader(block)

	lineEnd := bytes.Index(block, crlf)
	if lineEnd < 0 {
		return nil, fmt.Errorf("httpmsg: missing request line terminator")
	}
	requestLine, err := r.Next(lineEnd)
	if err != nil {
		return nil, err
	}
	if err := r.Skip(len(crlf)); err != nil {
		return nil, err
	}

	method, path, version, err := parseRequestLine(requestLine)
	if err != nil {
		return nil, err
	}
	req := &Request{Method: method, Path: path, Version: version}

	for {
		remaining := block[r.ReadLen():]
		if len(remaining) == 0 {
			break
		}
		end := bytes.Index(remaining, crlf)
		if end < 0 {
			return nil, fmt.Errorf("httpmsg: missing header line terminator")
		}
		if end == 0 {
			if err := r.Skip(len(crlf)); err != nil {
				return nil, err
			}
			break
		}
		line, err := r.Next(end)
		if err != nil {
			return nil, err
		}
		if err := r.Skip(len(crlf)); err != nil {
			return nil, err
		}
		name, value, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		req.Header.Add(name, value)
	}
	return req, nil
}

func parseRequestLine(line []byte) (method, path, version string, err error) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return "", "", "", fmt.Errorf("httpmsg: malformed request line")
	}
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 < 0 {
		return "", "", "", fmt.Errorf("httpmsg: malformed request line")
	}
	method = unsafex.BinaryToString(line[:sp1])
	path = unsafex.BinaryToString(rest[:sp2])
	version = unsafex.BinaryToString(rest[sp2+1:])
	return method, path, version, nil
}

func parseHeaderLine(line []byte) (name, value string, err error) {
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return "", "", fmt.Errorf("httpmsg: malformed header line")
	}
	name = unsafex.BinaryToString(trimSpace(line[:colon]))
	value = unsafex.BinaryToString(trimSpace(line[colon+1:]))
	return name, value, nil
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
