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
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/ringloop/ringhttpd/internal/fileio"
	"github.com/ringloop/ringhttpd/internal/gateway"
	"github.com/ringloop/ringhttpd/internal/sock"
)

// FilesPrefix is the single fixed path prefix routed to ServeFile; any
// routing beyond this prefix is out of scope for this server.
const FilesPrefix = "/files/"

// ServeFile writes a response header for the file at root+name and then
// splices its contents directly to the connection, entirely bypassing the
// userspace copy a Read+Send pair would require. Grounded on
// internal/fileio.Splice / original_source's splice() path.
func ServeFile(gw *gateway.Gateway, conn *sock.Conn, root, name string, keepAlive bool) error {
	f, err := fileio.Open(root + name)
	if err != nil {
		resp := NewResponse(404, "Not Found", []byte("not found\n"))
		resp.SetKeepAlive(keepAlive)
		_, sendErr := conn.Send(resp.AppendTo(nil))
		if sendErr != nil {
			return sendErr
		}
		return nil
	}
	defer f.Close()

	var stat unix.Stat_t
	if err := unix.Fstat(f.Fd(), &stat); err != nil {
		return fmt.Errorf("httpmsg.ServeFile: fstat: %w", err)
	}
	size := int(stat.Size)

	header := &Response{Version: "HTTP/1.1", Status: 200, StatusText: "OK"}
	header.Header.Add("Content-Length", strconv.Itoa(size))
	header.Header.Add("Content-Type", "application/octet-stream")
	header.SetKeepAlive(keepAlive)
	if _, err := conn.Send(header.AppendTo(nil)); err != nil {
		return err
	}

	if size == 0 {
		return nil
	}
	out := fileio.FromFD(conn.Fd())
	if _, err := fileio.Splice(gw, f, out, size); err != nil {
		return err
	}
	return nil
}
