package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

var errHijackUnsupported = errors.New("response writer does not support hijacking")

// hijack lets wrapped writers pass WebSocket upgrades through.
func hijack(w http.ResponseWriter) (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, nil, errHijackUnsupported
	}
	return hj.Hijack()
}
