package middleware

import (
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// written tracks what a handler has sent through a captured writer.
type written struct {
	status int
	bytes  int64
}

// code is the effective status: handlers that only call Write send 200.
func (s *written) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func (s *written) started() bool {
	return s.status != 0
}

// capture wraps w while keeping its optional interfaces (Flusher, Hijacker)
// intact.
func capture(w http.ResponseWriter) (http.ResponseWriter, *written) {
	state := &written{}
	mark := func() {
		if state.status == 0 {
			state.status = http.StatusOK
		}
	}
	wrapped := httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				if state.status == 0 {
					state.status = code
				}
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				mark()
				n, err := next(b)
				state.bytes += int64(n)
				return n, err
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				mark()
				n, err := next(src)
				state.bytes += n
				return n, err
			}
		},
	})
	return wrapped, state
}
