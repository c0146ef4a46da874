package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"fmt wrapped", fmt.Errorf("publish: %w", NewTransientError(errors.New("busy"), 429)), true},
		{"eris wrapped", eris.Wrap(NewTransientError(errors.New("busy"), 502), "geoserver: upload"), true},
		{"net timeout", timeoutErr{}, true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"ftp 421", &textproto.Error{Code: 421, Msg: "too many users"}, true},
		{"ftp 550", &textproto.Error{Code: 550, Msg: "no such file"}, false},
		{"pg connection", &pgconn.PgError{Code: "08006"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, false},
		{"message", errors.New("dial tcp: i/o timeout"), true},
		{"permanent", errors.New("layer not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	te := NewTransientError(inner, 500)
	assert.Equal(t, "boom", te.Error())
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 500, te.StatusCode)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, s := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(s), "status %d", s)
	}
	for _, s := range []int{200, 201, 400, 401, 403, 404, 409, 501} {
		assert.False(t, IsTransientHTTPStatus(s), "status %d", s)
	}
}

func TestIsTransientFTPStatus(t *testing.T) {
	assert.True(t, IsTransientFTPStatus(421))
	assert.True(t, IsTransientFTPStatus(450))
	assert.False(t, IsTransientFTPStatus(550))
	assert.False(t, IsTransientFTPStatus(226))
}
