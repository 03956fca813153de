package fetcherr_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"gitlab.com/efronlicht/rawget/fetcherr"
)

func TestIs(t *testing.T) {
	err := fmt.Errorf("fetch: %w", fetcherr.New(fetcherr.Resolution, "weburl.Address", io.ErrUnexpectedEOF))
	if !errors.Is(err, fetcherr.Resolution) {
		t.Errorf("errors.Is(%v, Resolution) = false, want true", err)
	}
	if errors.Is(err, fetcherr.Connect) {
		t.Errorf("errors.Is(%v, Connect) = true, want false", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("errors.Is(%v, io.ErrUnexpectedEOF) = false, want true: cause should unwrap", err)
	}
	var fe *fetcherr.Error
	if !errors.As(err, &fe) || fe.Op != "weburl.Address" {
		t.Errorf("errors.As(%v) did not recover the *Error", err)
	}
}

func TestError(t *testing.T) {
	for _, tt := range []struct {
		err  *fetcherr.Error
		want string
	}{
		{fetcherr.New(fetcherr.ProtocolState, "", nil), "protocol state error"},
		{fetcherr.New(fetcherr.ProtocolState, "httpconn.Response", nil), "httpconn.Response: protocol state error"},
		{fetcherr.New(fetcherr.IO, "", io.EOF), "i/o error: EOF"},
		{fetcherr.Errorf(fetcherr.Parse, "weburl.Parse", "port %q out of range", "99999"), `weburl.Parse: parse error: port "99999" out of range`},
	} {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
