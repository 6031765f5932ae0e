package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tturner/blecal/internal/meterble"
)

func TestUserFriendlyError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      UserFriendlyError
		contains []string
	}{
		{
			name:     "message only",
			err:      UserFriendlyError{Message: "something broke"},
			contains: []string{"something broke"},
		},
		{
			name: "all fields",
			err: UserFriendlyError{
				Message: "connection failed",
				Reason:  "timeout",
				Hint:    "check network",
				Try:     "ping host",
				Err:     fmt.Errorf("dial tcp: timeout"),
			},
			contains: []string{"connection failed", "Reason: timeout", "Hint: check network", "Try: ping host", "Details: dial tcp: timeout"},
		},
		{
			name: "no reason",
			err: UserFriendlyError{
				Message: "failed",
				Hint:    "hint here",
			},
			contains: []string{"failed", "Hint: hint here"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestUserFriendlyError_ErrorOmitsEmptyFields(t *testing.T) {
	msg := UserFriendlyError{Message: "msg"}.Error()
	for _, label := range []string{"Reason:", "Hint:", "Try:", "Details:"} {
		assert.NotContains(t, msg, label)
	}
}

func TestUserFriendlyError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("root cause")
	err := UserFriendlyError{Message: "wrapper", Err: inner}
	assert.ErrorIs(t, err, inner)

	var nilErr UserFriendlyError
	assert.NoError(t, nilErr.Unwrap())
}

func TestWrapEncodeError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, WrapEncodeError(nil, "connect"))
	})

	t.Run("unknown command", func(t *testing.T) {
		_, cause := meterble.Encode(meterble.EncodeRequest{OAD: "reboot"})
		err := WrapEncodeError(cause, "reboot")
		var ufe UserFriendlyError
		require.ErrorAs(t, err, &ufe)
		assert.Contains(t, ufe.Message, "reboot")
		assert.Contains(t, ufe.Reason, "not recognised")
		assert.Equal(t, "blecal commands", ufe.Try)
		assert.ErrorIs(t, err, meterble.ErrUnknownCommand)
	})

	t.Run("bad address", func(t *testing.T) {
		_, cause := meterble.Encode(meterble.EncodeRequest{OAD: "connect", Addr: "12"})
		ufe := WrapEncodeError(cause, "connect").(UserFriendlyError)
		assert.Contains(t, ufe.Hint, "12 hex digits")
	})

	t.Run("bad baud", func(t *testing.T) {
		_, cause := meterble.Encode(meterble.EncodeRequest{OAD: "set_baud", Baud: meterble.Named("115200")})
		ufe := WrapEncodeError(cause, "set_baud").(UserFriendlyError)
		assert.Contains(t, ufe.Hint, "38400")
		assert.Contains(t, ufe.Try, "set_baud")
	})

	t.Run("bad itemContent", func(t *testing.T) {
		_, cause := meterble.Encode(meterble.EncodeRequest{OAD: "meter_test", ItemContent: "01|QQ"})
		ufe := WrapEncodeError(cause, "meter_test").(UserFriendlyError)
		assert.Contains(t, ufe.Hint, "segments")
	})
}

func TestWrapDecodeError(t *testing.T) {
	assert.NoError(t, WrapDecodeError(nil, ""))

	_, cause := meterble.DecodeString("7E7E7E5A")
	ufe := WrapDecodeError(cause, "7E7E7E5A").(UserFriendlyError)
	assert.Equal(t, "Frame structure is malformed", ufe.Reason)
	assert.Contains(t, ufe.Message, "7E7E7E5A")

	long := strings.Repeat("AB", 40)
	ufe = WrapDecodeError(fmt.Errorf("x"), long).(UserFriendlyError)
	assert.True(t, strings.HasSuffix(ufe.Message, "..."), "long input should be abbreviated, got %q", ufe.Message)
}

func TestWrapConfigError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, WrapConfigError(nil, "config.yaml"))
	})

	t.Run("wraps config error", func(t *testing.T) {
		ufe := WrapConfigError(fmt.Errorf("invalid yaml"), "blecal.yaml").(UserFriendlyError)
		assert.Contains(t, ufe.Message, "blecal.yaml")
		assert.Equal(t, "invalid yaml", ufe.Reason)
		assert.Contains(t, ufe.Hint, "BLECAL_", "hint mentions environment overrides")
	})
}

func TestWrapInputError(t *testing.T) {
	assert.NoError(t, WrapInputError(nil, "req.json"))

	tests := []struct {
		cause  error
		reason string
	}{
		{fmt.Errorf("open req.json: no such file or directory"), "File does not exist"},
		{fmt.Errorf("open req.json: permission denied"), "File is not readable"},
		{fmt.Errorf(`unknown mode "send"`), "Request mode must be encode or decode"},
		{fmt.Errorf("unexpected EOF"), "Request could not be parsed"},
	}
	for _, tt := range tests {
		ufe := WrapInputError(tt.cause, "req.json").(UserFriendlyError)
		assert.Equal(t, tt.reason, ufe.Reason, "cause %v", tt.cause)
	}
}
