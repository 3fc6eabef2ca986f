package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestABCIInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"plain registered error": {
			err:      ErrReplay,
			wantCode: ErrReplay.code,
			wantLog:  "replayed authorization",
		},
		"wrapped registered error": {
			err:      Wrap(ErrVerification, "vault claim"),
			wantCode: ErrVerification.code,
			wantLog:  "vault claim: signature verification failed",
		},
		"nil is success": {
			err:      nil,
			wantCode: SuccessABCICode,
			wantLog:  "",
		},
		"stdlib error is internal": {
			err:      io.EOF,
			wantCode: internalABCICode,
			wantLog:  internalABCILog,
		},
		"wrapped stdlib error is internal": {
			err:      Wrap(fmt.Errorf("disk failure"), "write"),
			wantCode: internalABCICode,
			wantLog:  internalABCILog,
		},
		"panic is redacted": {
			err:      Wrap(ErrPanic, "runtime: index out of range"),
			wantCode: internalABCICode,
			wantLog:  internalABCILog,
		},
		"stdlib error in debug mode is exposed": {
			err:      io.EOF,
			debug:    true,
			wantCode: internalABCICode,
			wantLog:  "EOF",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := ABCIInfo(tc.err, tc.debug)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantLog, log)
		})
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, internalABCILog, Redact(io.EOF, false).Error())
	assert.Equal(t, io.EOF, Redact(io.EOF, true))

	err := Wrap(ErrUnauthorized, "not an owner")
	assert.Equal(t, err, Redact(err, false))

	assert.Equal(t, internalABCILog, Redact(Wrap(ErrPanic, "boom"), false).Error())
	assert.Nil(t, Redact(nil, false))
}

func TestABCIError(t *testing.T) {
	assert.Nil(t, ABCIError(SuccessABCICode, ""))

	err := ABCIError(ErrReplay.ABCICode(), "nonce already used")
	assert.True(t, ErrReplay.Is(err))
	assert.Contains(t, err.Error(), "nonce already used")

	code, _ := ABCIInfo(ABCIError(987654, "unknown"), false)
	assert.Equal(t, internalABCICode, code)
}
