package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	func() {
		defer RecoverPanic(logger, "unit test")
		panic("kaboom")
	}()

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "PANIC recovered", entry["msg"])
	assert.Equal(t, "kaboom", entry["panic"])
	assert.Equal(t, "unit test", entry["context"])
	assert.NotEmpty(t, entry["stack"])
}

func TestRecoverPanic_NoPanic(t *testing.T) {
	var buf bytes.Buffer
	func() {
		defer RecoverPanic(NewLogger(InfoLevel, &buf), "quiet")
	}()
	assert.Zero(t, buf.Len())
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))

	run := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = MustRecover(r)
			}
		}()
		panic("bad input")
	}
	assert.EqualError(t, run(), "panic: bad input")
}
