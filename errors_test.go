package lithos_test

import (
	"errors"
	"testing"

	"github.com/lithos-os/lithos"
	"github.com/stretchr/testify/assert"
)

func TestErrnoWithMessage(t *testing.T) {
	newErr := lithos.ErrNotFound.WithMessage("/home/user/test.txt")
	assert.Equal(
		t, "No such file or directory: /home/user/test.txt", newErr.Error(),
		"error message is wrong")
	assert.ErrorIs(t, newErr, lithos.ErrNotFound)
}

func TestErrnoWrap(t *testing.T) {
	originalErr := errors.New("original error")
	newErr := lithos.ErrIOFailed.Wrap(originalErr)
	expectedMessage := "Input/output error: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, lithos.ErrIOFailed, "sentinel not set as parent")
}

func TestErrnoChainedMessage(t *testing.T) {
	newErr := lithos.ErrInvalidBlock.WithMessage("block 10").WithMessage("ramdisk")
	assert.ErrorIs(t, newErr, lithos.ErrInvalidBlock)
}
