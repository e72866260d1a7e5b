package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/FigureLens/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"invalid image", errors.ErrCodeInvalidImage, "cannot decode input image"},
		{"empty catalog", errors.ErrCodeEmptyCatalog, "catalog is empty"},
		{"cancelled", errors.ErrCodeCancelled, "superseded by newer request"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
		})
	}
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInvalidImage, "cannot decode input image")
	assert.Equal(t, "[IMG_001] cannot decode input image", ae.Error())

	withDetail := ae.WithDetail("len=0")
	assert.Equal(t, "[IMG_001] cannot decode input image: len=0", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestNewCode_UsesDefaultMessage(t *testing.T) {
	t.Parallel()

	ae := errors.NewCode(errors.ErrCodeEmptyCatalog)
	require.NotNil(t, ae)
	assert.Equal(t, "catalog is empty", ae.Message)
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should vanish"))
	})

	t.Run("wraps and unwraps", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		ae := errors.Wrap(cause, errors.ErrCodeDatabaseError, "failed to load catalog")

		require.NotNil(t, ae)
		assert.Equal(t, errors.ErrCodeDatabaseError, ae.Code)
		assert.ErrorIs(t, ae, cause)
	})

	t.Run("CodeUnknown preserves inner code", func(t *testing.T) {
		inner := errors.New(errors.ErrCodeEmptyCatalog, "catalog is empty")
		outer := errors.Wrap(inner, errors.CodeUnknown, "recognition aborted")
		assert.Equal(t, errors.ErrCodeEmptyCatalog, outer.Code)
	})
}

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeVectorDimMismatch, "10 vs 12")
	mid := fmt.Errorf("scoring: %w", inner)
	outer := errors.Wrap(mid, errors.CodeInternal, "match failed")

	assert.True(t, errors.IsCode(outer, errors.ErrCodeVectorDimMismatch))
	assert.True(t, errors.IsCode(outer, errors.CodeInternal))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeEmptyCatalog))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("entry missing")))
	assert.True(t, errors.IsNotFound(errors.NewCode(errors.ErrCodeNoMatchFound)))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
	assert.False(t, errors.IsNotFound(nil))
}

func TestIsCancelled(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsCancelled(errors.Cancelled("superseded")))
	assert.True(t, errors.IsCancelled(fmt.Errorf("stage: %w", context.Canceled)))
	assert.False(t, errors.IsCancelled(errors.Internal("boom")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodePoorImageQuality,
		errors.GetCode(errors.NewCode(errors.ErrCodePoorImageQuality)))
}

func TestErrorCode_Registry(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.ErrCodeInvalidImage.IsValid())
	assert.True(t, errors.ErrCodeCancelled.IsValid())
	assert.False(t, errors.ErrorCode("BOGUS_999").IsValid())
	assert.Equal(t, "IMG_001", errors.ErrCodeInvalidImage.String())
	assert.Contains(t, errors.ErrorCode("BOGUS_999").DefaultMessage(), "unknown error code")
}
