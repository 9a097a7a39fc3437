package resynth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/gapfill/pkg/audio"
)

func TestAdapter_Resynthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("quantizes_the_request", func(t *testing.T) {
		var (
			gotLen       int
			gotHop       int
			gotThreshold float64
		)
		a, err := NewAdapter(Func(func(
			_ context.Context,
			samples []float64,
			_ audio.SampleRate,
			frameHop int,
			confidenceThreshold float64,
		) ([]float64, error) {
			gotLen, gotHop, gotThreshold = len(samples), frameHop, confidenceThreshold
			samples[0] = 42
			return make([]float64, len(samples)), nil
		}), 64, 0.6)
		require.NoError(t, err)

		buf := make([]float64, 200)
		excerpt, err := a.Resynthesize(ctx, buf, 16000)
		require.NoError(t, err)
		assert.Equal(t, 192, gotLen)
		assert.Equal(t, 64, gotHop)
		assert.Equal(t, 0.6, gotThreshold)
		assert.Len(t, excerpt, 192)
		assert.Zero(t, buf[0], "the context must not be modified by the synthesizer")
	})

	t.Run("degenerate", func(t *testing.T) {
		called := false
		a, err := NewAdapter(Func(func(context.Context, []float64, audio.SampleRate, int, float64) ([]float64, error) {
			called = true
			return nil, nil
		}), 64, 0.6)
		require.NoError(t, err)

		_, err = a.Resynthesize(ctx, make([]float64, 63), 16000)
		require.ErrorIs(t, err, ErrDegenerateSpan)
		assert.False(t, called)

		_, err = a.Resynthesize(ctx, make([]float64, 64), 16000)
		require.ErrorIs(t, err, ErrDegenerateSpan)
		assert.True(t, called)
	})

	t.Run("oracle_failure", func(t *testing.T) {
		errBoom := errors.New("boom")
		a, err := NewAdapter(Func(func(context.Context, []float64, audio.SampleRate, int, float64) ([]float64, error) {
			return nil, errBoom
		}), 64, 0.6)
		require.NoError(t, err)

		_, err = a.Resynthesize(ctx, make([]float64, 640), 16000)
		require.ErrorIs(t, err, ErrOracleFailure)
		require.ErrorIs(t, err, errBoom)

		var oracleErr *OracleError
		require.ErrorAs(t, err, &oracleErr)
	})
}

func TestNewAdapter_Invalid(t *testing.T) {
	_, err := NewAdapter(nil, 64, 0.6)
	assert.Error(t, err)
	_, err = NewAdapter(NewDummy(), 0, 0.6)
	assert.Error(t, err)
}

func TestDummy(t *testing.T) {
	excerpt, err := NewDummy().Synthesize(context.Background(), []float64{1, 2, 3}, 16000, 1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, excerpt)
}
