package facematch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfMatchDistanceIsZero(t *testing.T) {
	emb := []float32{0.12, -0.5, 0.33, 0.9}

	res, err := Verify(emb, emb, 0)
	require.NoError(t, err)

	assert.InDelta(t, 0, res.Distance, 1e-9)
	assert.True(t, res.Verified, "self match must verify for any non-negative threshold")
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := []float32{1, 2, 3, 4}
	b := []float32{-4, 0.5, 2, 1}

	dab, err := CosineDistance(a, b)
	require.NoError(t, err)
	dba, err := CosineDistance(b, a)
	require.NoError(t, err)

	assert.Equal(t, dab, dba)
}

func TestOrthogonalVectorsDistanceOne(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	d, err := CosineDistance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-9)
}

func TestOppositeVectorsDistanceTwo(t *testing.T) {
	a := []float32{1, 1}
	b := []float32{-1, -1}

	d, err := CosineDistance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2, d, 1e-9)
}

func TestThresholdBoundary(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 1} // distance = 1 - 1/sqrt(2) ~ 0.2929

	d, err := CosineDistance(a, b)
	require.NoError(t, err)

	res, err := Verify(a, b, d)
	require.NoError(t, err)
	assert.True(t, res.Verified, "distance equal to threshold must verify")

	res, err = Verify(a, b, d-1e-6)
	require.NoError(t, err)
	assert.False(t, res.Verified)
}

func TestZeroVectorIsDegenerateNotPanic(t *testing.T) {
	zero := []float32{0, 0, 0}
	other := []float32{1, 2, 3}

	res, err := Verify(other, zero, 2)
	assert.ErrorIs(t, err, ErrDegenerate)
	assert.False(t, res.Verified)
	assert.True(t, math.IsInf(res.Distance, 1))
}

func TestMismatchedLengthsAreDegenerate(t *testing.T) {
	_, err := CosineDistance([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = CosineDistance(nil, nil)
	assert.ErrorIs(t, err, ErrDegenerate)
}
