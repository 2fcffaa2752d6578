package model

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0xdeadbeef)
}

func TestConstantVelocityMatrix(t *testing.T) {
	t.Parallel()

	cv := NewConstantVelocity(2, 0.5, 0.1, testSource(1))
	require.Equal(t, 4, cv.Dim())

	t.Run("zero interval is identity", func(t *testing.T) {
		t.Parallel()
		m, err := cv.Matrix(nil, 0)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(m, Identity(4), 0))
	})

	t.Run("positive interval couples position to velocity", func(t *testing.T) {
		t.Parallel()
		m, err := cv.Matrix(nil, 2*time.Second)
		require.NoError(t, err)
		want := mat.NewDense(4, 4, []float64{
			1, 0, 2, 0,
			0, 1, 0, 2,
			0, 0, 1, 0,
			0, 0, 0, 1,
		})
		assert.True(t, mat.EqualApprox(m, want, 1e-15))
	})

	t.Run("negative interval is the backward matrix", func(t *testing.T) {
		t.Parallel()
		fwd, err := cv.Matrix(nil, 3*time.Second)
		require.NoError(t, err)
		bwd, err := cv.Matrix(nil, -3*time.Second)
		require.NoError(t, err)

		// T(−dt) inverts T(dt) for constant-velocity dynamics.
		var prod mat.Dense
		prod.Mul(fwd, bwd)
		assert.True(t, mat.EqualApprox(&prod, Identity(4), 1e-12))
	})
}

func TestConstantVelocityPropagate(t *testing.T) {
	t.Parallel()

	cv := NewConstantVelocity(2, 0.5, 0.1, testSource(2))
	x := mat.NewVecDense(4, []float64{1, 2, 3, -1})

	out, err := cv.Propagate(x, 2*time.Second)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, out.AtVec(0), 1e-12)
	assert.InDelta(t, 0.0, out.AtVec(1), 1e-12)
	assert.InDelta(t, 3.0, out.AtVec(2), 1e-12)
	assert.InDelta(t, -1.0, out.AtVec(3), 1e-12)

	_, err = cv.Propagate(mat.NewVecDense(2, []float64{1, 2}), time.Second)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestRandomWalkSampleStatistics(t *testing.T) {
	t.Parallel()

	rw := NewRandomWalk(2, []float64{0.04, 0.04}, testSource(3))
	x := mat.NewVecDense(2, []float64{10, -5})

	samples, err := rw.Sample(2000, x, time.Second)
	require.NoError(t, err)
	require.Len(t, samples, 2000)

	var sum0, sum1 float64
	for _, s := range samples {
		require.Equal(t, 2, s.Len())
		sum0 += s.AtVec(0)
		sum1 += s.AtVec(1)
	}
	// Sample mean stays near the deterministic propagation (sigma 0.2,
	// standard error ~0.0045, tolerance 5 sigma).
	assert.InDelta(t, 10, sum0/2000, 0.025)
	assert.InDelta(t, -5, sum1/2000, 0.025)
}

func TestSampleNoiselessLimit(t *testing.T) {
	t.Parallel()

	cv := NewConstantVelocity(1, 0.5, 0.1, testSource(4))
	x := mat.NewVecDense(2, []float64{1, 1})

	// dt = 0 scales the process noise to zero; draws are exact copies.
	samples, err := cv.Sample(5, x, 0)
	require.NoError(t, err)
	for _, s := range samples {
		assert.InDelta(t, 1.0, s.AtVec(0), 0)
		assert.InDelta(t, 1.0, s.AtVec(1), 0)
	}
}

func TestDensityNonNegative(t *testing.T) {
	t.Parallel()

	rng := rand.New(testSource(5))
	cv := NewConstantVelocity(2, 0.5, 0.1, testSource(6))

	for i := 0; i < 100; i++ {
		origin := mat.NewVecDense(4, []float64{
			rng.NormFloat64() * 100, rng.NormFloat64() * 100,
			rng.NormFloat64() * 10, rng.NormFloat64() * 10,
		})
		candidate := mat.NewVecDense(4, []float64{
			rng.NormFloat64() * 100, rng.NormFloat64() * 100,
			rng.NormFloat64() * 10, rng.NormFloat64() * 10,
		})
		dt := time.Duration((rng.Float64()*10 + 0.1) * float64(time.Second))

		p, err := cv.Density(candidate, origin, dt)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
	}
}

func TestDensityPeaksAtPropagation(t *testing.T) {
	t.Parallel()

	cv := NewConstantVelocity(1, 0.5, 0.1, testSource(7))
	origin := mat.NewVecDense(2, []float64{0, 1})

	mean, err := cv.Propagate(origin, time.Second)
	require.NoError(t, err)

	atMean, err := cv.Density(mean, origin, time.Second)
	require.NoError(t, err)

	off := mat.NewVecDense(2, []float64{mean.AtVec(0) + 1, mean.AtVec(1)})
	offMean, err := cv.Density(off, origin, time.Second)
	require.NoError(t, err)

	assert.Greater(t, atMean, offMean)
}
