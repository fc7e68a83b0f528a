package splineplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"honnef.co/go/bspline"
	"honnef.co/go/bspline/manifold"
)

func TestPlot(t *testing.T) {
	m := manifold.NewEuclidean(2)
	s := bspline.New[int64](m, bspline.Nanoseconds, 4)
	require.NoError(t, s.InitConstantUniformSpline(0, 2e9, 8, []float64{0, 0}))
	for i := range s.NumControlVertices() {
		require.NoError(t, s.SetControlVertex(i, []float64{float64(i), float64(i * i)}))
	}

	for _, order := range []int{0, 1, 2} {
		p, err := Plot(s, order, 50)
		require.NoError(t, err)
		require.InDelta(t, 0, p.X.Min, 1e-9)
		require.InDelta(t, 2, p.X.Max, 1e-9)

		name := filepath.Join(t.TempDir(), "spline.png")
		require.NoError(t, p.Save(4*vg.Inch, 3*vg.Inch, name))
		fi, err := os.Stat(name)
		require.NoError(t, err)
		require.NotZero(t, fi.Size())
	}

	_, err := Plot(s, 0, 1)
	require.Error(t, err)
	empty := bspline.New[float64](m, bspline.Seconds{}, 4)
	_, err = Plot(empty, 0, 10)
	require.ErrorIs(t, err, bspline.ErrOrderViolation)
}
