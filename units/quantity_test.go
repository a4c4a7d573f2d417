package units

import (
	"testing"

	"github.com/ctessum/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInfersDimension(t *testing.T) {
	cases := []struct {
		unitName string
		dim      Dim
	}{
		{"au", Length},
		{"yr", Time},
		{"Msun", Mass},
		{"g/cm**3", Density},
		{"km/s", Velocity},
		{"uG", MagneticField},
		{"K", Temperature},
		{"bar", Pressure},
	}
	for _, c := range cases {
		q, err := New(2, c.unitName)
		require.NoError(t, err, c.unitName)
		assert.Equal(t, c.dim, q.Dim, c.unitName)
	}
}

func TestNewUnknownUnit(t *testing.T) {
	_, err := New(1, "furlong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestCGS(t *testing.T) {
	q, err := New(2, "au")
	require.NoError(t, err)
	v, err := q.CGS()
	require.NoError(t, err)
	assert.Equal(t, 2*1.49597892e13, v)

	q, err = New(10, "km/s")
	require.NoError(t, err)
	v, err = q.CGS()
	require.NoError(t, err)
	assert.Equal(t, 1e6, v)
}

func TestCGSWrongDimensionUnit(t *testing.T) {
	q := Quantity{Value: 1, Unit: "au", Dim: Time}
	_, err := q.CGS()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestSICarriesDimensions(t *testing.T) {
	q, err := New(1, "km/s")
	require.NoError(t, err)
	u, err := q.SI()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, u.Value())
	assert.True(t, u.Dimensions().Matches(unit.Dimensions{
		unit.LengthDim: 1, unit.TimeDim: -1,
	}))
}

func TestQuantityString(t *testing.T) {
	q := Quantity{Value: 1.5, Unit: "gauss", Dim: MagneticField}
	assert.Equal(t, "1.5 gauss", q.String())
	assert.Equal(t, "3", Quantity{Value: 3, Dim: Dimensionless}.String())
}
