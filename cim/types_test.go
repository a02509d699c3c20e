package cim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
		text string
	}{
		{"string", TypeString, "Fritz"},
		{"bool-true", TypeBoolean, "TRUE"},
		{"bool-false", TypeBoolean, "FALSE"},
		{"uint8-max", TypeUint8, "255"},
		{"sint64-neg", TypeSint64, "-9223372036854775808"},
		{"real64", TypeReal64, "3.25"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseScalar(tc.typ, tc.text)
			require.NoError(t, err)
			require.Equal(t, tc.typ, v.CIMType())
			require.Equal(t, tc.text, v.XMLText())
		})
	}
}

func TestBooleanCaseInsensitiveParse(t *testing.T) {
	v, err := ParseScalar(TypeBoolean, "true")
	require.NoError(t, err)
	require.Equal(t, Boolean(true), v)
}

func TestIntegerRangeRejected(t *testing.T) {
	_, err := ParseScalar(TypeUint8, "256")
	require.Error(t, err)

	_, err = ParseScalar(TypeSint8, "128")
	require.Error(t, err)
}

func TestRealPreservesNaNAndInf(t *testing.T) {
	v, err := ParseScalar(TypeReal64, "NaN")
	require.NoError(t, err)
	r := v.(Real64)
	require.True(t, math.IsNaN(float64(r)))
	require.Equal(t, "NaN", v.XMLText())

	v, err = ParseScalar(TypeReal64, "INF")
	require.NoError(t, err)
	require.Equal(t, "INF", v.XMLText())

	v, err = ParseScalar(TypeReal64, "-INF")
	require.NoError(t, err)
	require.Equal(t, "-INF", v.XMLText())
}

func TestNaNEqualsNaN(t *testing.T) {
	a := Real64(math.NaN())
	b := Real64(math.NaN())
	require.True(t, a.Equal(b))
}

func TestChar16RejectsMultiRune(t *testing.T) {
	_, err := ParseScalar(TypeChar16, "ab")
	require.Error(t, err)
}
