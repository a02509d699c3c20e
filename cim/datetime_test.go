package cim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDateTimeRoundTrip(t *testing.T) {
	const s = "20140924143012.000000+060"
	dt, err := ParseDateTime(s)
	require.NoError(t, err)
	require.Equal(t, 2014, dt.Year)
	require.Equal(t, 9, dt.Month)
	require.Equal(t, 60, dt.UTCOffsetMinutes)
	require.Len(t, dt.XMLText(), 25)
	require.Equal(t, s, dt.XMLText())
}

func TestDateTimeIntervalRoundTrip(t *testing.T) {
	const s = "00000010123045.123456:000"
	dt, err := ParseDateTime(s)
	require.NoError(t, err)
	require.True(t, dt.Interval)
	require.Equal(t, 10, dt.Days)
	require.Equal(t, s, dt.XMLText())
}

func TestDateTimeRejectsWrongLength(t *testing.T) {
	_, err := ParseDateTime("too short")
	require.Error(t, err)
}

func TestNormalizeNamespace(t *testing.T) {
	cases := map[string]string{
		"root/cimv2":     "root/cimv2",
		"//root/mycim//": "root/mycim",
		"/root//a/b/":    "root/a/b",
	}
	for in, want := range cases {
		got, err := NormalizeNamespace(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestNormalizeNamespaceEmptyIsInvalid(t *testing.T) {
	_, err := NormalizeNamespace("///")
	require.Error(t, err)
}
