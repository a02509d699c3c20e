package wbemerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMnemonicTable(t *testing.T) {
	cases := map[int]string{
		1:  "CIM_ERR_FAILED",
		2:  "CIM_ERR_ACCESS_DENIED",
		3:  "CIM_ERR_INVALID_NAMESPACE",
		4:  "CIM_ERR_INVALID_PARAMETER",
		5:  "CIM_ERR_INVALID_CLASS",
		6:  "CIM_ERR_NOT_FOUND",
		28: "CIM_ERR_SERVER_IS_SHUTTING_DOWN",
	}
	for code, want := range cases {
		require.Equal(t, want, Mnemonic(code))
	}
}

func TestMnemonicUnknownCode(t *testing.T) {
	require.Equal(t, "CIM_ERR_UNKNOWN", Mnemonic(999))
}

func TestCIMErrorCarriesCodeAndMnemonic(t *testing.T) {
	err := &CIMError{Code: 2, Description: "not allowed"}
	require.Equal(t, "CIM_ERR_ACCESS_DENIED", err.Mnemonic())
	require.Contains(t, err.Error(), "CIM_ERR_ACCESS_DENIED")
}

func TestConnectionErrorUnwraps(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := &ConnectionError{Op: "dial", Err: inner}
	require.ErrorIs(t, err, inner)
}
