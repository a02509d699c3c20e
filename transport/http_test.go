package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tony23/pywbem/wbemerrors"
)

func TestNewDefaults(t *testing.T) {
	tr := New()
	require.Equal(t, DefaultTimeout, tr.client.Timeout)
	require.Equal(t, DefaultPath, tr.path)
	httpTr, ok := tr.client.Transport.(*http.Transport)
	require.True(t, ok)
	require.Equal(t, uint16(tls.VersionTLS12), httpTr.TLSClientConfig.MinVersion)
}

func TestWithTimeout(t *testing.T) {
	tr := New(WithTimeout(5 * time.Second))
	require.Equal(t, 5*time.Second, tr.client.Timeout)
}

func TestWithInsecureSkipVerify(t *testing.T) {
	tr := New(WithInsecureSkipVerify(true))
	httpTr := tr.client.Transport.(*http.Transport)
	require.True(t, httpTr.TLSClientConfig.InsecureSkipVerify)
}

func TestWithTLSConfigFloorsMinVersion(t *testing.T) {
	tr := New(WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS11}))
	httpTr := tr.client.Transport.(*http.Transport)
	require.Equal(t, uint16(tls.VersionTLS12), httpTr.TLSClientConfig.MinVersion)
}

func TestPostSetsCIMHeaders(t *testing.T) {
	var gotOp, gotMethod, gotObject, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOp = r.Header.Get("CIMOperation")
		gotMethod = r.Header.Get("CIMMethod")
		gotObject = r.Header.Get("CIMObject")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("CIMOperation", "MethodResponse")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<CIM/>"))
	}))
	defer srv.Close()

	tr := New()
	reply, err := tr.Post(context.Background(), srv.URL, "GetInstance", "root/cimv2", []byte("<CIM/>"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, reply.StatusCode)
	require.Equal(t, "MethodCall", gotOp)
	require.Equal(t, "GetInstance", gotMethod)
	require.Equal(t, "root/cimv2", gotObject)
	require.Equal(t, ContentTypeCIMXML, gotContentType)
}

func Test401IsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := New()
	_, err := tr.Post(context.Background(), srv.URL, "GetInstance", "root/cimv2", []byte("<CIM/>"))
	var authErr *wbemerrors.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestNon200IsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	tr := New()
	_, err := tr.Post(context.Background(), srv.URL, "GetInstance", "root/cimv2", []byte("<CIM/>"))
	var httpErr *wbemerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestTimeoutIsTimeoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := New(WithTimeout(1 * time.Millisecond))
	_, err := tr.Post(context.Background(), srv.URL, "GetInstance", "root/cimv2", []byte("<CIM/>"))
	var timeoutErr *wbemerrors.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestIsIdempotentMethod(t *testing.T) {
	require.True(t, IsIdempotentMethod("GetInstance"))
	require.True(t, IsIdempotentMethod("EnumerateInstances"))
	require.True(t, IsIdempotentMethod("PullInstancesWithPath"))
	require.True(t, IsIdempotentMethod("CloseEnumeration"))
	require.False(t, IsIdempotentMethod("CreateInstance"))
	require.False(t, IsIdempotentMethod("ModifyInstance"))
	require.False(t, IsIdempotentMethod("DeleteInstance"))
}

func TestWithPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("CIMOperation", "MethodResponse")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := New(WithPath("/wbem"))
	_, err := tr.Post(context.Background(), srv.URL, "GetInstance", "root/cimv2", []byte("<CIM/>"))
	require.NoError(t, err)
	require.Equal(t, "/wbem", gotPath)
}
