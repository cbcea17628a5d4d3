package facebook

import (
	"context"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type releaseRecorder struct {
	mu       sync.Mutex
	released map[*http.Client]int
}

func trackReleases(e *Executor) *releaseRecorder {
	r := &releaseRecorder{released: make(map[*http.Client]int)}
	e.release = func(c *http.Client) {
		r.mu.Lock()
		r.released[c]++
		r.mu.Unlock()
		c.CloseIdleConnections()
	}
	return r
}

func (r *releaseRecorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, count := range r.released {
		n += count
	}
	return n
}

func (r *releaseRecorder) eachOnce(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, count := range r.released {
		assert.Equal(t, 1, count)
	}
}

func TestExecutor_FormEncodedPost(t *testing.T) {
	var (
		gotMethod string
		gotBody   string
		gotCT     string
		gotExpect []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotExpect = r.Header.Values("Expect")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"raw"}}`))
	}))
	defer srv.Close()

	e := NewExecutor(ExecutorConfig{}, nil)
	releases := trackReleases(e)

	body, err := e.Execute(context.Background(), srv.URL+"/me", Params{
		{Key: "z", Value: "1"},
		{Key: "a", Value: "x y"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, `{"error":{"message":"raw"}}`, string(body), "body is returned unparsed regardless of status")
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotCT)
	assert.Equal(t, "z=1&a=x+y", gotBody)
	for _, v := range gotExpect {
		assert.NotContains(t, v, "100-continue")
	}
	assert.Equal(t, 1, releases.total())
}

func TestExecutor_MultipartUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpegbytes"), 0o600))

	var (
		gotMessage string
		gotFile    string
		gotName    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotMessage = r.FormValue("message")
		f, hdr, err := r.FormFile("source")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotFile, gotName = string(b), hdr.Filename
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	e := NewExecutor(ExecutorConfig{FileUploadSupport: true}, nil)
	body, err := e.Execute(context.Background(), srv.URL, Params{
		{Key: "message", Value: "hello"},
		FileParam("source", path),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, `{"id":"42"}`, string(body))
	assert.Equal(t, "hello", gotMessage)
	assert.Equal(t, "jpegbytes", gotFile)
	assert.Equal(t, "photo.jpg", gotName)
}

func TestExecutor_MultipartMissingFile(t *testing.T) {
	e := NewExecutor(ExecutorConfig{FileUploadSupport: true}, nil)
	releases := trackReleases(e)

	_, err := e.Execute(context.Background(), "http://127.0.0.1:1", Params{
		FileParam("source", "/does/not/exist"),
	}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeUploadRead, apiErr.Code)
	assert.Equal(t, 1, releases.total())
}

func TestExecutor_AtPrefixedValueIsPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "private.txt")
	require.NoError(t, os.WriteFile(path, []byte("PRIVATE"), 0o600))

	var (
		gotMessage string
		gotFiles   int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotMessage = r.FormValue("message")
		gotFiles = len(r.MultipartForm.File)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	e := NewExecutor(ExecutorConfig{FileUploadSupport: true}, nil)
	_, err := e.Execute(context.Background(), srv.URL, Params{
		{Key: "message", Value: "@" + path},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "@"+path, gotMessage)
	assert.Zero(t, gotFiles)
}

func TestExecutor_FileParamWithoutUploadSupport(t *testing.T) {
	e := NewExecutor(ExecutorConfig{}, nil)

	_, err := e.Execute(context.Background(), "http://127.0.0.1:1", Params{
		FileParam("source", "/etc/hosts"),
	}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeMalformedRequest, apiErr.Code)
	assert.ErrorIs(t, err, ErrFileUploadDisabled)
}

func TestExecutor_CAFallbackRetriesOnce(t *testing.T) {
	hits := 0
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("secure"))
	}))
	defer srv.Close()

	bundle := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	logger, logs := newObservedLogger()
	e := NewExecutor(ExecutorConfig{CABundle: bundle}, logger)
	releases := trackReleases(e)

	body, err := e.Execute(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "secure", string(body))
	assert.Equal(t, 1, hits, "the first attempt fails during the handshake")
	assert.Equal(t, 1, logs.FilterMessage("invalid or no certificate authority found, using bundled information").Len())
	assert.Equal(t, 2, releases.total())
	releases.eachOnce(t)
}

func TestExecutor_CAFallbackStillFails(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("unreachable"))
	}))
	defer srv.Close()

	e := NewExecutor(ExecutorConfig{}, nil)
	releases := trackReleases(e)

	_, err := e.Execute(context.Background(), srv.URL, nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeCACertificate, apiErr.Code)
	assert.Equal(t, ErrorTypeTransport, apiErr.Type)
	assert.NotEmpty(t, apiErr.Message)
	assert.Equal(t, 2, releases.total())
	releases.eachOnce(t)
}

func TestExecutor_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e := NewExecutor(ExecutorConfig{}, nil)
	releases := trackReleases(e)

	_, err := e.Execute(context.Background(), url, Params{{Key: "a", Value: "1"}}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeCouldNotConnect, apiErr.Code)
	assert.Equal(t, ErrorTypeTransport, apiErr.Type)
	assert.Contains(t, apiErr.Error(), "TransportException")
	assert.Equal(t, 1, releases.total())
}

func TestExecutor_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	e := NewExecutor(ExecutorConfig{Timeout: 50 * time.Millisecond}, nil)
	_, err := e.Execute(context.Background(), srv.URL, nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeTimeout, apiErr.Code)
}

func TestExecutor_MalformedURL(t *testing.T) {
	e := NewExecutor(ExecutorConfig{}, nil)
	_, err := e.Execute(context.Background(), "://bad", nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeMalformedRequest, apiErr.Code)
}

func TestExecutor_CallerHandleNotReleased(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	e := NewExecutor(ExecutorConfig{}, nil)
	releases := trackReleases(e)
	handle := e.NewHandle(nil)

	body, err := e.Execute(context.Background(), srv.URL, nil, handle)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Zero(t, releases.total())
}
