package facebook

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	_ "embed"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

//go:embed fb_ca_chain_bundle.crt
var bundledCAChain []byte

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "fbsession-go/1.0"
)

// ExecutorConfig tunes the transport. Zero values fall back to defaults.
type ExecutorConfig struct {
	Timeout   time.Duration
	UserAgent string
	// FileUploadSupport sends multipart bodies so File params upload their files.
	FileUploadSupport bool
	// CABundle is the PEM bundle trusted after a CA validation failure.
	// Defaults to the bundled Facebook chain.
	CABundle []byte
}

// Executor performs uncached POST requests against the Graph API.
type Executor struct {
	cfg     ExecutorConfig
	logger  *zap.Logger
	release func(*http.Client)
}

func NewExecutor(cfg ExecutorConfig, logger *zap.Logger) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if len(cfg.CABundle) == 0 {
		cfg.CABundle = bundledCAChain
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		cfg:    cfg,
		logger: logger,
		release: func(c *http.Client) {
			c.CloseIdleConnections()
		},
	}
}

// NewHandle builds a transport handle. A nil roots pool uses the system roots.
func (e *Executor) NewHandle(roots *x509.CertPool) *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			RootCAs:    roots,
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		e.logger.Warn("http2 not configured", zap.Error(err))
	}
	return &http.Client{Transport: tr, Timeout: e.cfg.Timeout}
}

// Execute POSTs params to url and returns the raw response body whatever the
// HTTP status. When handle is nil a handle is created and released before
// returning. A CA validation failure is retried once against the bundled CA file.
func (e *Executor) Execute(ctx context.Context, url string, params Params, handle *http.Client) ([]byte, error) {
	if handle == nil {
		handle = e.NewHandle(nil)
		defer e.release(handle)
	}

	body, err := e.do(ctx, handle, url, params)
	if err != nil && err.Code == CodeCACertificate {
		e.logger.Warn("invalid or no certificate authority found, using bundled information",
			zap.String("url", url))

		retry, berr := e.bundledHandle(handle)
		if berr != nil {
			e.logger.Error("bundled CA file unusable", zap.Error(berr))
			return nil, err
		}
		defer e.release(retry)

		body, err = e.do(ctx, retry, url, params)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (e *Executor) do(ctx context.Context, handle *http.Client, url string, params Params) ([]byte, *APIError) {
	req, apiErr := e.newRequest(ctx, url, params)
	if apiErr != nil {
		return nil, apiErr
	}

	resp, err := handle.Do(req)
	if err != nil {
		return nil, newTransportError(classifyTransportError(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(classifyTransportError(err), err)
	}
	return body, nil
}

func (e *Executor) newRequest(ctx context.Context, url string, params Params) (*http.Request, *APIError) {
	var (
		body        io.Reader
		contentType string
	)
	if e.cfg.FileUploadSupport {
		buf, ct, err := encodeMultipart(params)
		if err != nil {
			return nil, newTransportError(CodeUploadRead, err)
		}
		body, contentType = buf, ct
	} else {
		if params.HasFiles() {
			return nil, newTransportError(CodeMalformedRequest, ErrFileUploadDisabled)
		}
		body, contentType = strings.NewReader(params.Encode()), "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, newTransportError(CodeMalformedRequest, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	// An empty Expect header keeps servers from waiting on 100-continue.
	req.Header.Set("Expect", "")
	return req, nil
}

func (e *Executor) bundledHandle(orig *http.Client) (*http.Client, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(e.cfg.CABundle) {
		return nil, ErrNoCABundle
	}
	h := e.NewHandle(pool)
	h.Timeout = orig.Timeout
	h.Jar = orig.Jar
	h.CheckRedirect = orig.CheckRedirect
	return h, nil
}

func encodeMultipart(params Params) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range params {
		if p.File != "" {
			if err := attachFile(w, p.Key, p.File); err != nil {
				return nil, "", err
			}
			continue
		}
		if err := w.WriteField(p.Key, p.Value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func classifyTransportError(err error) int {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalidCert      x509.CertificateInvalidError
		recordHeader     tls.RecordHeaderError
		dnsErr           *net.DNSError
		opErr            *net.OpError
		netErr           net.Error
	)
	switch {
	case errors.As(err, &unknownAuthority):
		return CodeCACertificate
	case errors.As(err, &hostname), errors.As(err, &invalidCert):
		return CodePeerFailedVerify
	case errors.As(err, &recordHeader):
		return CodeSSLConnect
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return CodeTimeout
	case errors.As(err, &dnsErr):
		return CodeCouldNotResolve
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return CodeCouldNotConnect
	default:
		return CodeReceive
	}
}
