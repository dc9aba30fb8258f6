package crawler

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Default fetcher settings.
const (
	// DefaultTimeout bounds a single fetch including reading the body.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "SiteSearchBot/1.0 (+https://github.com/nao1215/sitesearch)"

	// DefaultReferrer is sent as the Referer header.
	DefaultReferrer = "https://www.google.com"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Fetcher performs single page fetches.
// It is safe for concurrent use.
type Fetcher struct {
	// client is the HTTP client used for every request.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// referrer is the Referer header to send. Empty disables the header.
	referrer string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithReferrer sets the Referer header.
func WithReferrer(referrer string) FetcherOption {
	return func(f *Fetcher) {
		f.referrer = referrer
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// NewHTTPClient returns a client whose timeout covers the whole exchange.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewFetcher creates a Fetcher using client. A nil client gets a default
// one with DefaultTimeout.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}

	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		referrer:    DefaultReferrer,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Document is a successfully fetched page.
type Document struct {
	// URL is the fetched URL.
	URL string

	// Code is the HTTP status of the response.
	Code int

	// Title is the text of the <title> element.
	Title string

	// Content is the rendered <head> followed by the rendered <body>.
	Content string

	// Links are the root-relative paths referenced by anchors, without fragments.
	Links []string
}

// Fetch retrieves pageURL. Every failure is returned as a *FetchError
// carrying the code to store for the page.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Code: CodeUnknown, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if f.referrer != "" {
		req.Header.Set("Referer", f.referrer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Code: ClassifyError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:  pageURL,
			Code: ClassifyStatus(resp.StatusCode),
			Err:  fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode),
		}
	}

	if contentType := resp.Header.Get("Content-Type"); !isDocumentType(contentType) {
		return nil, &FetchError{
			URL:  pageURL,
			Code: http.StatusUnsupportedMediaType,
			Err:  fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Code: ClassifyError(err), Err: err}
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, &FetchError{URL: pageURL, Code: CodeUnknown, Err: ErrEmptyDocument}
	}

	parsed, err := ParseDocument(strings.NewReader(string(body)))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Code: CodeUnknown, Err: err}
	}

	return &Document{
		URL:     pageURL,
		Code:    resp.StatusCode,
		Title:   parsed.Title,
		Content: parsed.Content,
		Links:   parsed.Links,
	}, nil
}

// ClassifyStatus maps a non-2xx HTTP status to the stored page code.
// A 500 is reported as 401 because the sites behind this crawler answer
// authorization failures with an internal error page.
func ClassifyStatus(status int) int {
	switch status {
	case http.StatusUnauthorized, http.StatusInternalServerError:
		return http.StatusUnauthorized
	case http.StatusForbidden:
		return http.StatusForbidden
	case http.StatusNotFound:
		return http.StatusNotFound
	case http.StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return CodeUnknown
	}
}

// ClassifyError maps a transport error to the stored page code.
//
//	unknown host         401
//	connection refused   500
//	TLS handshake        525
//	anything else        -1
func ClassifyError(err error) int {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return http.StatusUnauthorized
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return http.StatusInternalServerError
	}

	if isTLSError(err) {
		return 525
	}

	return CodeUnknown
}

func isTLSError(err error) bool {
	var (
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		invalidCert x509.CertificateInvalidError
		hostnameErr x509.HostnameError
		alertErr    tls.AlertError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &alertErr)
}

// isDocumentType reports whether a Content-Type header denotes HTML or XML.
// A missing header is accepted.
func isDocumentType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/xml", "application/xml":
		return true
	default:
		return strings.HasSuffix(mediaType, "+xml")
	}
}
