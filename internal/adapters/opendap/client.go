// Package opendap retrieves subsets of remote gridded datasets from an
// OPeNDAP (Hyrax) server as netCDF and exposes their variables.
package opendap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"golang.org/x/net/http/httpproxy"

	"github.com/christuart/ghrsst/internal/extract"
)

// DefaultResponseSuffix asks Hyrax for a netCDF-3 file-out response.
const DefaultResponseSuffix = ".nc"

// PO.DAAC drops connections once a client holds roughly 27 open, so we stay
// well below that.
const maxConnsPerHost = 4

// Client opens OPeNDAP addresses.
type Client struct {
	httpClient     *http.Client
	responseSuffix string
	tempDir        string
}

// NewClient creates a new OPeNDAP client. An empty responseSuffix selects
// DefaultResponseSuffix.
func NewClient(timeout time.Duration, responseSuffix string) *Client {
	if responseSuffix == "" {
		responseSuffix = DefaultResponseSuffix
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFromEnvironment()
	transport.MaxIdleConns = maxConnsPerHost
	transport.MaxIdleConnsPerHost = maxConnsPerHost
	transport.MaxConnsPerHost = maxConnsPerHost
	transport.IdleConnTimeout = 30 * time.Second

	return &Client{
		responseSuffix: responseSuffix,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// proxyFromEnvironment reads HTTP_PROXY, HTTPS_PROXY and NO_PROXY when the
// client is built rather than once per process.
func proxyFromEnvironment() func(*http.Request) (*url.URL, error) {
	proxy := httpproxy.FromEnvironment().ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// Open downloads the subset at address and returns a handle on it. The HTTP
// response is fully consumed and closed before Open returns; the caller must
// Close the handle to release the local copy.
func (c *Client) Open(ctx context.Context, address string) (*Handle, error) {
	target := c.responseURL(address)
	slog.DebugContext(ctx, "requesting subset", "url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("opendap: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnavailableError{Address: address, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		if unavailableStatus(resp.StatusCode) {
			return nil, &UnavailableError{Address: address, StatusCode: resp.StatusCode}
		}
		return nil, &apiError{StatusCode: resp.StatusCode, Message: "subset request failed"}
	}

	path, err := c.download(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnavailableError{Address: address, Err: err}
	}

	group, err := netcdf.Open(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, address, err)
	}

	return &Handle{address: address, group: group, path: path}, nil
}

// OpenSubset satisfies extract.Opener.
func (c *Client) OpenSubset(ctx context.Context, address string) (extract.Subset, error) {
	h, err := c.Open(ctx, address)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// download copies body into a temporary file and returns its path.
func (c *Client) download(body io.Reader) (string, error) {
	f, err := os.CreateTemp(c.tempDir, "ghrsst-*.nc")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// responseURL inserts the response suffix at the end of the path, before
// the constraint expression.
func (c *Client) responseURL(address string) string {
	path, query, hasQuery := strings.Cut(address, "?")
	if !hasQuery {
		return path + c.responseSuffix
	}
	return path + c.responseSuffix + "?" + query
}

func unavailableStatus(code int) bool {
	switch code {
	case http.StatusNotFound, http.StatusGone,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsUnavailable reports whether err means the address could not be served.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}
