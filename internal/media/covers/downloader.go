// Package covers fetches remote cover images so they can be imported into
// image storage.
package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/media/images"
)

const (
	// downloadTimeout is the maximum time for a cover download.
	downloadTimeout = 30 * time.Second
	// dialTimeout bounds connection setup to the remote host.
	dialTimeout = 10 * time.Second
	// maxRedirects is the number of redirects a download may follow.
	maxRedirects = 5
)

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("cover URL must be an absolute http or https URL")
	// ErrTooLarge is returned when the remote image exceeds images.MaxUploadSize.
	ErrTooLarge = errors.New("cover image too large")
	// ErrPrivateAddress is returned when the URL, or a redirect it leads to,
	// resolves to a loopback, private, link-local or otherwise non-public
	// address.
	ErrPrivateAddress = errors.New("cover URL must point to a public address")
	// ErrTooManyRedirects is returned after maxRedirects hops.
	ErrTooManyRedirects = errors.New("cover URL redirected too many times")
)

// Downloader fetches cover images over HTTP.
type Downloader struct {
	httpClient   *http.Client
	logger       *slog.Logger
	maxSize      int64
	allowPrivate bool
}

// Option configures a Downloader.
type Option func(*Downloader)

// AllowPrivateNetworks lets the downloader reach loopback and private
// addresses. Only local development and tests should need it.
func AllowPrivateNetworks() Option {
	return func(d *Downloader) {
		d.allowPrivate = true
	}
}

// NewDownloader creates a new cover downloader.
func NewDownloader(logger *slog.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		logger:  logger,
		maxSize: images.MaxUploadSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	// The address check runs on every dial, after DNS resolution, so it
	// also covers redirects and names that resolve to internal hosts.
	dialer := &net.Dialer{
		Timeout: dialTimeout,
		Control: d.checkDial,
	}
	d.httpClient = &http.Client{
		Timeout: downloadTimeout,
		Transport: &http.Transport{
			// No proxy: the dial check must see the real destination.
			Proxy:                 nil,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: downloadTimeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return ErrInvalidURL
			}
			return nil
		},
	}
	return d
}

// checkDial rejects connections to non-public addresses.
func (d *Downloader) checkDial(_, address string, _ syscall.RawConn) error {
	if d.allowPrivate {
		return nil
	}
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("parse dial address %q: %w", address, err)
	}
	if !isPublic(ap.Addr()) {
		return ErrPrivateAddress
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}

// Fetch downloads the image at rawURL and returns its bytes.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	// Literal addresses fail fast without a dial.
	if addr, err := netip.ParseAddr(u.Hostname()); err == nil && !d.allowPrivate && !isPublic(addr) {
		return nil, ErrPrivateAddress
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}
	if resp.ContentLength > d.maxSize {
		return nil, ErrTooLarge
	}

	// Read one byte past the limit to tell "exactly max" from "too big".
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	if int64(len(data)) > d.maxSize {
		return nil, ErrTooLarge
	}

	d.logger.Info("downloaded cover", "host", u.Host, "size", len(data))
	return data, nil
}
