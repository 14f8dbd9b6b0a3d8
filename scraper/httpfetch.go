package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	tls2 "github.com/refraction-networking/utls"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps the API response size.
const maxBodyBytes = 10 * 1024 * 1024

// httpFetcher performs HTTP requests with a Chrome TLS fingerprint (utls).
type httpFetcher struct {
	proxy string
}

// newHTTPFetcher creates a new HTTP fetcher. proxy may be empty or an
// http(s) proxy URL.
func newHTTPFetcher(proxy string) *httpFetcher {
	return &httpFetcher{proxy: proxy}
}

// fetch retrieves targetURL and returns the response body.
func (f *httpFetcher) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}
	if f.proxy != "" {
		proxyURL, err := url.Parse(f.proxy)
		if err != nil {
			return nil, fmt.Errorf("httpfetch: bad proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "application/json,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("httpfetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: read body: %w", err)
	}
	return body, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls. ALPN is pinned to http/1.1 because the transport behind a custom
// TLS dialer only speaks HTTP/1.1.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	spec, err := tls2.UTLSIdToSpec(tls2.HelloChrome_Auto)
	if err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("httpfetch: chrome hello spec: %w", err)
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls2.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{ServerName: host}, tls2.HelloCustom)
	if err := tlsConn.ApplyPreset(&spec); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("httpfetch: apply chrome preset: %w", err)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
