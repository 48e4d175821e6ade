package detect

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// maxBodyBytes caps how much of a page is scanned. Tracking snippets load
// in the head; a megabyte is generous.
const maxBodyBytes = 1 << 20

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// ProgressFunc receives one update per input record, in order, including
// records that were skipped for having no website.
type ProgressFunc func(completed, total int, name, status string)

// Detector checks candidate websites for tracking signatures. Detection
// never fails the run: every outcome is a well-formed TrackingResult.
type Detector struct {
	http *http.Client

	// MinDelay is the enforced pause before every page fetch, independent
	// of per-call latency. Third-party sites, so the throttle stays even
	// where the runtime could go faster.
	MinDelay time.Duration

	sleep func(time.Duration)
}

// NewDetector builds a detector with the short page-fetch timeout and a
// Chrome TLS fingerprint. Many small-business sites sit behind CDNs that
// serve different markup to non-browser TLS stacks, and the tracking
// snippets live in the browser-served markup.
func NewDetector(minDelay time.Duration) *Detector {
	return &Detector{
		http: &http.Client{
			Transport: chromeTransport(),
			Timeout:   12 * time.Second,
		},
		MinDelay: minDelay,
		sleep:    time.Sleep,
	}
}

func chromeTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}

			// Chrome TLS spec with HTTP/1.1 ALPN forced
			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, err
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
					break
				}
			}

			tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}
}

// Detect fetches one page and scans it for tracking signatures. Any
// failure (empty URL, transport error, non-200) degrades to false/false
// with the reason recorded; Detect never returns an error.
func (d *Detector) Detect(ctx context.Context, rawURL string) model.TrackingResult {
	if strings.TrimSpace(rawURL) == "" {
		return model.TrackingResult{Error: "no website"}
	}

	u := rawURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.TrackingResult{Error: fmt.Sprintf("invalid url: %v", err)}
	}
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := d.http.Do(req)
	if err != nil {
		return model.TrackingResult{Error: fmt.Sprintf("fetch failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return model.TrackingResult{Error: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.TrackingResult{Error: fmt.Sprintf("reading body: %v", err)}
	}

	return Scan(string(body))
}

// Scan runs the substring check over a page body. Pure; exported so the
// heuristic is testable without a server.
func Scan(body string) model.TrackingResult {
	lower := strings.ToLower(body)
	var res model.TrackingResult
	for _, p := range analyticsPatterns {
		if strings.Contains(lower, p) {
			res.HasAnalytics = true
			break
		}
	}
	for _, p := range pixelPatterns {
		if strings.Contains(lower, p) {
			res.HasPixel = true
			break
		}
	}
	return res
}

// DetectAll checks every record sequentially with the enforced minimum
// delay before each fetch. Records without a website are skipped (no
// fetch, no delay) but still produce a result and a progress update, so
// onProgress fires exactly once per input record. Results align with
// records by index.
func (d *Detector) DetectAll(ctx context.Context, records []model.Business, onProgress ProgressFunc) []model.TrackingResult {
	results := make([]model.TrackingResult, len(records))
	total := len(records)

	for i, rec := range records {
		if rec.Website == "" {
			results[i] = model.TrackingResult{Error: "no website"}
			if onProgress != nil {
				onProgress(i+1, total, rec.Name, "skipped: no website")
			}
			continue
		}

		if d.MinDelay > 0 {
			d.sleep(d.MinDelay)
		}
		results[i] = d.Detect(ctx, rec.Website)
		if onProgress != nil {
			onProgress(i+1, total, rec.Name, humanStatus(results[i]))
		}
	}

	return results
}

func humanStatus(r model.TrackingResult) string {
	switch {
	case r.HasAnalytics && r.HasPixel:
		return "analytics + pixel"
	case r.HasAnalytics:
		return "analytics"
	case r.HasPixel:
		return "pixel"
	case r.Error != "":
		return "error: " + r.Error
	default:
		return "no tracking"
	}
}
