package scraper

import (
	"context"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Fetcher performs single HTTP GETs against the source site with browser-like
// headers. All network and anti-bot concerns live here, isolated from parsing.
type Fetcher struct {
	http *resty.Client
}

// NewFetcher builds a fetcher that mimics a desktop Chrome browser. The
// timeout bounds every request; the source site occasionally stalls behind
// its CDN and an unbounded request would hang a whole sync run.
func NewFetcher(timeout time.Duration) (*Fetcher, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", defaultUserAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(timeout)

	return &Fetcher{http: client}, nil
}

// Get fetches one URL and returns the status code and body. Transport errors
// are retried once before giving up; non-200 statuses are returned untouched
// so the caller can decide what they mean (404 ends pagination, everything
// else is a soft page failure).
func (f *Fetcher) Get(ctx context.Context, url string) (int, []byte, error) {
	var resp *resty.Response
	err := retry.Do(
		func() error {
			r, err := f.http.R().SetContext(ctx).Get(url)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}
