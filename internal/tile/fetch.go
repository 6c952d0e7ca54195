package tile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultLatestURL reports the timestamp of the most recent frame.
	DefaultLatestURL = "https://himawari8-dl.nict.go.jp/himawari8/img/D531106/latest.json"
	// DefaultTileBase is the root under which tiles are served as
	// {level}d/550/{yyyy/mm/dd/HHMMSS}_{x}_{y}.png.
	DefaultTileBase = "https://himawari8.nict.go.jp/img/D531106"

	// noImageBytes is the exact size of the "No Image" placeholder PNG the
	// service returns for timestamps it has no data for.
	noImageBytes = 2867

	timestampLayout = "2006-01-02 15:04:05"
	pathLayout      = "2006/01/02/150405"
)

// ErrNoImage reports that the service answered with its placeholder tile,
// meaning no frame exists for the requested timestamp.
var ErrNoImage = errors.New("tile: no image available for the requested timestamp")

// Client fetches frame metadata and tiles over HTTP with rate limiting and
// bounded retries.
type Client struct {
	HTTP       *http.Client
	Limiter    *rate.Limiter
	LatestURL  string
	TileBase   string
	UserAgent  string
	MaxRetries int
}

// NewClient builds a Client with the production endpoints.
func NewClient(timeout time.Duration, rps float64, burst int) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		Limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		LatestURL:  DefaultLatestURL,
		TileBase:   DefaultTileBase,
		UserAgent:  "himawaripy/3.0",
		MaxRetries: 3,
	}
}

// Latest returns the capture time of the most recent published frame, in UTC.
func (c *Client) Latest(ctx context.Context) (time.Time, error) {
	body, err := c.get(ctx, c.LatestURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetching latest timestamp: %w", err)
	}
	var payload struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return time.Time{}, fmt.Errorf("parsing latest timestamp: %w", err)
	}
	ts, err := time.ParseInLocation(timestampLayout, payload.Date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing latest timestamp %q: %w", payload.Date, err)
	}
	return ts, nil
}

// Fetch downloads and decodes a single tile of the frame captured at ts.
// The placeholder body the service returns for missing frames yields
// ErrNoImage.
func (c *Client) Fetch(ctx context.Context, level int, ts time.Time, x, y int) (image.Image, error) {
	url := fmt.Sprintf("%s/%dd/%d/%s_%d_%d.png", c.TileBase, level, Size, ts.Format(pathLayout), x, y)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching tile (%d,%d): %w", x, y, err)
	}
	if len(body) == noImageBytes {
		return nil, fmt.Errorf("tile (%d,%d) at %s: %w", x, y, ts.Format(timestampLayout), ErrNoImage)
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding tile (%d,%d): %w", x, y, err)
	}
	return img, nil
}

// get performs a rate-limited GET with up to MaxRetries attempts and a
// linearly growing backoff between them.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(200+attempt*200) * time.Millisecond):
			}
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}
