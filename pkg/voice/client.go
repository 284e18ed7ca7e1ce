package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultSyncURL is the synchronous clone endpoint.
	DefaultSyncURL = "https://aivoiceclonefree.com/api/instant/clone-sync"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default maximum number of retries.
	DefaultMaxRetries = 2
)

// Client is a voice-clone API client.
type Client struct {
	apiKey     string
	syncURL    string
	uploadURL  string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

// Option is a function that configures the client.
type Option func(*Client)

// WithSyncURL sets the clone-sync endpoint.
func WithSyncURL(u string) Option {
	return func(c *Client) {
		c.syncURL = u
	}
}

// WithUploadURL sets the reference audio upload endpoint.
func WithUploadURL(u string) Option {
	return func(c *Client) {
		c.uploadURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetry sets the maximum number of retries for transient errors and the
// first backoff interval, which doubles on every retry.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// NewClient creates a new voice-clone client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		syncURL:    DefaultSyncURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// CloneRequest is a synthesis request.
type CloneRequest struct {
	// Text to speak.
	Text string

	// AudioURL is the reference recording whose voice is cloned.
	AudioURL string

	// Ratios default to 1 when zero.
	Speed  float64
	Pitch  float64
	Volume float64
}

func ratio(v float64) string {
	if v == 0 {
		v = 1
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CloneSync synthesizes req.Text and returns the URL of the generated audio.
func (c *Client) CloneSync(ctx context.Context, req *CloneRequest) (string, error) {
	if req.AudioURL == "" {
		return "", ErrNoVoice
	}
	form := url.Values{
		"audio_url":    {req.AudioURL},
		"text":         {req.Text},
		"api_key":      {c.apiKey},
		"type":         {"2"}, // respond with a URL
		"speed_ratio":  {ratio(req.Speed)},
		"pitch_ratio":  {ratio(req.Pitch)},
		"volume_ratio": {ratio(req.Volume)},
	}
	body := []byte(form.Encode())

	var out string
	err := c.retry(ctx, func() error {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.syncURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("voice: create request: %w", err)
		}
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		out, err = c.doURL(r)
		return err
	})
	return out, err
}

// Upload sends a reference recording and returns its URL.
func (c *Client) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	if c.uploadURL == "" {
		return "", fmt.Errorf("voice: upload url not configured")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("voice: create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("voice: copy file: %w", err)
	}
	if err := w.WriteField("api_key", c.apiKey); err != nil {
		return "", fmt.Errorf("voice: write field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("voice: close writer: %w", err)
	}
	body := buf.Bytes()

	var out string
	err = c.retry(ctx, func() error {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("voice: create request: %w", err)
		}
		r.Header.Set("Content-Type", w.FormDataContentType())
		out, err = c.doURL(r)
		return err
	})
	return out, err
}

// Download writes the resource at u to w. Only the request is retried; a
// failure while copying the body is returned as is.
func (c *Client) Download(ctx context.Context, u string, w io.Writer) error {
	var resp *http.Response
	err := c.retry(ctx, func() error {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("voice: create request: %w", err)
		}
		resp, err = c.httpClient.Do(r)
		if err != nil {
			return fmt.Errorf("voice: do request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return &Error{HTTPStatus: resp.StatusCode, Message: snippet(raw)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("voice: download: %w", err)
	}
	return nil
}

// doURL performs r and extracts the audio URL from the JSON response.
func (c *Client) doURL(r *http.Request) (string, error) {
	r.Header.Set("User-Agent", "echomemo/1.0")
	resp, err := c.httpClient.Do(r)
	if err != nil {
		return "", fmt.Errorf("voice: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("voice: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{HTTPStatus: resp.StatusCode, Message: snippet(raw)}
	}

	body, err := decodeBody(raw)
	if err != nil {
		return "", err
	}
	u := extractURL(body)
	if u == "" {
		return "", &Error{HTTPStatus: resp.StatusCode, Message: message(body, raw)}
	}
	return u, nil
}

// retry runs fn, retrying retryable failures with exponential backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff << uint(attempt-1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if apiErr, ok := AsError(err); ok && !apiErr.Retryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}
