// Package translate fills missing translations through a machine
// translation provider. Placeholders are shielded from the provider with
// <ph> tags that the provider is told to ignore.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the DeepL free-tier translate endpoint.
const DefaultEndpoint = "https://api-free.deepl.com/v2/translate"

// StatusQuotaExceeded is DeepL's "quota exceeded" status code.
const StatusQuotaExceeded = 456

var (
	// ErrMissingAPIKey is returned by NewDeepL without a key.
	ErrMissingAPIKey = errors.New("DEEPL_API_KEY is not set")
	// ErrQuotaExceeded is returned once the account quota is used up.
	ErrQuotaExceeded = errors.New("deepl quota exceeded")
	// ErrResultCount is returned when the provider answers with a different
	// number of texts than it was sent.
	ErrResultCount = errors.New("translation count mismatch")
)

// APIError is a non-success HTTP response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("deepl returned status %d: %s", e.Status, body)
}

// Translator translates a batch of texts into a target language. The
// result has one entry per input, in order.
type Translator interface {
	Translate(ctx context.Context, texts []string, target string) ([]string, error)
}

// Options configures a DeepL client.
type Options struct {
	APIKey        string
	Endpoint      string
	SourceLang    string
	BatchSize     int
	MaxRetries    int
	Timeout       time.Duration
	RetryInterval time.Duration
	HTTPClient    *http.Client
	// OnRetry is called before each retry.
	OnRetry func(err error, wait time.Duration)
}

// DeepL is a Translator backed by the DeepL REST API.
type DeepL struct {
	opts   Options
	client *http.Client
}

// NewDeepL returns a DeepL client. Zero options take defaults.
func NewDeepL(opts Options) (*DeepL, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &DeepL{opts: opts, client: client}, nil
}

// Translate sends texts in batches and returns the translations in input
// order.
func (d *DeepL) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += d.opts.BatchSize {
		end := start + d.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := d.translateBatch(ctx, texts[start:end], target)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (d *DeepL) translateBatch(ctx context.Context, texts []string, target string) ([]string, error) {
	form := url.Values{}
	for _, t := range texts {
		form.Add("text", Protect(t))
	}
	form.Set("target_lang", strings.ToUpper(target))
	if d.opts.SourceLang != "" {
		form.Set("source_lang", strings.ToUpper(d.opts.SourceLang))
	}
	form.Set("tag_handling", "xml")
	form.Set("ignore_tags", "ph")

	var body []byte
	op := func() error {
		var err error
		body, err = d.do(ctx, http.MethodPost, d.opts.Endpoint, form)
		return err
	}
	if err := d.retry(ctx, op); err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "translations.#.text").Array()
	if len(results) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrResultCount, len(texts), len(results))
	}

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = Unprotect(r.String())
	}
	return out, nil
}

// Usage is the account's character consumption.
type Usage struct {
	CharacterCount int64 `json:"character_count" yaml:"character_count"`
	CharacterLimit int64 `json:"character_limit" yaml:"character_limit"`
}

// Usage queries the usage endpoint next to the translate endpoint. It also
// serves as an authentication check.
func (d *DeepL) Usage(ctx context.Context) (Usage, error) {
	endpoint := strings.TrimSuffix(d.opts.Endpoint, "/translate") + "/usage"

	var body []byte
	op := func() error {
		var err error
		body, err = d.do(ctx, http.MethodGet, endpoint, nil)
		return err
	}
	if err := d.retry(ctx, op); err != nil {
		return Usage{}, err
	}

	return Usage{
		CharacterCount: gjson.GetBytes(body, "character_count").Int(),
		CharacterLimit: gjson.GetBytes(body, "character_limit").Int(),
	}, nil
}

func (d *DeepL) retry(ctx context.Context, op backoff.Operation) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.opts.RetryInterval
	var b backoff.BackOff = backoff.WithMaxRetries(eb, uint64(d.opts.MaxRetries))
	b = backoff.WithContext(b, ctx)

	return backoff.RetryNotify(op, b, d.opts.OnRetry)
}

// do performs one request. Errors that a retry cannot fix are wrapped
// with backoff.Permanent.
func (d *DeepL) do(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	var payload io.Reader
	if form != nil {
		payload = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.opts.APIKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("deepl request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == StatusQuotaExceeded:
		return nil, backoff.Permanent(ErrQuotaExceeded)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	default:
		return nil, backoff.Permanent(&APIError{Status: resp.StatusCode, Body: string(body)})
	}
}
