package descr

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
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/svclabs/swaggersvc/internal/model"
)

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// Delay is the politeness pause between consecutive remote fetches. It
	// throttles the declaration crawl; it is not an ordering mechanism.
	Delay time.Duration
	// Logger receives fetch progress. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithDelay(d time.Duration) Option       { return func(s *Settings) { s.Delay = d } }
func WithLogger(l *slog.Logger) Option       { return func(s *Settings) { s.Logger = l } }

// Loader fetches and parses listing and declaration documents from http(s)
// URLs or local files. Documents are accepted in JSON or YAML.
type Loader struct {
	settings Settings
	client   *http.Client

	mu      sync.Mutex
	fetched bool // a remote fetch already happened; apply Delay before the next
}

// NewLoader constructs a Loader with the given options applied over
// DefaultSettings.
func NewLoader(opts ...Option) *Loader {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Logger == nil {
		settings.Logger = slog.Default()
	}
	return &Loader{
		settings: settings,
		client:   &http.Client{Timeout: settings.HTTPTimeout},
	}
}

// Listing fetches and parses a resource-listing document.
func (l *Loader) Listing(ctx context.Context, input string) (*ResourceListing, error) {
	raw, err := l.fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	var listing ResourceListing
	if err := yaml.Unmarshal(raw, &listing); err != nil {
		return nil, malformed(input, fmt.Sprintf("parse resource listing %s: %v", input, err), err)
	}
	if err := checkVersion(input, listing.SwaggerVersion); err != nil {
		return nil, err
	}
	if len(listing.APIs) == 0 {
		return nil, malformed(input, fmt.Sprintf("resource listing %s declares no apis", input), nil)
	}
	return &listing, nil
}

// Declaration fetches and parses one declaration document.
func (l *Loader) Declaration(ctx context.Context, input string) (*Declaration, error) {
	raw, err := l.fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	var decl Declaration
	if err := yaml.Unmarshal(raw, &decl); err != nil {
		return nil, malformed(input, fmt.Sprintf("parse declaration %s: %v", input, err), err)
	}
	if err := checkVersion(input, decl.SwaggerVersion); err != nil {
		return nil, err
	}
	return &decl, nil
}

// Resolve merges a declaration path against the listing's own location so
// relative declaration paths fetch from the right host.
func (l *Loader) Resolve(path, base string) string {
	return model.MergeURL(path, base)
}

// checkVersion rejects unsupported description format versions. An absent
// version is tolerated; the format's early emitters often omitted it.
func checkVersion(location, version string) error {
	version = strings.TrimSpace(version)
	if version == "" || strings.HasPrefix(version, "1.") {
		return nil
	}
	return malformed(location, fmt.Sprintf("%s: unsupported description version %q (expected 1.x)", location, version), nil)
}

func malformed(location, msg string, cause error) error {
	return &model.BuildError{Code: model.MalformedSource, Message: msg, Document: location, Cause: cause}
}

// fetch reads input from a local file or over http(s), applying the
// politeness delay between consecutive remote requests and retrying
// transient failures with exponential backoff.
func (l *Loader) fetch(ctx context.Context, input string) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, malformed(input, "descr: input is empty", nil)
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""
	if !isURL {
		raw, err := os.ReadFile(input)
		if err != nil {
			return nil, malformed(input, fmt.Sprintf("read file %s: %v", input, err), err)
		}
		return raw, nil
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, malformed(input, fmt.Sprintf("descr: unsupported URL scheme %q (only http/https allowed)", scheme), nil)
	}

	if err := l.throttle(ctx); err != nil {
		return nil, err
	}
	l.settings.Logger.Debug("fetching description document", slog.String("url", input))
	raw, err := l.fetchWithRetry(ctx, input)
	if err != nil {
		return nil, malformed(input, fmt.Sprintf("fetch %s: %v", input, err), err)
	}
	return raw, nil
}

func (l *Loader) throttle(ctx context.Context) error {
	l.mu.Lock()
	first := !l.fetched
	l.fetched = true
	l.mu.Unlock()
	if first || l.settings.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.settings.Delay):
		return nil
	}
}

func (l *Loader) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	backoff := l.settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := l.settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode < 300:
			data, rerr := io.ReadAll(resp.Body)
			resp.Body.Close()
			return data, rerr
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		l.settings.Logger.Debug("retrying fetch",
			slog.String("url", rawURL),
			slog.Int("attempt", i+1),
			slog.Any("error", lastErr))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}
