package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/lox/skyline/internal/httputil"
	"github.com/lox/skyline/internal/metrics"
	"github.com/lox/skyline/internal/store"
)

const (
	defaultTable      = "structures"
	defaultMaxElapsed = 2 * time.Minute
	ftpTimeout        = 30 * time.Second
)

// Loader resolves a source locator and loads it once.
//
// Supported locators:
//
//	path/to/file.csv
//	https://host/file.csv
//	ftp://[user:pass@]host[:port]/path/file.csv
//	sqlite://path/to/db.sqlite?table=structures
type Loader struct {
	client     *http.Client
	maxElapsed time.Duration
}

func NewLoader() *Loader {
	return &Loader{
		client:     httputil.NewClient(0),
		maxElapsed: defaultMaxElapsed,
	}
}

// SetMaxElapsed bounds how long HTTP fetches keep retrying.
func (l *Loader) SetMaxElapsed(d time.Duration) {
	l.maxElapsed = d
}

// Open loads the dataset named by locator with a default Loader.
func Open(ctx context.Context, locator string) (*Dataset, error) {
	return NewLoader().Open(ctx, locator)
}

func (l *Loader) Open(ctx context.Context, locator string) (*Dataset, error) {
	kind := sourceKind(locator)

	var (
		ds  *Dataset
		err error
	)
	switch kind {
	case "http":
		ds, err = l.openHTTP(ctx, locator)
	case "ftp":
		ds, err = l.openFTP(ctx, locator)
	case "sqlite":
		ds, err = l.openSQLite(ctx, locator)
	default:
		ds, err = openFile(locator)
	}

	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues(kind, "error").Inc()
		var le *LoadError
		if !errors.As(err, &le) {
			err = &LoadError{Err: err}
		}
		return nil, err
	}

	metrics.DatasetLoadsTotal.WithLabelValues(kind, "ok").Inc()
	metrics.StructuresLoaded.Set(float64(ds.Len()))
	log.Printf("dataset: loaded %d structures from %s", ds.Len(), redact(locator))
	return ds, nil
}

func sourceKind(locator string) string {
	lower := strings.ToLower(locator)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return "http"
	case strings.HasPrefix(lower, "ftp://"):
		return "ftp"
	case strings.HasPrefix(lower, "sqlite://"):
		return "sqlite"
	}
	return "file"
}

func openFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (l *Loader) openHTTP(ctx context.Context, locator string) (*Dataset, error) {
	start := time.Now()
	defer func() {
		metrics.SourceFetchLatency.WithLabelValues("http").Observe(time.Since(start).Seconds())
	}()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch: %w", err))
		}
		resp, err := l.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			log.Printf("dataset: fetch %s: status %d, retrying", redact(locator), resp.StatusCode)
			return fmt.Errorf("fetch: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("fetch: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = l.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(body))
}

func (l *Loader) openFTP(ctx context.Context, locator string) (*Dataset, error) {
	start := time.Now()
	defer func() {
		metrics.SourceFetchLatency.WithLabelValues("ftp").Observe(time.Since(start).Seconds())
	}()

	addr, user, pass, path, err := parseFTPLocator(locator)
	if err != nil {
		return nil, err
	}

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	return Load(resp)
}

// parseFTPLocator splits an ftp:// locator into dial address, credentials and path.
// Without credentials the login is anonymous; without a port it is 21.
func parseFTPLocator(locator string) (addr, user, pass, path string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", "", "", fmt.Errorf("parse ftp locator: %w", err)
	}
	if u.Hostname() == "" || u.Path == "" || u.Path == "/" {
		return "", "", "", "", fmt.Errorf("parse ftp locator: need host and file path")
	}

	addr = u.Host
	if u.Port() == "" {
		addr = u.Hostname() + ":21"
	}
	user, pass = "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	return addr, user, pass, u.Path, nil
}

func (l *Loader) openSQLite(ctx context.Context, locator string) (*Dataset, error) {
	path, table, err := parseSQLiteLocator(locator)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	t, err := st.ReadTable(ctx, table)
	if err != nil {
		return nil, err
	}
	return Parse(t.Header, t.Rows)
}

// parseSQLiteLocator handles sqlite://path?table=name. The table defaults to "structures".
func parseSQLiteLocator(locator string) (path, table string, err error) {
	rest := locator[len("sqlite://"):]
	path, query, _ := strings.Cut(rest, "?")
	if path == "" {
		return "", "", fmt.Errorf("parse sqlite locator: missing database path")
	}

	table = defaultTable
	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite locator: %w", err)
		}
		if t := values.Get("table"); t != "" {
			table = t
		}
	}
	return path, table, nil
}

// redact hides URL credentials before a locator reaches the log.
func redact(locator string) string {
	u, err := url.Parse(locator)
	if err != nil || u.User == nil {
		return locator
	}
	return u.Redacted()
}
