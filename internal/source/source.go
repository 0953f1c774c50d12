// Package source retrieves joined position rows from the upstream system of
// record, either from a JSON snapshot on disk or over HTTP.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hedgedesk/hedgebook/internal/model"
)

var (
	ErrNoRollup       = errors.New("source: upstream does not serve a rollup")
	ErrUpstreamStatus = errors.New("source: unexpected upstream status")
)

// Source yields the current position rows.
type Source interface {
	Positions(ctx context.Context) ([]model.Position, error)
}

// RollupSource is implemented by sources that also serve the upstream's
// precomputed rollup.
type RollupSource interface {
	Rollup(ctx context.Context) (*model.RollupResponse, error)
}

// ModTimer is implemented by sources backed by a file on disk.
type ModTimer interface {
	ModTime() (time.Time, error)
}

// New picks an HTTP source for http(s) locations and a file source
// otherwise.
func New(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, timeout)
	}
	return NewFileSource(location)
}

// FileSource reads a JSON array of rows from disk on every call.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by a JSON snapshot.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Positions(_ context.Context) ([]model.Position, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open positions %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode positions %s: %w", s.path, err)
	}
	return rows, nil
}

// ModTime reports when the snapshot was last written.
func (s *FileSource) ModTime() (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Decode reads a JSON array of position rows.
func Decode(r io.Reader) ([]model.Position, error) {
	var rows []model.Position
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// HTTPSource fetches rows and the precomputed rollup from the upstream
// service.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a source for the upstream service at baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Positions(ctx context.Context) ([]model.Position, error) {
	var rows []model.Position
	if err := s.getJSON(ctx, "/api/agg-table", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *HTTPSource) Rollup(ctx context.Context) (*model.RollupResponse, error) {
	var resp model.RollupResponse
	if err := s.getJSON(ctx, "/api/rollup", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUpstreamStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
