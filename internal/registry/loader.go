package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/scriptrt/runtime-core/internal/rterr"
)

// Source is the consumed interface a loader's transport must satisfy,
// narrowed to exactly what the cache needs rather than a concrete HTTP
// client, so tests can substitute a fake without touching the network.
type Source interface {
	FetchPackageInfo(ctx context.Context, name string) (io.ReadCloser, error)
}

// HTTPSource is the default Source backed by net/http against a configured
// registry base URL (JSR_URL, or the npm registry default).
type HTTPSource struct {
	BaseURL string
	Client *http.Client
}

// FetchPackageInfo issues `GET {BaseURL}{name}` (no separator is inserted,
// so BaseURL carries its own trailing slash) and returns the response
// body for the caller to decode.
func (s *HTTPSource) FetchPackageInfo(ctx context.Context, name string) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+name, nil)
	if err != nil {
		return nil, rterr.Wrap(rterr.KindNetwork, "ResolutionError", "building registry request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, rterr.Wrap(rterr.KindNetwork, "ResolutionError", "fetching package info", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, rterr.New(rterr.KindNotFound, rterr.ClassPackageNotExists, "package "+name+" does not exist")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, rterr.New(rterr.KindNetwork, rterr.ClassResolutionError,
			fmt.Sprintf("registry returned status %d for %s", resp.StatusCode, name))
	}
	return resp.Body, nil
}

// Cache is an in-process npm registry info cache: a memoizing, retrying
// wrapper around a Source, so a given package name is fetched at most once
// per process regardless of how many graph edges reference it.
type Cache struct {
	source Source
	log hclog.Logger
	backoff func() backoff.BackOff

	mu sync.Mutex
	infos map[string]*Info
	errs map[string]error
}

// NewCache constructs a Cache with a default exponential backoff policy:
// transient registry failures are retried with backoff before surfacing a
// ResolutionError.
func NewCache(source Source, log hclog.Logger) *Cache {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Cache{
		source: source,
		log: log,
		backoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)
		},
		infos: map[string]*Info{},
		errs: map[string]error{},
	}
}

// Get returns the cached Info for a package name, fetching and retrying on
// first access. A negative result (not-found, or a previously seen
// non-transient error) is itself cached so repeated lookups don't re-issue
// network calls within the same process.
func (c *Cache) Get(ctx context.Context, name string) (*Info, error) {
	c.mu.Lock()
	if info, ok := c.infos[name]; ok {
		c.mu.Unlock()
		return info, nil
	}
	if err, ok := c.errs[name]; ok {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	var info *Info
	op := func() error {
		body, err := c.source.FetchPackageInfo(ctx, name)
		if err != nil {
			if rterr.IsCancelled(err) {
				return backoff.Permanent(err)
			}
			if e, ok := asRuntimeError(err); ok && e.Class == rterr.ClassPackageNotExists {
				return backoff.Permanent(err)
			}
			c.log.Debug("registry fetch failed, retrying", "package", name, "error", err)
			return err
		}
		defer body.Close()
		var parsed Info
		if err := json.NewDecoder(body).Decode(&parsed); err != nil {
			return backoff.Permanent(rterr.Wrap(rterr.KindParse, "ResolutionError", "decoding registry info for "+name, err))
		}
		for _, v := range parsed.Versions {
			v.Name = name
		}
		info = &parsed
		return nil
	}

	err := backoff.Retry(op, c.backoff())

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs[name] = err
		return nil, err
	}
	c.infos[name] = info
	return info, nil
}

func asRuntimeError(err error) (*rterr.Error, bool) {
	re, ok := err.(*rterr.Error)
	return re, ok
}
