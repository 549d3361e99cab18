package client

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bingx/internal/metrics"
	"bingx/pkg/apierr"
	"bingx/pkg/cache"
	"bingx/pkg/errors"
	"bingx/pkg/logger"
	"bingx/pkg/transport"
)

// doFunc performs one signed round trip. Both session kinds are reduced to it
// so the pipeline below is shared by Execute and ExecuteAsync.
type doFunc func(ctx context.Context, method, rawURL string, headers map[string]string) (map[string]any, error)

func (c *Client) run(ctx context.Context, req Request, do doFunc) (cache.Payload, error) {
	method := normalizeMethod(req.Method)
	path := normalizePath(req.Path)

	log := c.log.With("request_id", uuid.NewString(), "method", method, "path", path)

	switch c.State() {
	case transport.StateUnopened:
		return nil, transport.ErrSessionNotOpen
	case transport.StateClosed:
		return nil, transport.ErrSessionClosed
	}

	if req.UseCache && method != http.MethodGet && !c.cfg.UnsafeCache {
		return nil, errors.Wrapf(ErrUnsafeCache, "%s %s", method, path)
	}

	signed := c.signer.SignWith(req.Params, req.SignFunc)
	rawURL := c.cfg.BaseURL + path + "?" + signed.Query()
	headers := c.headers(req.Headers)

	st, key := c.cacheFor(ctx, req, method, path, log)
	if st != nil {
		log.Debugw("checking cache", "key", key)
		cached, found, err := st.get(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "cache lookup %s", key)
		}
		if found {
			log.Debug("cache hit")
			return cached, nil
		}
		log.Debug("cache miss")
	}

	start := time.Now()
	payload, err := do(ctx, method, rawURL, headers)
	if err != nil {
		metrics.RecordAPICall(method, path, time.Since(start), "transport")
		log.Debugw("transport failure", "error", err)
		return nil, err
	}

	if err := apierr.Classify(payload); err != nil {
		kind, _ := apierr.KindOf(err)
		metrics.RecordAPICall(method, path, time.Since(start), kind.String())
		log.Debugw("exchange rejected request", "error", err, "kind", kind.String())
		return nil, err
	}
	metrics.RecordAPICall(method, path, time.Since(start), "")

	if st != nil {
		log.Debugw("saving response to cache", "key", key, "ttl", c.cfg.DefaultCacheTTL)
		if err := st.set(ctx, key, payload, c.cfg.DefaultCacheTTL); err != nil {
			return nil, errors.Wrapf(err, "cache store %s", key)
		}
	}

	return payload, nil
}

// cacheFor resolves the store and key for a cacheable request. The key is
// derived from the caller's parameters, before timestamp and signature exist.
func (c *Client) cacheFor(ctx context.Context, req Request, method, path string, log *logger.Logger) (store, string) {
	if !req.UseCache {
		return nil, ""
	}

	if c.store == nil {
		c.diagnose(ctx, log, Diagnostic{
			Kind:    DiagnosticCacheUnavailable,
			Method:  method,
			Path:    path,
			Message: "caching requested but no cache is configured, proceeding uncached",
		})
		return nil, ""
	}

	if c.store.degraded() {
		c.diagnose(ctx, log, Diagnostic{
			Kind:    DiagnosticCrossModeCache,
			Method:  method,
			Path:    path,
			Message: "cache belongs to the other execution mode, cache operations run synchronously",
		})
	}

	return c.store, cache.Key(method, path, req.Params, req.CacheDiscriminator)
}

func (c *Client) headers(extra map[string]string) map[string]string {
	h := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		h[k] = v
	}
	h[APIKeyHeader] = c.cfg.APIKey
	return h
}

func (c *Client) diagnose(ctx context.Context, log *logger.Logger, d Diagnostic) {
	log.Message(ctx, errors.LevelWarning, d.Message, map[string]string{
		"diagnostic": string(d.Kind),
		"method":     d.Method,
		"path":       d.Path,
	})
	metrics.RecordCacheDegraded(string(d.Kind))
	if c.cfg.OnDiagnostic != nil {
		c.cfg.OnDiagnostic(d)
	}
}
