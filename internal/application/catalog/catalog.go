// Package catalog holds the set of commands the connected server supports.
//
// The catalog is fetched once per session through the transport and can be
// refreshed on demand. Each fetch builds a complete [Snapshot] before it is
// published, so readers see either the old grammar or the new one, never a
// mixture. Enumerated argument values are resolved per [domain.ArgumentKind]
// and degrade to an empty result on any failure.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// Options tunes timeouts and caching.
type Options struct {
	FetchTimeout  time.Duration
	LookupTimeout time.Duration
	// CacheTTL of zero disables the value cache.
	CacheTTL time.Duration
	Logger   ports.Logger
	// Now is the clock used for cache expiry.
	Now func() time.Time
}

// Catalog owns the current snapshot and the enumerated-value resolvers.
type Catalog struct {
	transport ports.Transport
	current   atomic.Pointer[Snapshot]
	opts      Options
	values    *valueCache
	resolvers map[domain.ArgumentKind]resolver
}

// New returns an empty catalog. Call Refresh to populate it.
func New(transport ports.Transport, opts Options) *Catalog {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = domain.DefaultCatalogTimeout
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = domain.DefaultLookupTimeout
	}
	c := &Catalog{
		transport: transport,
		opts:      opts,
		values:    newValueCache(opts.CacheTTL, opts.Now),
	}
	c.resolvers = map[domain.ArgumentKind]resolver{
		domain.KindBoolean:    staticValues("yes", "no"),
		domain.KindEnumerated: c.choicesOrRemote,
		domain.KindReference:  c.remoteValues,
	}
	c.current.Store(emptySnapshot())
	return c
}

// Load creates a catalog and performs the initial fetch. The error wraps
// domain.ErrCatalogFetchFailed.
func Load(ctx context.Context, transport ports.Transport, session domain.Session, opts Options) (*Catalog, error) {
	c := New(transport, opts)
	if err := c.Refresh(ctx, session); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh refetches the command list and replaces the snapshot wholesale.
// On failure the previous snapshot stays in place.
func (c *Catalog) Refresh(ctx context.Context, session domain.Session) error {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	specs, err := within(ctx, func(ctx context.Context) ([]domain.CommandSpec, error) {
		return c.transport.ListCommands(ctx, session)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCatalogFetchFailed, err)
	}
	snap, err := NewSnapshot(specs)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCatalogFetchFailed, err)
	}
	c.current.Store(snap)
	c.values.clear()
	c.logDebug("catalog loaded", map[string]interface{}{
		"commands": snap.Len(),
		"elapsed":  time.Since(started).Round(time.Millisecond).String(),
	})
	return nil
}

// Snapshot returns the current immutable snapshot. It is never nil.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Lookup finds a command by exact name in the current snapshot.
func (c *Catalog) Lookup(name string) (domain.CommandSpec, bool) {
	return c.Snapshot().Lookup(name)
}

// PrefixSearch searches the current snapshot.
func (c *Catalog) PrefixSearch(prefix string) []domain.CommandSpec {
	return c.Snapshot().PrefixSearch(prefix)
}

// EnumeratedValues returns the legal values for the queried argument that
// start with query.Filter. Lookups are bounded by the lookup timeout and
// any failure yields an empty result.
func (c *Catalog) EnumeratedValues(ctx context.Context, session domain.Session, query domain.ValueQuery) []string {
	resolve, ok := c.resolvers[query.Argument.Kind]
	if !ok {
		return nil
	}
	values := resolve(ctx, session, query)
	return filterPrefix(values, query.Filter)
}

// Source binds the catalog to a session for use by the completion engine.
func (c *Catalog) Source(session domain.Session) *Source {
	return &Source{catalog: c, session: session}
}

// Source is a catalog bound to one session.
type Source struct {
	catalog *Catalog
	session domain.Session
}

// EnumeratedValues implements the completion engine's value source.
func (s *Source) EnumeratedValues(ctx context.Context, query domain.ValueQuery) []string {
	return s.catalog.EnumeratedValues(ctx, s.session, query)
}

// resolver produces the unfiltered candidate values for one argument kind.
type resolver func(ctx context.Context, session domain.Session, query domain.ValueQuery) []string

func staticValues(values ...string) resolver {
	return func(context.Context, domain.Session, domain.ValueQuery) []string {
		return values
	}
}

func (c *Catalog) choicesOrRemote(ctx context.Context, session domain.Session, query domain.ValueQuery) []string {
	if len(query.Argument.Choices) > 0 {
		return query.Argument.Choices
	}
	return c.remoteValues(ctx, session, query)
}

func (c *Catalog) remoteValues(ctx context.Context, session domain.Session, query domain.ValueQuery) []string {
	if !query.Argument.Remote && !query.Command.PromptFunc {
		return nil
	}
	key := cacheKey(query)
	if values, ok := c.values.get(key); ok {
		return values
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.LookupTimeout)
	defer cancel()
	unfiltered := query
	unfiltered.Filter = ""
	values, err := within(ctx, func(ctx context.Context) ([]string, error) {
		return c.transport.ResolveEnumeratedValues(ctx, session, unfiltered)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", domain.ErrCompletionLookupTimeout, err)
		}
		c.logDebug("value lookup failed", map[string]interface{}{
			"command":  query.Command.Name,
			"position": query.Position,
			"error":    err.Error(),
		})
		return nil
	}
	c.values.put(key, values)
	return values
}

func (c *Catalog) logDebug(msg string, fields map[string]interface{}) {
	if c.opts.Logger != nil {
		c.opts.Logger.Debug(msg, fields)
	}
}

// within runs fn and returns as soon as either fn finishes or ctx is done,
// so a transport that ignores cancellation cannot stall the caller.
func within[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := fn(ctx)
		done <- outcome{value: value, err: err}
	}()
	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func filterPrefix(values []string, prefix string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
