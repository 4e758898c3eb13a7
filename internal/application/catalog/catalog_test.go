package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerebrum/bofh-go/internal/domain"
)

var session = domain.Session{ID: "sess-1", User: "bofh"}

func sampleCommands() []domain.CommandSpec {
	return []domain.CommandSpec{
		{Name: "user_delete", Group: "user", Subcommand: "delete", Args: []domain.ArgumentSpec{
			{Name: "account-name", Type: "accountName", Kind: domain.KindReference, Remote: true},
		}},
		{Name: "group_list", Group: "group", Subcommand: "list", Args: []domain.ArgumentSpec{
			{Name: "group-name", Type: "groupName", Kind: domain.KindReference, Remote: true},
		}},
		{Name: "user_create", Group: "user", Subcommand: "create", PromptFunc: true, Args: []domain.ArgumentSpec{
			{Name: "account-name", Kind: domain.KindEnumerated},
		}},
		{Name: "user_info", Group: "user", Subcommand: "info"},
	}
}

type stubTransport struct {
	mu       sync.Mutex
	commands []domain.CommandSpec
	err      error
	block    bool
	values   []string
	valueErr error
	lookups  int
}

func (s *stubTransport) Connect(context.Context, domain.Credentials) (domain.Session, error) {
	return session, nil
}

func (s *stubTransport) ListCommands(ctx context.Context, _ domain.Session) ([]domain.CommandSpec, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.commands, s.err
}

func (s *stubTransport) ResolveEnumeratedValues(ctx context.Context, _ domain.Session, _ domain.ValueQuery) ([]string, error) {
	s.mu.Lock()
	s.lookups++
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.values, s.valueErr
}

func (s *stubTransport) Invoke(context.Context, domain.Session, string, []string) (domain.Result, error) {
	return domain.Result{}, nil
}

func (s *stubTransport) Help(context.Context, domain.Session, ...string) (string, error) {
	return "", nil
}

func (s *stubTransport) Close(context.Context, domain.Session) error { return nil }

func (s *stubTransport) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

func names(specs []domain.CommandSpec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Name)
	}
	return out
}

func TestPrefixSearchSortedAndIdempotent(t *testing.T) {
	snap, err := NewSnapshot(sampleCommands())
	require.NoError(t, err)

	first := names(snap.PrefixSearch("us"))
	assert.Equal(t, []string{"user_create", "user_delete", "user_info"}, first)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, names(snap.PrefixSearch("us")))
	}
	assert.Equal(t, []string{"group_list", "user_create", "user_delete", "user_info"}, names(snap.PrefixSearch("")))
	assert.Empty(t, snap.PrefixSearch("zz"))
}

func TestPrefixSearchMatchesExactlyTheStartingSubset(t *testing.T) {
	snap, err := NewSnapshot(sampleCommands())
	require.NoError(t, err)

	for _, prefix := range []string{"", "g", "group_", "user_", "user_c", "user_create", "user_created", "x"} {
		var want []string
		for _, name := range snap.Names() {
			if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
				want = append(want, name)
			}
		}
		assert.Equal(t, want, snap.PrefixNames(prefix), "prefix %q", prefix)
	}
}

func TestNewSnapshotRejectsDuplicates(t *testing.T) {
	_, err := NewSnapshot([]domain.CommandSpec{{Name: "user_info"}, {Name: "user_info"}})
	require.Error(t, err)

	_, err = NewSnapshot([]domain.CommandSpec{{Name: " "}})
	require.Error(t, err)
}

func TestCommandsKeepInsertionOrder(t *testing.T) {
	snap, err := NewSnapshot(sampleCommands())
	require.NoError(t, err)
	assert.Equal(t, []string{"user_delete", "group_list", "user_create", "user_info"}, names(snap.Commands()))
}

func TestResolve(t *testing.T) {
	snap, err := NewSnapshot(sampleCommands())
	require.NoError(t, err)

	res, err := snap.Resolve([]string{"user_info", "alice"})
	require.NoError(t, err)
	assert.Equal(t, "user_info", res.Command.Name)
	assert.Equal(t, []string{"alice"}, res.Args)

	res, err = snap.Resolve([]string{"user", "create", "alice"})
	require.NoError(t, err)
	assert.Equal(t, "user_create", res.Command.Name)
	assert.Equal(t, []string{"alice"}, res.Args)

	res, err = snap.Resolve([]string{"gr", "l"})
	require.NoError(t, err)
	assert.Equal(t, "group_list", res.Command.Name)

	_, err = snap.Resolve([]string{"user"})
	var incomplete *IncompleteCommandError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"create", "delete", "info"}, incomplete.Subcommands)

	_, err = snap.Resolve([]string{"frobnicate"})
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)

	_, err = snap.Resolve([]string{"user", "xyz"})
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
}

func TestLoadFailsOnTimeout(t *testing.T) {
	transport := &stubTransport{block: true}
	_, err := Load(context.Background(), transport, session, Options{FetchTimeout: 20 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCatalogFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	transport := &stubTransport{commands: sampleCommands()}
	cat, err := Load(context.Background(), transport, session, Options{})
	require.NoError(t, err)
	require.Equal(t, 4, cat.Snapshot().Len())

	transport.commands = []domain.CommandSpec{{Name: "a"}, {Name: "a"}}
	err = cat.Refresh(context.Background(), session)
	assert.ErrorIs(t, err, domain.ErrCatalogFetchFailed)
	assert.Equal(t, 4, cat.Snapshot().Len())

	transport.commands = nil
	transport.err = errors.New("connection reset")
	assert.Error(t, cat.Refresh(context.Background(), session))
	_, ok := cat.Lookup("user_info")
	assert.True(t, ok)
}

func TestRefreshReplacesWholesale(t *testing.T) {
	transport := &stubTransport{commands: sampleCommands()}
	cat, err := Load(context.Background(), transport, session, Options{})
	require.NoError(t, err)

	old := cat.Snapshot()
	transport.commands = []domain.CommandSpec{{Name: "misc_hello"}}
	require.NoError(t, cat.Refresh(context.Background(), session))

	assert.Equal(t, 4, old.Len(), "old snapshot is immutable")
	assert.Equal(t, []string{"misc_hello"}, cat.Snapshot().Names())
}

func TestEnumeratedValuesByKind(t *testing.T) {
	transport := &stubTransport{commands: sampleCommands(), values: []string{"alice", "albert", "bob", "alice"}}
	cat := New(transport, Options{})
	spec := sampleCommands()[0]

	boolean := domain.ValueQuery{Command: spec, Argument: domain.ArgumentSpec{Kind: domain.KindBoolean}, Filter: "y"}
	assert.Equal(t, []string{"yes"}, cat.EnumeratedValues(context.Background(), session, boolean))

	choices := domain.ValueQuery{Command: spec, Argument: domain.ArgumentSpec{Kind: domain.KindEnumerated, Choices: []string{"posix", "nis", "ad"}}, Filter: "p"}
	assert.Equal(t, []string{"posix"}, cat.EnumeratedValues(context.Background(), session, choices))

	remote := domain.ValueQuery{Command: spec, Argument: spec.Args[0], Filter: "al"}
	assert.Equal(t, []string{"alice", "albert"}, cat.EnumeratedValues(context.Background(), session, remote))

	text := domain.ValueQuery{Command: spec, Argument: domain.ArgumentSpec{Kind: domain.KindFreeText}}
	assert.Empty(t, cat.EnumeratedValues(context.Background(), session, text))

	numeric := domain.ValueQuery{Command: spec, Argument: domain.ArgumentSpec{Kind: domain.KindNumeric}}
	assert.Empty(t, cat.EnumeratedValues(context.Background(), session, numeric))
}

func TestEnumeratedValuesDegradeOnFailure(t *testing.T) {
	spec := sampleCommands()[0]
	query := domain.ValueQuery{Command: spec, Argument: spec.Args[0]}

	failing := &stubTransport{valueErr: errors.New("fault")}
	assert.Empty(t, New(failing, Options{}).EnumeratedValues(context.Background(), session, query))

	slow := &stubTransport{block: true}
	started := time.Now()
	values := New(slow, Options{LookupTimeout: 20 * time.Millisecond}).EnumeratedValues(context.Background(), session, query)
	assert.Empty(t, values)
	assert.Less(t, time.Since(started), time.Second)
}

func TestEnumeratedValuesCached(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	transport := &stubTransport{values: []string{"alice", "bob"}}
	cat := New(transport, Options{CacheTTL: time.Minute, Now: clock})
	spec := sampleCommands()[0]

	query := domain.ValueQuery{Command: spec, Argument: spec.Args[0], Filter: "a"}
	assert.Equal(t, []string{"alice"}, cat.EnumeratedValues(context.Background(), session, query))
	query.Filter = "b"
	assert.Equal(t, []string{"bob"}, cat.EnumeratedValues(context.Background(), session, query))
	assert.Equal(t, 1, transport.lookupCount())

	now = now.Add(2 * time.Minute)
	cat.EnumeratedValues(context.Background(), session, query)
	assert.Equal(t, 2, transport.lookupCount())
}

func TestEnumeratedValuesPromptFuncCommand(t *testing.T) {
	transport := &stubTransport{values: []string{"posix", "exchange"}}
	cat := New(transport, Options{})
	spec := sampleCommands()[2]

	query := domain.ValueQuery{Command: spec, Argument: spec.Args[0], Filter: "ex"}
	assert.Equal(t, []string{"exchange"}, cat.Source(session).EnumeratedValues(context.Background(), query))
}
