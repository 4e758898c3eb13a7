package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerebrum/bofh-go/internal/application/catalog"
	"github.com/cerebrum/bofh-go/internal/application/editor"
	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/ports"
)

type fakeTerminal struct {
	keys chan domain.Key

	mu         sync.Mutex
	lines      []string
	candidates [][]string
	views      []ports.View
}

func newFakeTerminal(keys ...domain.Key) *fakeTerminal {
	ch := make(chan domain.Key, len(keys))
	for _, k := range keys {
		ch <- k
	}
	close(ch)
	return &fakeTerminal{keys: ch}
}

func (f *fakeTerminal) ReadKey(ctx context.Context) (domain.Key, error) {
	select {
	case key, ok := <-f.keys:
		if !ok {
			return domain.Key{}, io.EOF
		}
		return key, nil
	case <-ctx.Done():
		return domain.Key{}, ctx.Err()
	}
}

func (f *fakeTerminal) Render(view ports.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, view)
	return nil
}

func (f *fakeTerminal) ShowCandidates(c []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, c)
	return nil
}

func (f *fakeTerminal) Println(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if text != "" {
		f.lines = append(f.lines, text)
	}
	return nil
}

func (f *fakeTerminal) ClearScreen() error { return nil }

func (f *fakeTerminal) output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.lines, "\n")
}

type invocation struct {
	command string
	args    []string
}

type fakeTransport struct {
	mu       sync.Mutex
	invoked  []invocation
	listed   int
	closed   int
	helpErr  error
	invokeFn func(ctx context.Context, call int, command string, args []string) (domain.Result, error)
}

func (f *fakeTransport) Connect(context.Context, domain.Credentials) (domain.Session, error) {
	return domain.Session{ID: "s1"}, nil
}

func (f *fakeTransport) ListCommands(context.Context, domain.Session) ([]domain.CommandSpec, error) {
	f.mu.Lock()
	f.listed++
	f.mu.Unlock()
	return []domain.CommandSpec{
		{Name: "user_create", Group: "user", Subcommand: "create", Args: []domain.ArgumentSpec{{Name: "name", Kind: domain.KindFreeText}}},
		{Name: "user_delete", Group: "user", Subcommand: "delete", Args: []domain.ArgumentSpec{{Name: "name", Kind: domain.KindReference}}},
		{Name: "group_list", Group: "group", Subcommand: "list", Args: []domain.ArgumentSpec{{Name: "group", Kind: domain.KindReference}}},
	}, nil
}

func (f *fakeTransport) ResolveEnumeratedValues(context.Context, domain.Session, domain.ValueQuery) ([]string, error) {
	return nil, nil
}

func (f *fakeTransport) Invoke(ctx context.Context, _ domain.Session, command string, args []string) (domain.Result, error) {
	f.mu.Lock()
	f.invoked = append(f.invoked, invocation{command: command, args: args})
	call := len(f.invoked)
	f.mu.Unlock()
	if f.invokeFn != nil {
		return f.invokeFn(ctx, call, command, args)
	}
	return domain.Result{Command: command, Value: strings.Join(args, ",")}, nil
}

func (f *fakeTransport) Help(_ context.Context, _ domain.Session, topic ...string) (string, error) {
	if f.helpErr != nil {
		return "", f.helpErr
	}
	return "help for " + strings.Join(topic, "/"), nil
}

func (f *fakeTransport) Close(context.Context, domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

type plainFormatter struct{}

func (plainFormatter) Format(r domain.Result) (string, error) {
	if r.Value == nil {
		return "", nil
	}
	return fmt.Sprint(r.Value), nil
}

type failingStore struct{ appends int }

func (f *failingStore) Append(string) error               { f.appends++; return errors.New("disk full") }
func (f *failingStore) LoadRecent(int) ([]string, error) { return nil, nil }
func (f *failingStore) Close() error                     { return nil }

func keysFor(text string) []domain.Key {
	var keys []domain.Key
	for _, r := range text {
		keys = append(keys, domain.Char(r))
	}
	return keys
}

func script(parts ...interface{}) []domain.Key {
	var keys []domain.Key
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			keys = append(keys, keysFor(v)...)
		case domain.Key:
			keys = append(keys, v)
		}
	}
	return keys
}

var (
	enter = domain.Special(domain.KeyEnter)
	tab   = domain.Special(domain.KeyTab)
)

type fixture struct {
	shell     *Shell
	terminal  *fakeTerminal
	transport *fakeTransport
}

func newFixture(t *testing.T, transport *fakeTransport, opts Options, keys ...domain.Key) *fixture {
	t.Helper()
	if transport == nil {
		transport = &fakeTransport{}
	}
	session := domain.Session{ID: "s1", User: "alice"}
	cat, err := catalog.Load(context.Background(), transport, session, catalog.Options{})
	require.NoError(t, err)
	term := newFakeTerminal(keys...)
	history := editor.NewHistory(0)
	sh := New(Deps{
		Transport: transport,
		Catalog:   cat,
		Session:   session,
		Terminal:  term,
		Editor:    editor.New(history, editor.Options{Mode: domain.ModeEmacs}),
		History:   history,
		Formatter: plainFormatter{},
	}, opts)
	return &fixture{shell: sh, terminal: term, transport: transport}
}

func (f *fixture) run(t *testing.T) {
	t.Helper()
	require.NoError(t, f.shell.Run(context.Background()))
}

func TestTabCompletesUniqueCommand(t *testing.T) {
	f := newFixture(t, nil, Options{}, script("user_c", tab)...)
	f.run(t)
	assert.Equal(t, "user_create ", f.shell.editor.Line())
}

func TestTabListsSeveralCandidates(t *testing.T) {
	f := newFixture(t, nil, Options{}, script("user_", tab)...)
	f.run(t)
	require.Len(t, f.terminal.candidates, 1)
	assert.Equal(t, []string{"user_create", "user_delete"}, f.terminal.candidates[0])
	assert.Equal(t, "user_", f.shell.editor.Line())
}

func TestTabShowsCandidatesAndExtendsCommonPrefix(t *testing.T) {
	f := newFixture(t, nil, Options{}, script("us", tab)...)
	f.run(t)
	assert.Equal(t, [][]string{{"user_create", "user_delete"}}, f.terminal.candidates)
	assert.Equal(t, "user_", f.shell.editor.Line())
}

func TestCommonPrefixKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		values []string
		want   string
	}{
		{values: []string{"Øyvind", "Åse"}, want: ""},
		{values: []string{"Åse", "Åsmund"}, want: "Ås"},
		{values: []string{"blåbær", "blåbærsyltetøy"}, want: "blåbær"},
		{values: []string{"user_create", "user_delete"}, want: "user_"},
	}
	for _, tt := range tests {
		got := commonPrefix(tt.values)
		assert.Equal(t, tt.want, got, "values %q", tt.values)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestCircularCompletion(t *testing.T) {
	f := newFixture(t, nil, Options{Circular: true}, script("user_", tab, tab, tab, tab)...)
	f.run(t)
	assert.Equal(t, "user_delete", f.shell.editor.Line())

	f = newFixture(t, nil, Options{Circular: true}, script("user_", tab, tab, "x")...)
	f.run(t)
	assert.Equal(t, "user_deletex", f.shell.editor.Line(), "other keys end the cycle")
}

func TestSubmitForwardsCommandAndSurvivesFaults(t *testing.T) {
	transport := &fakeTransport{invokeFn: func(_ context.Context, call int, _ string, args []string) (domain.Result, error) {
		if call == 1 {
			return domain.Result{}, &domain.RemoteFault{Kind: domain.FaultCerebrum, Message: "Unknown group: foo"}
		}
		return domain.Result{Value: "members of " + args[0]}, nil
	}}
	f := newFixture(t, transport, Options{}, script("group_list foo", enter, "group_list bar", enter)...)
	f.run(t)

	require.Len(t, transport.invoked, 2)
	assert.Equal(t, invocation{command: "group_list", args: []string{"foo"}}, transport.invoked[0])
	assert.Contains(t, f.terminal.output(), "Error: Unknown group: foo")
	assert.Contains(t, f.terminal.output(), "members of bar")
	assert.Equal(t, []string{"group_list foo", "group_list bar"}, f.shell.history.Entries())
}

func TestGroupFormResolves(t *testing.T) {
	transport := &fakeTransport{}
	f := newFixture(t, transport, Options{}, script(`user cr "alice smith"`, enter)...)
	f.run(t)
	require.Len(t, transport.invoked, 1)
	assert.Equal(t, invocation{command: "user_create", args: []string{"alice smith"}}, transport.invoked[0])
}

func TestUnknownCommandSuggests(t *testing.T) {
	transport := &fakeTransport{}
	f := newFixture(t, transport, Options{}, script("user_craete bob", enter)...)
	f.run(t)
	assert.Empty(t, transport.invoked)
	assert.Contains(t, f.terminal.output(), `did you mean "user_create"?`)
}

func TestUnknownSubcommandSuggestsGroupForm(t *testing.T) {
	transport := &fakeTransport{}
	f := newFixture(t, transport, Options{}, script("user craete bob", enter)...)
	f.run(t)
	assert.Empty(t, transport.invoked)
	assert.Contains(t, f.terminal.output(), `did you mean "user create"?`)
}

func TestIncompleteGroup(t *testing.T) {
	f := newFixture(t, nil, Options{}, script("user", enter)...)
	f.run(t)
	assert.Contains(t, f.terminal.output(), "user expects a subcommand: create, delete")
}

func TestSyntaxErrorKeepsBuffer(t *testing.T) {
	transport := &fakeTransport{}
	f := newFixture(t, transport, Options{}, script("user_create 'alice", enter)...)
	f.run(t)
	assert.Empty(t, transport.invoked)
	assert.Equal(t, "user_create 'alice", f.shell.editor.Line())
	assert.Zero(t, f.shell.history.Len())
	assert.Contains(t, f.terminal.output(), "unterminated")
}

func TestCancelDiscardsLine(t *testing.T) {
	transport := &fakeTransport{}
	f := newFixture(t, transport, Options{}, script("user_create x", domain.Ctrl('c'), "group_list y", enter)...)
	f.run(t)
	require.Len(t, transport.invoked, 1)
	assert.Equal(t, "group_list", transport.invoked[0].command)
	assert.Equal(t, []string{"group_list y"}, f.shell.history.Entries())
}

func TestExitClosesSession(t *testing.T) {
	for name, keys := range map[string][]domain.Key{
		"ctrl-d": script(domain.Ctrl('d'), "never"),
		"quit":   script("quit", enter, "never"),
		"exit":   script("exit", enter),
		"eof":    script("user"),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil, Options{}, keys...)
			f.run(t)
			assert.Equal(t, 1, f.transport.closed)
			assert.Empty(t, f.transport.invoked)
		})
	}
}

func TestContextCancelClosesSession(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.terminal.keys = make(chan domain.Key)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, f.shell.Run(ctx))
	assert.Equal(t, 1, f.transport.closed)
}

func TestInterruptPendingCall(t *testing.T) {
	transport := &fakeTransport{invokeFn: func(ctx context.Context, _ int, _ string, _ []string) (domain.Result, error) {
		<-ctx.Done()
		return domain.Result{}, ctx.Err()
	}}
	f := newFixture(t, transport, Options{}, script("group_list foo", enter, domain.Ctrl('c'), "next")...)
	f.run(t)

	assert.Contains(t, f.terminal.output(), "^C")
	assert.Equal(t, []string{"group_list foo"}, f.shell.history.Entries())
	assert.Equal(t, "next", f.shell.editor.Line(), "keys typed after the interrupt are replayed")
	assert.Equal(t, 1, transport.closed)
}

func TestTypeaheadDuringCallIsReplayed(t *testing.T) {
	transport := &fakeTransport{invokeFn: func(context.Context, int, string, []string) (domain.Result, error) {
		time.Sleep(50 * time.Millisecond)
		return domain.Result{Value: "ok"}, nil
	}}
	f := newFixture(t, transport, Options{}, script("group_list foo", enter, "abc")...)
	f.run(t)
	assert.Equal(t, "abc", f.shell.editor.Line())
	assert.Contains(t, f.terminal.output(), "ok")
}

func TestCommandTimeout(t *testing.T) {
	transport := &fakeTransport{invokeFn: func(ctx context.Context, _ int, _ string, _ []string) (domain.Result, error) {
		<-ctx.Done()
		return domain.Result{}, ctx.Err()
	}}
	f := newFixture(t, transport, Options{CommandTimeout: 20 * time.Millisecond})
	err := f.shell.Execute(context.Background(), "group_list foo")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "no answer within")
}

func TestServerRestartRefreshesAndRetries(t *testing.T) {
	transport := &fakeTransport{invokeFn: func(_ context.Context, call int, _ string, _ []string) (domain.Result, error) {
		if call == 1 {
			return domain.Result{}, &domain.RemoteFault{Kind: domain.FaultServerRestart, Message: "restarted"}
		}
		return domain.Result{Value: "done"}, nil
	}}
	f := newFixture(t, transport, Options{})
	require.NoError(t, f.shell.Execute(context.Background(), "group_list foo"))
	assert.Len(t, transport.invoked, 2)
	assert.Equal(t, 2, transport.listed)
	assert.Contains(t, f.terminal.output(), "done")
}

func TestExecuteReturnsRemoteFault(t *testing.T) {
	transport := &fakeTransport{invokeFn: func(context.Context, int, string, []string) (domain.Result, error) {
		return domain.Result{}, &domain.RemoteFault{Kind: domain.FaultCerebrum, Message: "nope"}
	}}
	f := newFixture(t, transport, Options{})
	err := f.shell.Execute(context.Background(), "group_list foo")
	assert.True(t, domain.IsRemoteFault(err))
	assert.Equal(t, "Error: nope", Describe(err))
}

func TestBuiltins(t *testing.T) {
	f := newFixture(t, nil, Options{}, script(
		"group_list a", enter,
		"group_list b", enter,
		"history", enter,
		"help user_create", enter,
		"refresh", enter,
		"mode vi", enter,
	)...)
	f.run(t)

	out := f.terminal.output()
	assert.Contains(t, out, "    1  group_list a\n    2  group_list b\n    3  history")
	assert.Contains(t, out, "help for user/create")
	assert.Contains(t, out, "Loaded 3 commands")
	assert.Equal(t, domain.ModeViInsert, f.shell.editor.Mode())
	assert.Equal(t, 2, f.transport.listed)
}

func TestHelpFallsBackToUsage(t *testing.T) {
	transport := &fakeTransport{helpErr: &domain.RemoteFault{Kind: domain.FaultCerebrum, Message: "no help"}}
	f := newFixture(t, transport, Options{}, script("help user_create", enter, "help nosuch", enter)...)
	f.run(t)

	out := f.terminal.output()
	assert.Contains(t, out, "Usage: user_create <name>")
	assert.Contains(t, out, "no help", "unknown topics still report the fault")
}

func TestHistoryStoreFailureIsBestEffort(t *testing.T) {
	transport := &fakeTransport{}
	f := newFixture(t, transport, Options{}, script("group_list a", enter)...)
	store := &failingStore{}
	f.shell.store = store
	f.run(t)
	assert.Equal(t, 1, store.appends)
	assert.Len(t, transport.invoked, 1)
}

func TestLiveHintAndStatus(t *testing.T) {
	f := newFixture(t, nil, Options{}, script("user_c")...)
	f.run(t)
	last := f.terminal.views[len(f.terminal.views)-1]
	require.NotNil(t, last.Hint)
	assert.Equal(t, "reate", last.Hint.Text)
	assert.Equal(t, domain.StatusKnown, last.Status)
	assert.Equal(t, 6, last.CommandEnd)
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "user_create", suggest("user_craete", []string{"user_create", "group_list"}))
	assert.Equal(t, "", suggest("zzzzzz", []string{"user_create"}))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 1, levenshtein("blåbær", "blabær"))
}
