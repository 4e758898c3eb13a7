package completion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerebrum/bofh-go/internal/application/catalog"
	"github.com/cerebrum/bofh-go/internal/domain"
)

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot([]domain.CommandSpec{
		{Name: "user_create", Group: "user", Subcommand: "create", Args: []domain.ArgumentSpec{
			{Name: "account-name", Kind: domain.KindFreeText},
			{Name: "spread", Kind: domain.KindEnumerated, Choices: []string{"posix", "exchange", "ad"}, Optional: true},
		}},
		{Name: "user_delete", Group: "user", Subcommand: "delete", Args: []domain.ArgumentSpec{
			{Name: "account-name", Kind: domain.KindReference, Remote: true},
		}},
		{Name: "group_list", Group: "group", Subcommand: "list", Args: []domain.ArgumentSpec{
			{Name: "group-name", Kind: domain.KindReference, Remote: true},
		}},
		{Name: "group_add", Group: "group", Subcommand: "add", Args: []domain.ArgumentSpec{
			{Name: "member", Kind: domain.KindReference, Remote: true, Repeat: true},
		}},
		{Name: "misc_yes", Args: []domain.ArgumentSpec{
			{Name: "confirm", Kind: domain.KindBoolean},
		}},
	})
	require.NoError(t, err)
	return snap
}

type recordingSource struct {
	values  map[string][]string
	queries []domain.ValueQuery
}

func (r *recordingSource) EnumeratedValues(_ context.Context, query domain.ValueQuery) []string {
	r.queries = append(r.queries, query)
	var out []string
	for _, v := range r.values[query.Argument.Name] {
		if len(v) >= len(query.Filter) && v[:len(query.Filter)] == query.Filter {
			out = append(out, v)
		}
	}
	if query.Argument.Kind == domain.KindEnumerated {
		for _, v := range query.Argument.Choices {
			if len(v) >= len(query.Filter) && v[:len(query.Filter)] == query.Filter {
				out = append(out, v)
			}
		}
	}
	if query.Argument.Kind == domain.KindBoolean {
		out = append(out, "yes", "no")
	}
	return out
}

func complete(t *testing.T, line string, source ValueSource) domain.CompletionResult {
	t.Helper()
	return NewEngine().Complete(context.Background(), testSnapshot(t), source, line, len(line))
}

func TestCompleteCommandPrefix(t *testing.T) {
	result := complete(t, "us", nil)
	assert.Equal(t, []string{"user_create", "user_delete"}, result.Candidates)
	assert.Equal(t, 0, result.Start)
	assert.Equal(t, 2, result.End)

	result = complete(t, "user_c", nil)
	assert.Equal(t, []string{"user_create"}, result.Candidates)
}

func TestCompleteEmptyBufferListsEverything(t *testing.T) {
	result := complete(t, "", nil)
	assert.Equal(t, []string{"group_add", "group_list", "misc_yes", "user_create", "user_delete"}, result.Candidates)
}

func TestCompleteUnknownCommand(t *testing.T) {
	result := complete(t, "frob", nil)
	assert.Empty(t, result.Candidates)
	require.NotNil(t, result.Hint)
	assert.Equal(t, domain.HintUnknownCommand, result.Hint.Kind)

	source := &recordingSource{}
	result = complete(t, "frobnicate ", source)
	assert.Empty(t, result.Candidates)
	require.NotNil(t, result.Hint)
	assert.Equal(t, domain.HintUnknownCommand, result.Hint.Kind)
	assert.Empty(t, source.queries, "unknown commands never trigger lookups")
}

func TestCompleteTrailingWhitespaceStartsNextArgument(t *testing.T) {
	source := &recordingSource{values: map[string][]string{"account-name": {"alice", "bob"}}}
	result := complete(t, "user_delete ", source)

	assert.Equal(t, []string{"alice", "bob"}, result.Candidates)
	assert.Equal(t, len("user_delete "), result.Start)
	require.Len(t, source.queries, 1)
	assert.Equal(t, 0, source.queries[0].Position)
	assert.Equal(t, "", source.queries[0].Filter)
}

func TestCompleteArgumentFiltersPartial(t *testing.T) {
	source := &recordingSource{values: map[string][]string{"account-name": {"bob", "alice", "albert", "alice"}}}
	result := complete(t, "user_delete al", source)

	assert.Equal(t, []string{"albert", "alice"}, result.Candidates)
	assert.Equal(t, len("user_delete "), result.Start)
	require.NotNil(t, result.Hint)
	assert.Equal(t, domain.HintArguments, result.Hint.Kind)
	assert.True(t, result.Hint.Args[0].Current)
}

func TestCompleteFreeTextArgumentHasHintOnly(t *testing.T) {
	source := &recordingSource{}
	result := complete(t, "user_create ", source)

	assert.Empty(t, result.Candidates)
	require.NotNil(t, result.Hint)
	require.Len(t, result.Hint.Args, 2)
	assert.Equal(t, "account-name", result.Hint.Args[0].Name)
	assert.True(t, result.Hint.Args[0].Required)
	assert.True(t, result.Hint.Args[0].Current)
	assert.False(t, result.Hint.Args[1].Required)
}

func TestCompleteSecondArgumentPosition(t *testing.T) {
	source := &recordingSource{}
	result := complete(t, "user_create alice e", source)

	assert.Equal(t, []string{"exchange"}, result.Candidates)
	require.Len(t, source.queries, 1)
	assert.Equal(t, 1, source.queries[0].Position)
	assert.Equal(t, []string{"alice"}, source.queries[0].Preceding)
}

func TestCompleteQuotedArgument(t *testing.T) {
	source := &recordingSource{}
	complete(t, `user_create "alice smith" `, source)
	require.Len(t, source.queries, 1)
	assert.Equal(t, 1, source.queries[0].Position)
	assert.Equal(t, []string{"alice smith"}, source.queries[0].Preceding)
}

func TestCompleteTooManyArguments(t *testing.T) {
	result := complete(t, "user_delete alice ", &recordingSource{})
	assert.Empty(t, result.Candidates)
	require.NotNil(t, result.Hint)
	assert.Equal(t, domain.HintTooManyArguments, result.Hint.Kind)
}

func TestCompleteRepeatingArgument(t *testing.T) {
	source := &recordingSource{values: map[string][]string{"member": {"alice", "bob"}}}
	result := complete(t, "group_add alice bob ", source)
	assert.Equal(t, []string{"alice", "bob"}, result.Candidates)
	require.NotNil(t, result.Hint)
	assert.Equal(t, domain.HintArguments, result.Hint.Kind)
}

func TestCompleteBoolean(t *testing.T) {
	result := complete(t, "misc_yes ", &recordingSource{})
	assert.Equal(t, []string{"no", "yes"}, result.Candidates)
}

func TestCompleteGroupForm(t *testing.T) {
	result := complete(t, "user ", nil)
	assert.Equal(t, []string{"create", "delete"}, result.Candidates)

	result = complete(t, "user d", nil)
	assert.Equal(t, []string{"delete"}, result.Candidates)
	assert.Equal(t, len("user "), result.Start)

	source := &recordingSource{values: map[string][]string{"account-name": {"alice"}}}
	result = complete(t, "user delete a", source)
	assert.Equal(t, []string{"alice"}, result.Candidates)
}

func TestCompleteCursorInsideLine(t *testing.T) {
	line := "us foo"
	result := NewEngine().Complete(context.Background(), testSnapshot(t), nil, line, 2)
	assert.Equal(t, []string{"user_create", "user_delete"}, result.Candidates)
	assert.Equal(t, 0, result.Start)
	assert.Equal(t, 2, result.End)
}

func TestHint(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine()
	hint := func(line string) *domain.Hint { return engine.Hint(snap, line, len(line)) }

	h := hint("user_c")
	require.NotNil(t, h)
	assert.Equal(t, domain.HintRemainder, h.Kind)
	assert.Equal(t, "reate", h.Text)

	assert.Nil(t, hint("us"), "ambiguous prefixes are not hinted")
	assert.Nil(t, hint(""))

	h = hint("user_create")
	require.NotNil(t, h)
	assert.Equal(t, domain.HintArguments, h.Kind)
	assert.True(t, h.Leading)

	h = hint("user_create ")
	require.NotNil(t, h)
	assert.False(t, h.Leading)
	assert.Equal(t, "account-name", h.Args[0].Name)

	h = hint("user_create ali")
	require.NotNil(t, h)
	require.Len(t, h.Args, 1)
	assert.Equal(t, "spread", h.Args[0].Name)

	assert.Nil(t, hint("user_delete ali"))

	h = hint("nope")
	require.NotNil(t, h)
	assert.Equal(t, domain.HintUnknownCommand, h.Kind)

	h = hint("user ")
	require.NotNil(t, h)
	assert.Equal(t, domain.HintIncompleteCommand, h.Kind)

	h = hint("user del")
	require.NotNil(t, h)
	assert.Equal(t, "ete", h.Text)

	assert.Nil(t, engine.Hint(snap, "user_c x", 3), "no hint with cursor inside the line")
}

func TestClassify(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine()

	tests := []struct {
		line string
		want domain.CommandStatus
		end  int
	}{
		{line: "", want: domain.StatusEmpty},
		{line: "user_create alice", want: domain.StatusKnown, end: 11},
		{line: "user", want: domain.StatusKnown, end: 4},
		{line: "gr", want: domain.StatusAmbiguous, end: 2},
		{line: "misc", want: domain.StatusKnown, end: 4},
		{line: "  zz", want: domain.StatusUnknown, end: 4},
		{line: "user create alice", want: domain.StatusKnown, end: 11},
		{line: "gr li", want: domain.StatusKnown, end: 5},
		{line: "user d", want: domain.StatusKnown, end: 6},
		{line: "user zz", want: domain.StatusUnknown, end: 7},
		{line: "group ", want: domain.StatusKnown, end: 5},
		{line: "misc_yes yes", want: domain.StatusKnown, end: 8},
	}
	for _, tt := range tests {
		status, end := engine.Classify(snap, tt.line)
		assert.Equal(t, tt.want, status, "line %q", tt.line)
		assert.Equal(t, tt.end, end, "line %q", tt.line)
	}
}
