package domain

// CompletionResult is the transient output of one completion request.
type CompletionResult struct {
	// Candidates are ordered and deduplicated.
	Candidates []string
	// Start and End delimit the byte range of the line that a chosen
	// candidate replaces.
	Start int
	End   int
	Hint  *Hint
}

// HintKind tells the renderer which shape of hint it is drawing.
type HintKind int

const (
	// HintRemainder carries the untyped rest of an unambiguous command name.
	HintRemainder HintKind = iota + 1
	// HintArguments carries placeholders for the remaining arguments.
	HintArguments
	HintUnknownCommand
	HintIncompleteCommand
	HintTooManyArguments
)

// Hint is structured inline guidance. Rendering is left to the terminal.
type Hint struct {
	Kind HintKind
	// Text is the remainder for HintRemainder or a message otherwise.
	Text string
	Args []HintArgument
	// Leading reports that a separator must be drawn before the hint
	// because the line does not end in whitespace.
	Leading bool
}

// HintArgument is one argument placeholder inside a hint.
type HintArgument struct {
	Name     string
	Kind     ArgumentKind
	Required bool
	Repeat   bool
	// Current marks the argument the cursor is on.
	Current bool
}

// CommandStatus classifies the first word of a line against the catalog.
type CommandStatus int

const (
	StatusEmpty CommandStatus = iota
	StatusUnknown
	StatusAmbiguous
	StatusKnown
)
