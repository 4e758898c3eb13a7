package terminal

import (
	"context"
	"io"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// Plain is a non-interactive terminal used when commands come from the
// command line. It never produces keys and writes output lines as is.
type Plain struct {
	out io.Writer
}

// NewPlain writes output to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out}
}

func (p *Plain) ReadKey(context.Context) (domain.Key, error) {
	return domain.Key{}, io.EOF
}

func (p *Plain) Render(ports.View) error { return nil }

func (p *Plain) ShowCandidates([]string) error { return nil }

func (p *Plain) Println(text string) error {
	if text == "" {
		return nil
	}
	_, err := io.WriteString(p.out, text+"\n")
	return err
}

func (p *Plain) ClearScreen() error { return nil }

var _ ports.Terminal = (*Plain)(nil)
