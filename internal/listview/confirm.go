package listview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves everything.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

type confirmKey struct{}

// WithConfirmation records on ctx whether the caller already approved the action.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

// ContextConfirmer approves only when the request context carries an approval, as set
// by WithConfirmation. Used where there is nobody to prompt, such as an HTTP request.
type ContextConfirmer struct{}

// Confirm reads the approval flag from ctx.
func (ContextConfirmer) Confirm(ctx context.Context, _ string) (bool, error) {
	confirmed, _ := ctx.Value(confirmKey{}).(bool)
	return confirmed, nil
}

// PromptConfirmer asks on a terminal and accepts "y" or "yes".
type PromptConfirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConfirmer reads answers from in and writes prompts to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm prints prompt and waits for an answer. EOF counts as "no".
func (p *PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(p.out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}

	answer, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
