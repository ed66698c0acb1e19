package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrPromptTimeout is returned when the operator does not answer in time.
var ErrPromptTimeout = errors.New("timed out waiting for an answer")

// Prompter asks the operator a question and returns the typed line with
// the line ending removed.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// LinePrompter reads answers from a line-oriented stream. In the hook it
// reads the controlling terminal; tests hand it a scripted reader.
type LinePrompter struct {
	in      *bufio.Reader
	out     io.Writer
	timeout time.Duration
}

// NewLinePrompter creates a prompter reading from in and writing questions
// to out. A zero timeout waits indefinitely.
func NewLinePrompter(in io.Reader, out io.Writer,
	timeout time.Duration) *LinePrompter {

	return &LinePrompter{
		in:      bufio.NewReader(in),
		out:     out,
		timeout: timeout,
	}
}

// Ask writes the question and blocks for one line. End of input without a
// line counts as an empty answer.
//
// NOTE: this is part of the Prompter interface.
func (p *LinePrompter) Ask(ctx context.Context,
	question string) (string, error) {

	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// The read can't be interrupted, so it runs on its own goroutine
	// and is abandoned on timeout. The process exits right after.
	answers := make(chan fn.Result[string], 1)
	go func() {
		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			answers <- fn.Err[string](err)
			return
		}
		answers <- fn.Ok(strings.TrimRight(line, "\r\n"))
	}()

	select {
	case res := <-answers:
		return res.Unpack()

	case <-ctx.Done():
		fmt.Fprintln(p.out)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrPromptTimeout
		}
		return "", ctx.Err()
	}
}

// confirmed interprets an answer to a [Y/n] question. Empty input takes
// the default, which is yes.
func confirmed(answer string) bool {
	answer = strings.TrimSpace(answer)

	return answer == "" || strings.EqualFold(answer, "y") ||
		strings.EqualFold(answer, "yes")
}

var _ Prompter = (*LinePrompter)(nil)
