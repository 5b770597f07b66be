package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"vkposter/internal/assert"
)

// Prompter asks the operator for a single line of input.
//
// note: fault injection point
type Prompter interface {
	// Prompt shows label and blocks until a non-blank line is read, the input ends
	// (io.EOF) or ctx is done (ctx.Err()).
	Prompt(ctx context.Context, label string) (string, error)
}

type readResult struct {
	text string
	err  error
}

// Console is a Prompter over a terminal-like reader/writer pair.
type Console struct {
	mutex   sync.Mutex
	reader  *bufio.Reader
	out     io.Writer
	pending chan readResult
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	assert.NotNil(in)
	assert.NotNil(out)
	return &Console{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// readLine returns the channel of the read in flight, starting one if there is none.
// a read abandoned by a cancelled prompt is picked up by the next prompt.
func (c *Console) readLine() chan readResult {
	if c.pending != nil {
		return c.pending
	}
	ch := make(chan readResult, 1)
	c.pending = ch
	go func() {
		text, err := c.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && text != "" {
			err = nil
		}
		ch <- readResult{text: strings.TrimSpace(text), err: err}
	}()
	return ch
}

func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for {
		_, err := fmt.Fprintf(c.out, "%s: ", label)
		if err != nil {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res := <-c.readLine():
			c.pending = nil
			if errors.Is(res.err, io.EOF) {
				return "", io.EOF
			}
			if res.err != nil {
				return "", fmt.Errorf("read %s: %w", label, res.err)
			}
			if res.text == "" {
				continue
			}
			return res.text, nil
		}
	}
}
