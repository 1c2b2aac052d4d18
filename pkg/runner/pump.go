package runner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

type inputResult struct {
	text string
	err  error
}

// linePump reads lines in a goroutine so reads can be abandoned when the
// context ends. Lines can also be fed directly, e.g. by a bridge or a test.
type linePump struct {
	source    io.Reader
	inputChan chan inputResult
	startOnce sync.Once
}

func (p *linePump) init() {
	p.startOnce.Do(func() {
		p.inputChan = make(chan inputResult)
		if p.source != nil {
			go p.pump(bufio.NewReader(p.source))
		}
	})
}

func (p *linePump) pump(r *bufio.Reader) {
	for {
		text, err := r.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			p.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(p.inputChan)
				return
			}
			p.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// feed injects one line, blocking until it is read.
func (p *linePump) feed(text string, err error) {
	p.init()
	p.inputChan <- inputResult{text: text, err: err}
}

// read returns the next sanitized line without its trailing newline.
// Lines failing sanitization are reported through invalid and skipped.
func (p *linePump) read(ctx context.Context, invalid func(error)) (string, error) {
	p.init()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-p.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimRight(res.text, "\r\n"))
			if err != nil {
				if invalid != nil {
					invalid(err)
				}
				continue
			}
			return clean, nil
		}
	}
}
