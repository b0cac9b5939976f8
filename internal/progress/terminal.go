package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	barWidth   = 20
	clearLine  = "\r\033[K"
	maxNameLen = 40
)

// Renderer draws updates from a CallbackReporter on a terminal.
//
// Interactive mode keeps a single status line redrawn in place: the
// innermost open batch with its bar, plus the file in flight. Nested batches
// disappear when they end; the outermost one is left on screen. Plain mode
// (pipes, log files) prints one line per advance of the outermost batch and
// nothing else, so output stays greppable.
type Renderer struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	batches     []Update
	file        *Update
	drawn       bool
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer, interactive bool) *Renderer {
	return &Renderer{out: out, interactive: interactive}
}

// Handle is a Callback
func (r *Renderer) Handle(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch u.Type {
	case UpdateBatchBegin:
		r.batches = append(r.batches, u)
	case UpdateBatchAdvance:
		if n := len(r.batches); n > 0 {
			r.batches[n-1] = u
		}
		if !r.interactive && u.Depth == 0 {
			fmt.Fprintf(r.out, "%s: %d/%d\n", u.Desc, u.Done, u.Total)
		}
	case UpdateBatchEnd:
		if n := len(r.batches); n > 0 {
			r.batches = r.batches[:n-1]
		}
		if r.interactive && u.Depth == 0 {
			r.clear()
			fmt.Fprintln(r.out, r.batchLine(u))
			return
		}
	case UpdateStart, UpdateProgress:
		file := u
		r.file = &file
	case UpdateComplete:
		r.file = nil
	case UpdateError:
		r.file = nil
		r.clear()
		fmt.Fprintf(r.out, "failed: %s: %v\n", u.CurrentFile, u.Error)
	}

	if r.interactive {
		r.redraw()
	}
}

// Writer wraps w so that anything written through it (log lines) first
// clears the status line and then redraws it below the written text
func (r *Renderer) Writer(w io.Writer) io.Writer {
	return &passthrough{r: r, w: w}
}

type passthrough struct {
	r *Renderer
	w io.Writer
}

func (p *passthrough) Write(b []byte) (int, error) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()

	if !p.r.interactive {
		return p.w.Write(b)
	}
	p.r.clear()
	n, err := p.w.Write(b)
	p.r.redraw()
	return n, err
}

// clear must be called with mu held
func (r *Renderer) clear() {
	if r.drawn {
		io.WriteString(r.out, clearLine)
		r.drawn = false
	}
}

// redraw must be called with mu held
func (r *Renderer) redraw() {
	if len(r.batches) == 0 {
		r.clear()
		return
	}

	line := r.batchLine(r.batches[len(r.batches)-1])
	if r.file != nil {
		line += " | " + fileLine(*r.file)
	}
	io.WriteString(r.out, clearLine+line)
	r.drawn = true
}

func (r *Renderer) batchLine(u Update) string {
	return fmt.Sprintf("%s %s %d/%d",
		u.Desc, FormatProgress(int64(u.Done), int64(u.Total), barWidth), u.Done, u.Total)
}

func fileLine(u Update) string {
	name := u.CurrentFile
	if len(name) > maxNameLen {
		name = "..." + name[len(name)-maxNameLen+3:]
	}
	parts := []string{name, FormatBytes(u.CurrentBytes) + "/" + FormatBytes(u.CurrentTotal)}
	if u.BytesPerSecond > 0 {
		parts = append(parts, FormatSpeed(u.BytesPerSecond))
	}
	return strings.Join(parts, " ")
}
