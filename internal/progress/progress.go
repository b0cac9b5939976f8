package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter handles progress reporting for upload runs. Batches nest: the
// innermost open batch is the one Advance moves forward.
type Reporter interface {
	// BeginBatch opens a counted iteration over total items
	BeginBatch(desc string, total int)
	// Advance marks one item of the innermost batch as processed
	Advance()
	// EndBatch closes the innermost batch
	EndBatch()
	// Start begins tracking a new file transfer
	Start(path string, totalBytes int64)
	// Update reports progress on current transfer
	Update(bytesTransferred int64)
	// Complete marks the current transfer as complete
	Complete()
	// Error reports an error on current transfer
	Error(err error)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type UpdateType

	// Batch fields, set for batch updates
	Depth int
	Desc  string
	Done  int
	Total int

	// Transfer fields
	CurrentFile    string
	CurrentBytes   int64
	CurrentTotal   int64
	BytesPerSecond float64

	// Run totals
	FilesCompleted int
	BytesCompleted int64

	Error error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateProgress
	UpdateComplete
	UpdateError
	UpdateBatchBegin
	UpdateBatchAdvance
	UpdateBatchEnd
)

type batch struct {
	desc  string
	done  int
	total int
}

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback       Callback
	mu             sync.Mutex
	batches        []batch
	currentFile    string
	currentTotal   int64
	currentBytes   int64
	filesCompleted int
	bytesCompleted int64
	startTime      time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
	}
}

// BeginBatch opens a nested batch
func (r *CallbackReporter) BeginBatch(desc string, total int) {
	r.mu.Lock()
	r.batches = append(r.batches, batch{desc: desc, total: total})
	update := r.batchUpdate(UpdateBatchBegin)
	r.mu.Unlock()

	r.emit(update)
}

// Advance moves the innermost batch forward by one item
func (r *CallbackReporter) Advance() {
	r.mu.Lock()
	if len(r.batches) == 0 {
		r.mu.Unlock()
		return
	}
	r.batches[len(r.batches)-1].done++
	update := r.batchUpdate(UpdateBatchAdvance)
	r.mu.Unlock()

	r.emit(update)
}

// EndBatch closes the innermost batch
func (r *CallbackReporter) EndBatch() {
	r.mu.Lock()
	if len(r.batches) == 0 {
		r.mu.Unlock()
		return
	}
	update := r.batchUpdate(UpdateBatchEnd)
	r.batches = r.batches[:len(r.batches)-1]
	r.mu.Unlock()

	r.emit(update)
}

// batchUpdate must be called with mu held and at least one open batch
func (r *CallbackReporter) batchUpdate(t UpdateType) Update {
	b := r.batches[len(r.batches)-1]
	return Update{
		Type:           t,
		Depth:          len(r.batches) - 1,
		Desc:           b.desc,
		Done:           b.done,
		Total:          b.total,
		FilesCompleted: r.filesCompleted,
		BytesCompleted: r.bytesCompleted,
	}
}

// Start begins tracking a new file transfer
func (r *CallbackReporter) Start(path string, totalBytes int64) {
	r.mu.Lock()
	r.currentFile = path
	r.currentTotal = totalBytes
	r.currentBytes = 0
	r.startTime = time.Now()

	update := Update{
		Type:           UpdateStart,
		CurrentFile:    path,
		CurrentTotal:   totalBytes,
		FilesCompleted: r.filesCompleted,
		BytesCompleted: r.bytesCompleted,
	}
	r.mu.Unlock()

	r.emit(update)
}

// Update reports progress on current transfer
func (r *CallbackReporter) Update(bytesTransferred int64) {
	r.mu.Lock()
	r.currentBytes = bytesTransferred

	var bytesPerSecond float64
	elapsed := time.Since(r.startTime).Seconds()
	if elapsed > 0 {
		bytesPerSecond = float64(bytesTransferred) / elapsed
	}

	update := Update{
		Type:           UpdateProgress,
		CurrentFile:    r.currentFile,
		CurrentBytes:   bytesTransferred,
		CurrentTotal:   r.currentTotal,
		BytesPerSecond: bytesPerSecond,
		FilesCompleted: r.filesCompleted,
		BytesCompleted: r.bytesCompleted + bytesTransferred,
	}
	r.mu.Unlock()

	r.emit(update)
}

// Complete marks the current transfer as complete
func (r *CallbackReporter) Complete() {
	r.mu.Lock()
	r.filesCompleted++
	r.bytesCompleted += r.currentBytes

	update := Update{
		Type:           UpdateComplete,
		CurrentFile:    r.currentFile,
		CurrentBytes:   r.currentBytes,
		CurrentTotal:   r.currentTotal,
		FilesCompleted: r.filesCompleted,
		BytesCompleted: r.bytesCompleted,
	}
	r.currentFile = ""
	r.mu.Unlock()

	r.emit(update)
}

// Error reports an error on current transfer
func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	update := Update{
		Type:           UpdateError,
		CurrentFile:    r.currentFile,
		FilesCompleted: r.filesCompleted,
		BytesCompleted: r.bytesCompleted,
		Error:          err,
	}
	r.currentFile = ""
	r.mu.Unlock()

	r.emit(update)
}

// emit calls the callback outside the lock so callbacks may call back in
func (r *CallbackReporter) emit(update Update) {
	if r.callback != nil {
		r.callback(update)
	}
}

// ProgressReader wraps an io.Reader to track read progress
type ProgressReader struct {
	reader      io.Reader
	reporter    Reporter
	transferred int64
}

// NewProgressReader creates a new progress-tracking reader
func NewProgressReader(r io.Reader, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   r,
		reporter: reporter,
	}
}

// Read implements io.Reader
func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.transferred += int64(n)
		if pr.reporter != nil {
			pr.reporter.Update(pr.transferred)
		}
	}
	return n, err
}

// Transferred returns the number of bytes read so far
func (pr *ProgressReader) Transferred() int64 {
	return pr.transferred
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) BeginBatch(desc string, total int)   {}
func (NullReporter) Advance()                            {}
func (NullReporter) EndBatch()                           {}
func (NullReporter) Start(path string, totalBytes int64) {}
func (NullReporter) Update(bytesTransferred int64)       {}
func (NullReporter) Complete()                           {}
func (NullReporter) Error(err error)                     {}

// FormatBytes formats bytes into human-readable string
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatSpeed formats bytes per second into human-readable string
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatProgress returns a progress bar string
func FormatProgress(current, total int64, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar[i] = '='
		} else if i == filled {
			bar[i] = '>'
		} else {
			bar[i] = ' '
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", string(bar), percent*100)
}
