package progress

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestCallbackReporter_Start tests starting a file transfer
func TestCallbackReporter_Start(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("test-file.txt", 500)

	if update.Type != UpdateStart {
		t.Errorf("expected UpdateStart, got %v", update.Type)
	}
	if update.CurrentFile != "test-file.txt" {
		t.Errorf("expected file name 'test-file.txt', got '%s'", update.CurrentFile)
	}
	if update.CurrentTotal != 500 {
		t.Errorf("expected total 500, got %d", update.CurrentTotal)
	}
}

// TestCallbackReporter_Update tests progress updates
func TestCallbackReporter_Update(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("test.txt", 1000)
	time.Sleep(5 * time.Millisecond) // Small delay for speed calculation
	reporter.Update(250)

	if update.Type != UpdateProgress {
		t.Errorf("expected UpdateProgress, got %v", update.Type)
	}
	if update.CurrentBytes != 250 {
		t.Errorf("expected 250 bytes, got %d", update.CurrentBytes)
	}
	if update.BytesPerSecond == 0 {
		t.Error("expected non-zero bytes per second")
	}
}

// TestCallbackReporter_Complete tests completion totals
func TestCallbackReporter_Complete(t *testing.T) {
	var updates []Update
	reporter := NewCallbackReporter(func(u Update) {
		updates = append(updates, u)
	})

	reporter.Start("file1.txt", 1000)
	reporter.Update(1000)
	reporter.Complete()
	reporter.Start("file2.txt", 24)
	reporter.Update(24)
	reporter.Complete()

	last := updates[len(updates)-1]
	if last.Type != UpdateComplete {
		t.Fatalf("expected UpdateComplete, got %v", last.Type)
	}
	if last.FilesCompleted != 2 {
		t.Errorf("expected 2 files completed, got %d", last.FilesCompleted)
	}
	if last.BytesCompleted != 1024 {
		t.Errorf("expected 1024 bytes completed, got %d", last.BytesCompleted)
	}
}

// TestCallbackReporter_Error tests error reporting
func TestCallbackReporter_Error(t *testing.T) {
	var update Update
	reporter := NewCallbackReporter(func(u Update) {
		update = u
	})

	reporter.Start("failing.txt", 100)
	testErr := io.ErrUnexpectedEOF
	reporter.Error(testErr)

	if update.Type != UpdateError {
		t.Errorf("expected UpdateError, got %v", update.Type)
	}
	if update.Error != testErr {
		t.Errorf("expected error %v, got %v", testErr, update.Error)
	}
	if update.CurrentFile != "failing.txt" {
		t.Errorf("expected failing file name, got %q", update.CurrentFile)
	}
}

// TestCallbackReporter_NestedBatches tests batch depth and counters
func TestCallbackReporter_NestedBatches(t *testing.T) {
	var updates []Update
	reporter := NewCallbackReporter(func(u Update) {
		updates = append(updates, u)
	})

	reporter.BeginBatch("paths", 2)
	reporter.BeginBatch("photos", 3)
	reporter.Advance()
	reporter.Advance()
	reporter.EndBatch()
	reporter.Advance()

	want := []struct {
		typ   UpdateType
		depth int
		desc  string
		done  int
	}{
		{UpdateBatchBegin, 0, "paths", 0},
		{UpdateBatchBegin, 1, "photos", 0},
		{UpdateBatchAdvance, 1, "photos", 1},
		{UpdateBatchAdvance, 1, "photos", 2},
		{UpdateBatchEnd, 1, "photos", 2},
		{UpdateBatchAdvance, 0, "paths", 1},
	}

	if len(updates) != len(want) {
		t.Fatalf("expected %d updates, got %d", len(want), len(updates))
	}
	for i, w := range want {
		u := updates[i]
		if u.Type != w.typ || u.Depth != w.depth || u.Desc != w.desc || u.Done != w.done {
			t.Errorf("update %d = {%v %d %q %d}, want %+v", i, u.Type, u.Depth, u.Desc, u.Done, w)
		}
	}
	if updates[1].Total != 3 {
		t.Errorf("expected nested total 3, got %d", updates[1].Total)
	}
}

// TestCallbackReporter_UnbalancedBatch tests that stray calls are ignored
func TestCallbackReporter_UnbalancedBatch(t *testing.T) {
	calls := 0
	reporter := NewCallbackReporter(func(u Update) { calls++ })

	reporter.Advance()
	reporter.EndBatch()

	if calls != 0 {
		t.Errorf("expected no updates without an open batch, got %d", calls)
	}
}

// TestCallbackReporter_SpeedCalculation tests speed calculation
func TestCallbackReporter_SpeedCalculation(t *testing.T) {
	var lastUpdate Update
	reporter := NewCallbackReporter(func(u Update) {
		lastUpdate = u
	})

	reporter.Start("test.txt", 100000)
	time.Sleep(100 * time.Millisecond)
	reporter.Update(50000)

	// Roughly 500KB/s; loose upper bound for slow CI machines
	if lastUpdate.BytesPerSecond < 100000 || lastUpdate.BytesPerSecond > 600000 {
		t.Errorf("expected speed around 500000 B/s, got %.0f", lastUpdate.BytesPerSecond)
	}
}

// TestProgressReader tests the ProgressReader wrapper
func TestProgressReader(t *testing.T) {
	data := []byte("Hello, World!")
	reader := bytes.NewReader(data)

	var bytesRead int64
	reporter := NewCallbackReporter(func(u Update) {
		if u.Type == UpdateProgress {
			bytesRead = u.CurrentBytes
		}
	})

	reporter.Start("test.txt", int64(len(data)))
	pr := NewProgressReader(reader, reporter)

	got, err := io.ReadAll(pr)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if len(got) != len(data) {
		t.Errorf("expected to read %d bytes, got %d", len(data), len(got))
	}
	if bytesRead != int64(len(data)) {
		t.Errorf("expected progress update of %d bytes, got %d", len(data), bytesRead)
	}
	if pr.Transferred() != int64(len(data)) {
		t.Errorf("Transferred() = %d, want %d", pr.Transferred(), len(data))
	}
}

// TestCallbackReporter_Concurrent tests concurrent progress updates
func TestCallbackReporter_Concurrent(t *testing.T) {
	var mu sync.Mutex
	var updates []Update

	reporter := NewCallbackReporter(func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	reporter.BeginBatch("all", 5)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reporter.Start("file.txt", 100)
			for j := 0; j < 10; j++ {
				reporter.Update(int64(j * 10))
			}
			reporter.Complete()
			reporter.Advance()
		}()
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Error("expected some updates")
	}
}

// TestSecurity_CallbackDeadlock tests that callbacks don't cause deadlock
func TestSecurity_CallbackDeadlock(t *testing.T) {
	done := make(chan bool, 1)

	var reporter *CallbackReporter
	reporter = NewCallbackReporter(func(u Update) {
		// Re-entrance: would deadlock if the lock were held during callback
		switch u.Type {
		case UpdateStart:
			reporter.Update(10)
		case UpdateBatchBegin:
			reporter.Advance()
		}
	})

	go func() {
		reporter.BeginBatch("batch", 1)
		reporter.Start("test.txt", 100)
		reporter.Complete()
		reporter.EndBatch()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deadlock detected - callback was called while holding lock")
	}
}

// TestFormatBytes tests byte formatting
func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{-1, "0 B"},
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{1536 * 1024 * 1024, "1.5 GiB"},
	}

	for _, tt := range tests {
		got := FormatBytes(tt.bytes)
		if got != tt.expected {
			t.Errorf("FormatBytes(%d) = %s, want %s", tt.bytes, got, tt.expected)
		}
	}
}

// TestFormatSpeed tests speed formatting
func TestFormatSpeed(t *testing.T) {
	result := FormatSpeed(1024.0 * 1024.0)
	if result != "1.0 MiB/s" {
		t.Errorf("FormatSpeed(1048576) = %s, want '1.0 MiB/s'", result)
	}
}

// TestFormatProgress tests progress bar generation
func TestFormatProgress(t *testing.T) {
	tests := []struct {
		current  int64
		total    int64
		width    int
		contains string
	}{
		{0, 100, 20, "[>"},
		{50, 100, 20, "50.0%"},
		{100, 100, 20, "100.0%"},
	}

	for _, tt := range tests {
		got := FormatProgress(tt.current, tt.total, tt.width)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("FormatProgress(%d, %d, %d) = %s, should contain '%s'",
				tt.current, tt.total, tt.width, got, tt.contains)
		}
	}

	if got := FormatProgress(0, 0, 20); got != "" {
		t.Errorf("FormatProgress with zero total = %q, want empty", got)
	}
}

// TestNullReporter tests that NullReporter doesn't panic
func TestNullReporter(t *testing.T) {
	var nr Reporter = NullReporter{}

	nr.BeginBatch("x", 1)
	nr.Start("test.txt", 100)
	nr.Update(50)
	nr.Complete()
	nr.Error(io.EOF)
	nr.Advance()
	nr.EndBatch()
}
