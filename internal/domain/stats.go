package domain

// Stats summarises one mirror run. Counters reflect work that actually
// reached the store, so a failed run reports its partial progress.
type Stats struct {
	FilesUploaded  int
	BytesUploaded  int64
	FoldersCreated int
	FoldersReused  int

	// SkippedCycles counts directories not descended into because they
	// resolve to a directory already being mirrored higher up the tree.
	SkippedCycles int
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.FilesUploaded += other.FilesUploaded
	s.BytesUploaded += other.BytesUploaded
	s.FoldersCreated += other.FoldersCreated
	s.FoldersReused += other.FoldersReused
	s.SkippedCycles += other.SkippedCycles
}
