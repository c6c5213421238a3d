package cellar

import "time"

// WithLimits sets the extraction size cap and the clock of s.
func WithLimits(s *Store, maxEntrySize int64, now func() time.Time) *Store {
	s.maxEntrySize = maxEntrySize
	s.now = now
	return s
}
