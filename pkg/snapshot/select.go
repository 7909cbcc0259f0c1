package snapshot

import "time"

// DefaultLookbackDays is how many trailing calendar days Restore searches
// for a usable snapshot. A missed backup cycle must not strand a deployment
// with no state, so restore tolerates up to DefaultLookbackDays-1
// consecutive missed days before falling back to a cold start.
const DefaultLookbackDays = 5

// SelectArchive scans the remote index for the most recent dated archive
// within the lookback window ending at today. Recency is decided purely by
// the name-encoded date: the first hit scanning from today backwards wins.
// Returns false when no day in the window has an archive.
func SelectArchive(index []string, today time.Time, lookbackDays int) (string, bool) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	present := make(map[string]bool, len(index))
	for _, name := range index {
		present[name] = true
	}
	for i := 0; i < lookbackDays; i++ {
		candidate := ArchiveName(today.AddDate(0, 0, -i))
		if present[candidate] {
			return candidate, true
		}
	}
	return "", false
}
