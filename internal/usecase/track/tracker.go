// Package track keeps the previous-cycle counters and turns fresh values
// into positive deltas.
//
// Trackers are owned by the polling loop and used from one goroutine only.
package track

// LikeTracker maps a video title to its last observed like count.
type LikeTracker struct {
	last map[string]int64
}

// NewLikeTracker creates an empty LikeTracker.
func NewLikeTracker() *LikeTracker {
	return &LikeTracker{last: make(map[string]int64)}
}

// Observe folds one cycle of fresh counts into the table and returns the
// sum of increases since the previous observation.
//
// An unseen title becomes a baseline and contributes nothing. A seen title
// contributes fresh-previous when the count grew. The stored value is always
// overwritten, so a decrease becomes the new baseline. Titles absent from
// fresh (for example because their batch failed) keep their stored value.
func (t *LikeTracker) Observe(fresh map[string]int64) int64 {
	var total int64
	for title, likes := range fresh {
		prev, seen := t.last[title]
		if seen && likes > prev {
			total += likes - prev
		}
		t.last[title] = likes
	}
	return total
}

// Len returns the number of tracked titles.
func (t *LikeTracker) Len() int {
	return len(t.last)
}

// SubscriberTracker holds the last observed subscriber count.
type SubscriberTracker struct {
	last int64
	has  bool
}

// NewSubscriberTracker creates a SubscriberTracker without a baseline.
func NewSubscriberTracker() *SubscriberTracker {
	return &SubscriberTracker{}
}

// Observe records fresh and returns how much it grew since the previous
// observation. The first call sets the baseline and returns 0. A tie or a
// decrease returns 0 and still updates the stored value.
func (t *SubscriberTracker) Observe(fresh int64) int64 {
	prev, had := t.last, t.has
	t.last, t.has = fresh, true
	if !had || fresh <= prev {
		return 0
	}
	return fresh - prev
}
