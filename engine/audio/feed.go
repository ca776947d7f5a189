package audio

import "sync/atomic"

// Feed hands snapshots from the analysis producer to the frame loop. Publishing never blocks: a snapshot
// not yet read is replaced by the next one, so the reader only ever sees the newest.
//
// One goroutine publishes and one reads.
type Feed struct {
	latest    atomic.Pointer[snapshotBox]
	published atomic.Uint64

	// reader-side bookkeeping
	lastSeen atomic.Uint64
	distinct atomic.Uint64
}

type snapshotBox struct {
	s   Snapshot
	seq uint64
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Publish replaces the pending snapshot.
func (f *Feed) Publish(s Snapshot) {
	seq := f.published.Add(1)
	f.latest.Store(&snapshotBox{s: s, seq: seq})
}

// Latest returns the newest snapshot, or false before anything was published. A nil Feed stands for an
// absent device and always reports false.
//
// Returns:
//   - Snapshot: the newest snapshot
//   - bool: whether a snapshot exists
func (f *Feed) Latest() (Snapshot, bool) {
	if f == nil {
		return nil, false
	}
	box := f.latest.Load()
	if box == nil {
		return nil, false
	}
	if box.seq != f.lastSeen.Load() {
		f.lastSeen.Store(box.seq)
		f.distinct.Add(1)
	}
	return box.s, true
}

// Dropped returns how many snapshots were replaced before the reader saw them, up to the last Latest call.
func (f *Feed) Dropped() uint64 {
	if f == nil {
		return 0
	}
	return f.lastSeen.Load() - f.distinct.Load()
}
