package pulse

import "sync"

// depEntry records one source a derivation read during its last completed
// run, plus the source's version at that moment. refresh is non-nil for
// memo sources: it forces the memo clean so its version reflects an actual
// recomputation before the comparison.
type depEntry struct {
	src     *signalBase
	seen    uint64
	refresh func()
}

// depSet is the dependency set of a derivation. It is rebuilt from scratch
// on every run: the previous entries are dropped at run start, and only the
// sources actually read are recorded. Branches not taken therefore create
// no subscriptions.
type depSet struct {
	mu      sync.Mutex
	entries []depEntry
}

// add records a dependency, deduplicated by source. The version observed at
// first read is kept; later reads in the same run see the same version.
func (d *depSet) add(src *signalBase, refresh func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.entries {
		if d.entries[i].src == src {
			return
		}
	}
	d.entries = append(d.entries, depEntry{
		src:     src,
		seen:    src.loadVersion(),
		refresh: refresh,
	})
}

// clear drops every recorded dependency and removes sub from each source's
// subscriber set. Called at run start (clear-then-record) and when a run
// panics mid-body, so a failed run never leaves half-registered entries.
func (d *depSet) clear(sub Listener) {
	d.mu.Lock()
	entries := d.entries
	d.entries = nil
	d.mu.Unlock()

	for _, e := range entries {
		e.src.unsubscribe(sub)
	}
}

// changed reports whether any recorded dependency has moved past the
// version observed during the last completed run. Memo dependencies are
// brought clean first, so a stale-but-unchanged memo does not count as a
// change and the scheduled re-run can be skipped.
func (d *depSet) changed() bool {
	d.mu.Lock()
	entries := make([]depEntry, len(d.entries))
	copy(entries, d.entries)
	d.mu.Unlock()

	for _, e := range entries {
		if e.refresh != nil {
			e.refresh()
		}
		if e.src.loadVersion() != e.seen {
			return true
		}
	}
	return false
}

// empty reports whether the set has no recorded dependencies.
func (d *depSet) empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries) == 0
}
