package pulse

import (
	"sync"
	"time"
)

// Probe receives engine events as they happen. Attach one with SetProbe to
// observe writes, recomputations, effect runs, and batch flushes without
// touching the hot path when no probe is attached.
//
// Probe methods are called synchronously from the goroutine driving the
// engine, so implementations must be fast and must not read or write
// signals.
type Probe interface {
	// SignalWrite is called after a signal write that changed the value.
	SignalWrite(id uint64)

	// MemoRecompute is called after a memo body runs. changed reports
	// whether the new value differed from the cached one.
	MemoRecompute(id uint64, changed bool)

	// EffectRun is called after an effect body completes, with its duration.
	EffectRun(id uint64, d time.Duration)

	// EffectSkip is called when a scheduled effect is skipped because no
	// recorded dependency actually changed value.
	EffectSkip(id uint64)

	// BatchFlush is called when a batch flushes, with the number of
	// distinct listeners notified.
	BatchFlush(listeners int)
}

// multiProbe fans events out to several probes in order.
type multiProbe []Probe

func (m multiProbe) SignalWrite(id uint64) {
	for _, p := range m {
		p.SignalWrite(id)
	}
}

func (m multiProbe) MemoRecompute(id uint64, changed bool) {
	for _, p := range m {
		p.MemoRecompute(id, changed)
	}
}

func (m multiProbe) EffectRun(id uint64, d time.Duration) {
	for _, p := range m {
		p.EffectRun(id, d)
	}
}

func (m multiProbe) EffectSkip(id uint64) {
	for _, p := range m {
		p.EffectSkip(id)
	}
}

func (m multiProbe) BatchFlush(listeners int) {
	for _, p := range m {
		p.BatchFlush(listeners)
	}
}

// CombineProbes returns a Probe that delivers every event to each of the
// given probes, in order. Nil entries are skipped.
func CombineProbes(probes ...Probe) Probe {
	combined := make(multiProbe, 0, len(probes))
	for _, p := range probes {
		if p != nil {
			combined = append(combined, p)
		}
	}
	if len(combined) == 1 {
		return combined[0]
	}
	return combined
}

var (
	probeMu sync.RWMutex
	probe   Probe
)

// SetProbe installs p as the engine's observer. Pass nil to detach.
// Only one probe can be attached at a time; callers that need fan-out
// should compose probes themselves.
func SetProbe(p Probe) {
	probeMu.Lock()
	probe = p
	probeMu.Unlock()
}

func currentProbe() Probe {
	probeMu.RLock()
	defer probeMu.RUnlock()
	return probe
}

func probeSignalWrite(id uint64) {
	if p := currentProbe(); p != nil {
		p.SignalWrite(id)
	}
}

func probeMemoRecompute(id uint64, changed bool) {
	if p := currentProbe(); p != nil {
		p.MemoRecompute(id, changed)
	}
}

func probeEffectRun(id uint64, start time.Time) {
	if p := currentProbe(); p != nil {
		p.EffectRun(id, time.Since(start))
	}
}

func probeEffectSkip(id uint64) {
	if p := currentProbe(); p != nil {
		p.EffectSkip(id)
	}
}

func probeBatchFlush(listeners int) {
	if p := currentProbe(); p != nil {
		p.BatchFlush(listeners)
	}
}
