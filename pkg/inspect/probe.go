// Package inspect exposes a live view of a running reactive engine over
// HTTP. It attaches to the engine through the probe hook and streams
// events to WebSocket subscribers, alongside plain JSON stats and
// Prometheus metrics endpoints.
package inspect

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/pulseui/pulse/pkg/pulse"
)

// Event is one engine occurrence streamed to inspector clients.
type Event struct {
	// Kind is one of "signal_write", "memo_recompute", "effect_run",
	// "effect_skip", "batch_flush".
	Kind string `json:"kind"`

	// NodeID identifies the signal, memo, or effect involved.
	// Zero for batch flushes.
	NodeID uint64 `json:"node_id,omitempty"`

	// Changed reports whether a memo recomputation produced a new value.
	Changed bool `json:"changed,omitempty"`

	// DurationMicros is the effect body duration for effect_run events.
	DurationMicros int64 `json:"duration_micros,omitempty"`

	// Listeners is the flush size for batch_flush events.
	Listeners int `json:"listeners,omitempty"`

	// Time is when the event was observed, in Unix milliseconds.
	Time int64 `json:"time"`
}

// Stats is a point-in-time summary of engine activity since the probe
// attached.
type Stats struct {
	SignalWrites  uint64 `json:"signal_writes"`
	MemoRuns      uint64 `json:"memo_runs"`
	MemoUnchanged uint64 `json:"memo_unchanged"`
	EffectRuns    uint64 `json:"effect_runs"`
	EffectSkips   uint64 `json:"effect_skips"`
	BatchFlushes  uint64 `json:"batch_flushes"`
	Clients       int    `json:"clients"`
}

// probe implements pulse.Probe, counting activity and fanning events out
// to the hub.
type probe struct {
	hub *Hub

	signalWrites  atomic.Uint64
	memoRuns      atomic.Uint64
	memoUnchanged atomic.Uint64
	effectRuns    atomic.Uint64
	effectSkips   atomic.Uint64
	batchFlushes  atomic.Uint64
}

func newProbe(hub *Hub) *probe {
	return &probe{hub: hub}
}

func (p *probe) stats() Stats {
	return Stats{
		SignalWrites:  p.signalWrites.Load(),
		MemoRuns:      p.memoRuns.Load(),
		MemoUnchanged: p.memoUnchanged.Load(),
		EffectRuns:    p.effectRuns.Load(),
		EffectSkips:   p.effectSkips.Load(),
		BatchFlushes:  p.batchFlushes.Load(),
		Clients:       p.hub.ClientCount(),
	}
}

func (p *probe) emit(ev Event) {
	ev.Time = time.Now().UnixMilli()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	p.hub.Broadcast(data)
}

// SignalWrite implements pulse.Probe.
func (p *probe) SignalWrite(id uint64) {
	p.signalWrites.Add(1)
	p.emit(Event{Kind: "signal_write", NodeID: id})
}

// MemoRecompute implements pulse.Probe.
func (p *probe) MemoRecompute(id uint64, changed bool) {
	p.memoRuns.Add(1)
	if !changed {
		p.memoUnchanged.Add(1)
	}
	p.emit(Event{Kind: "memo_recompute", NodeID: id, Changed: changed})
}

// EffectRun implements pulse.Probe.
func (p *probe) EffectRun(id uint64, d time.Duration) {
	p.effectRuns.Add(1)
	p.emit(Event{Kind: "effect_run", NodeID: id, DurationMicros: d.Microseconds()})
}

// EffectSkip implements pulse.Probe.
func (p *probe) EffectSkip(id uint64) {
	p.effectSkips.Add(1)
	p.emit(Event{Kind: "effect_skip", NodeID: id})
}

// BatchFlush implements pulse.Probe.
func (p *probe) BatchFlush(listeners int) {
	p.batchFlushes.Add(1)
	p.emit(Event{Kind: "batch_flush", Listeners: listeners})
}

var _ pulse.Probe = (*probe)(nil)
