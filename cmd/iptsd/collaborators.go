package main

// Collaborator contracts the core parser deliberately leaves unspecified
// (spec.md §6: "None of these are specified by the core"). The reference
// embedder names them as small interfaces and wires minimal, clearly
// inert implementations — a real desktop/kernel integration would supply
// its own. Growing these stubs into real clustering or uinput emission
// is out of scope; see SPEC_FULL.md §6.

import "github.com/quo/iptsd/ipts"

// DisplaySizeSource resolves the logical display dimensions a Heatmap or
// StylusData sample should be mapped against. Populated once from
// ipts.Metadata when available, or from static configuration otherwise.
type DisplaySizeSource interface {
	DisplaySize() (width, height int)
}

// ContactTracker consumes heatmap frames to run downstream contact
// extraction (eigen-decomposition, palm rejection, finger tracking). The
// core only hands it raw grids; everything past that is the embedder's
// job.
type ContactTracker interface {
	TrackContacts(ipts.Heatmap)
}

// VirtualInputEmitter turns resolved stylus/contact events into whatever
// the host OS expects (a uinput device, a compositor protocol, ...).
type VirtualInputEmitter interface {
	EmitStylus(ipts.StylusData)
	EmitSingletouch(ipts.SingletouchData)
}

// staticDisplaySize is a DisplaySizeSource backed by config flags, used
// when no Metadata frame has arrived yet (or the device never sends one).
type staticDisplaySize struct {
	width, height int
}

func (s *staticDisplaySize) DisplaySize() (int, int) { return s.width, s.height }

// metadataDisplaySize adapts the most recently observed ipts.Metadata
// into a DisplaySizeSource, falling back to a static default until the
// first Metadata frame arrives.
type metadataDisplaySize struct {
	fallback DisplaySizeSource
	have     bool
	width    int
	height   int
}

func (s *metadataDisplaySize) observe(m ipts.Metadata) {
	s.width = int(m.LogicalWidth)
	s.height = int(m.LogicalHeight)
	s.have = true
}

func (s *metadataDisplaySize) DisplaySize() (int, int) {
	if s.have {
		return s.width, s.height
	}
	return s.fallback.DisplaySize()
}

// stdoutContactTracker is a placeholder ContactTracker: it does no
// clustering whatsoever, it just logs that a grid arrived. A real
// embedder replaces this with an actual finger/palm pipeline.
type stdoutContactTracker struct {
	log *logger
}

func (t *stdoutContactTracker) TrackContacts(h ipts.Heatmap) {
	t.log.debugf("heatmap %dx%d ts=%d count=%d (no contact extraction wired)", h.Width, h.Height, h.Timestamp, h.Count)
}

// stdoutInputEmitter is a placeholder VirtualInputEmitter: it logs the
// event instead of driving a uinput device.
type stdoutInputEmitter struct {
	log *logger
}

func (e *stdoutInputEmitter) EmitStylus(d ipts.StylusData) {
	e.log.debugf("stylus proximity=%v contact=%v button=%v rubber=%v x=%.4f y=%.4f pressure=%.4f",
		d.Proximity, d.Contact, d.Button, d.Rubber, d.X, d.Y, d.Pressure)
}

func (e *stdoutInputEmitter) EmitSingletouch(d ipts.SingletouchData) {
	e.log.debugf("singletouch touch=%v x=%d y=%d", d.Touch, d.X, d.Y)
}
