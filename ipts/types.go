package ipts

// SingletouchData is the legacy single-contact report (legacy grammar
// only — spec.md §3).
type SingletouchData struct {
	Touch bool
	X     uint16
	Y     uint16
}

// StylusData is a normalized stylus sample. X, Y, and Pressure are
// normalized to [0, 1]; Altitude and Azimuth are in radians. A V1 report
// always carries Altitude=0, Azimuth=0, Timestamp=0.
type StylusData struct {
	Proximity bool
	Contact   bool
	Button    bool
	Rubber    bool

	Timestamp uint16
	X         float64
	Y         float64
	Pressure  float64
	Altitude  float64
	Azimuth   float64
	Serial    uint32
}

// Heatmap is a capacitive grid readout. Data aliases the input buffer the
// Parser was fed; the observer must consume or copy it before the caller
// reuses that buffer.
type Heatmap struct {
	Width  uint8
	Height uint8

	YMin uint8
	YMax uint8
	XMin uint8
	XMax uint8
	ZMin uint8
	ZMax uint8

	Timestamp uint32
	Count     uint32

	Data []byte
}

// DftRow is one antenna's spectrum: a DC-removed carrier window centered
// on the stylus frequency.
type DftRow struct {
	Frequency uint32
	Magnitude uint32
	Real      [DFTNumComponents]int16
	Imag      [DFTNumComponents]int16
	First     int8
	Last      int8
	Mid       int8
	Zero      int8
}

// DftWindow is a raw DFT capture: parallel X/Y antenna rows for one
// stylus data-type sample (position, button, or pressure).
type DftWindow struct {
	DataType uint8
	Rows     int

	X []DftRow
	Y []DftRow

	// Group is the pen-metadata group counter attributed to this window
	// by matching (seq_num, data_type) against the most recently cached
	// PenMetadata. Nil when no matching metadata has been observed yet —
	// this is preserved deliberately, see DESIGN.md Open Question 3.
	Group *uint32

	// Dims is a snapshot of the most recently cached heatmap dimensions
	// at the time this window was parsed.
	Dims DftWindowDims

	Timestamp uint32
}

// DftWindowDims is the heatmap-grid dimensions snapshot attached to a
// DftWindow, as they stood when the window was parsed.
type DftWindowDims struct {
	Cols int
	Rows int
}

// Metadata is the device-reported physical/logical display geometry and
// affine transform, normally populated once at startup.
type Metadata struct {
	PhysicalWidth  uint32
	PhysicalHeight uint32
	LogicalWidth   uint32
	LogicalHeight  uint32

	Transform [6]float32

	// Unknown is an opaque trailing block the device sends but whose
	// semantics are undocumented; copied (not borrowed) since Metadata
	// fires once and is cheap.
	Unknown []byte
}

// PenMagnitudeData is the raw per-antenna magnitude readout (report type
// ReportTypePenMagnitude). Supplemented from
// original_source/src/ipts/protocol.h — spec.md's distillation is silent
// on this report, not exclusive of it (see SPEC_FULL.md §4).
type PenMagnitudeData struct {
	Flags uint8
	X     [penMagnitudeXLen]uint32
	Y     [penMagnitudeYLen]uint32
}
