package ipts

import (
	"encoding/binary"
	"math"
	"testing"
)

// --- little-endian byte builders, used only by tests ---

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func lef32(v float32) []byte {
	return le32(math.Float32bits(v))
}

// buildHidFrame wraps body in a nested-grammar frame header.
func buildHidFrame(frameType uint8, body []byte) []byte {
	out := le32(uint32(sizeofHidFrameHeader + len(body)))
	out = append(out, frameType)
	return append(out, body...)
}

// buildReport wraps body in a report header for use inside a Reports
// frame.
func buildReport(reportType uint8, body []byte) []byte {
	out := []byte{reportType, 0}
	out = append(out, le16(uint16(len(body)))...)
	return append(out, body...)
}

// buildPacket prepends the 3-byte HID report envelope Parser.Parse expects.
func buildPacket(frame []byte) []byte {
	out := make([]byte, 3)
	return append(out, frame...)
}

func encodeStylusSampleV2(timestamp, mode, x, y, pressure, altitude, azimuth uint16) []byte {
	out := le16(timestamp)
	out = append(out, le16(mode)...)
	out = append(out, le16(x)...)
	out = append(out, le16(y)...)
	out = append(out, le16(pressure)...)
	out = append(out, le16(altitude)...)
	out = append(out, le16(azimuth)...)
	out = append(out, 0, 0) // reserved
	return out
}

func encodeStylusSampleV1(mode uint8, x, y, pressure uint16) []byte {
	out := []byte{0, 0, 0, 0, mode}
	out = append(out, le16(x)...)
	out = append(out, le16(y)...)
	out = append(out, le16(pressure)...)
	out = append(out, 0) // reserved
	return out
}

func encodeStylusReportHeader(elements uint8, serial uint32) []byte {
	out := []byte{elements, 0, 0, 0}
	return append(out, le32(serial)...)
}

func encodeHeatmapDim(height, width, yMin, yMax, xMin, xMax, zMin, zMax uint8) []byte {
	return []byte{height, width, yMin, yMax, xMin, xMax, zMin, zMax}
}

func encodeTimestampRecord(count, timestamp uint32) []byte {
	return append(le32(count), le32(timestamp)...)
}

// --- tests ---

func TestParseStylusV2LastSampleWins(t *testing.T) {
	hdr := encodeStylusReportHeader(2, 0xAABBCCDD)
	first := encodeStylusSampleV2(1, 0, 100, 100, 50, 0, 0)
	last := encodeStylusSampleV2(2, 1<<modeBitProximity, 300, 300, 200, 0, 0)
	body := append(hdr, first...)
	body = append(body, last...)

	report := buildReport(ReportTypeStylusV2, body)
	frame := buildHidFrame(FrameTypeReports, report)
	packet := buildPacket(frame)

	var got StylusData
	var calls int
	p := &Parser{OnStylus: func(d StylusData) { got = d; calls++ }}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 {
		t.Fatalf("OnStylus called %d times, want 1", calls)
	}
	if got.Serial != 0xAABBCCDD {
		t.Fatalf("Serial = %#x", got.Serial)
	}
	if got.X != 300.0/MaxX || got.Y != 300.0/MaxY {
		t.Fatalf("X,Y = %v,%v", got.X, got.Y)
	}
	if got.Pressure != 200.0/MaxPressureV2 {
		t.Fatalf("Pressure = %v, want %v", got.Pressure, 200.0/MaxPressureV2)
	}
	if !got.Contact {
		t.Fatalf("Contact = false, want true (pressure > 0)")
	}
	if !got.Proximity {
		t.Fatalf("Proximity = false, want true")
	}
}

func TestParseStylusV1JitterSuppression(t *testing.T) {
	hdr := encodeStylusReportHeader(3, 1)
	s1 := encodeStylusSampleV1(0, 10, 10, 5)
	s2 := encodeStylusSampleV1(0, 20, 20, 5)
	s3 := encodeStylusSampleV1(0, 30, 30, 5)
	body := append(hdr, s1...)
	body = append(body, s2...)
	body = append(body, s3...)

	report := buildReport(ReportTypeStylusV1, body)
	frame := buildHidFrame(FrameTypeReports, report)
	packet := buildPacket(frame)

	var events []StylusData
	p := &Parser{OnStylus: func(d StylusData) { events = append(events, d) }}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d stylus events, want 1 (only last sample surfaces)", len(events))
	}
	if events[0].X != 30.0/MaxX {
		t.Fatalf("X = %v, want last sample's X", events[0].X)
	}
}

func TestParseHeatmapRequiresDimensionsFirst(t *testing.T) {
	dimBody := encodeHeatmapDim(2, 3, 0, 0, 0, 0, 0, 0)
	tsBody := encodeTimestampRecord(7, 1234)
	pixels := []byte{1, 2, 3, 4, 5, 6}

	reports := buildReport(ReportTypeHeatmapDim, dimBody)
	reports = append(reports, buildReport(ReportTypeTimestamp, tsBody)...)
	reports = append(reports, buildReport(ReportTypeHeatmapData, pixels)...)

	frame := buildHidFrame(FrameTypeReports, reports)
	packet := buildPacket(frame)

	var got Heatmap
	var calls int
	p := &Parser{OnHeatmap: func(h Heatmap) { got = h; calls++ }}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 {
		t.Fatalf("OnHeatmap called %d times, want 1", calls)
	}
	if got.Width != 3 || got.Height != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", got.Width, got.Height)
	}
	if got.ZMax != 255 {
		t.Fatalf("ZMax = %d, want 255 (z_max==0 normalized)", got.ZMax)
	}
	if got.Count != 7 || got.Timestamp != 1234 {
		t.Fatalf("Count/Timestamp = %d/%d", got.Count, got.Timestamp)
	}
	if len(got.Data) != 6 {
		t.Fatalf("len(Data) = %d, want 6", len(got.Data))
	}
}

func TestParseHeatmapDataWithoutDimensionsIsDropped(t *testing.T) {
	pixels := []byte{1, 2, 3}
	reports := buildReport(ReportTypeHeatmapData, pixels)
	frame := buildHidFrame(FrameTypeReports, reports)
	packet := buildPacket(frame)

	calls := 0
	p := &Parser{OnHeatmap: func(Heatmap) { calls++ }}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 0 {
		t.Fatalf("OnHeatmap called %d times, want 0 (no dims cached yet)", calls)
	}
}

func TestParseReportsFrameSP7Quirk(t *testing.T) {
	// A 4-byte Reports frame body is a known malformed packet that must be
	// dropped silently rather than interpreted as a truncated report
	// header.
	frame := buildHidFrame(FrameTypeReports, []byte{1, 2, 3, 4})
	packet := buildPacket(frame)

	p := &Parser{}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v, want nil (SP7 quirk silently dropped)", err)
	}
}

func TestParseUnknownFrameTypeIsForwardCompatible(t *testing.T) {
	frame := buildHidFrame(0x7f, []byte{1, 2, 3})
	packet := buildPacket(frame)

	p := &Parser{}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v, want nil for unknown frame type", err)
	}
}

func TestParseUnknownReportTypeIsForwardCompatible(t *testing.T) {
	reports := buildReport(0xee, []byte{9, 9, 9})
	frame := buildHidFrame(FrameTypeReports, reports)
	packet := buildPacket(frame)

	p := &Parser{}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v, want nil for unknown report type", err)
	}
}

func TestParseTruncatedFrameHeaderErrors(t *testing.T) {
	// Declares a size larger than the data that follows.
	frame := le32(999)
	frame = append(frame, FrameTypeReports)
	packet := buildPacket(frame)

	p := &Parser{}
	if err := p.Parse(packet); err == nil {
		t.Fatalf("Parse succeeded on a frame whose declared size exceeds the buffer")
	}
}

func TestParseMetadataFrame(t *testing.T) {
	dims := append(le32(1920), le32(1080)...)
	dims = append(dims, le32(1920)...)
	dims = append(dims, le32(1080)...)
	body := append(dims, 0) // unknown byte
	for i := 0; i < 6; i++ {
		body = append(body, lef32(float32(i)+0.5)...)
	}
	body = append(body, 0xDE, 0xAD) // trailing unknown block

	frame := buildHidFrame(FrameTypeMetadata, body)
	packet := buildPacket(frame)

	var got Metadata
	calls := 0
	p := &Parser{OnMetadata: func(m Metadata) { got = m; calls++ }}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 {
		t.Fatalf("OnMetadata called %d times, want 1", calls)
	}
	if got.PhysicalWidth != 1920 || got.LogicalHeight != 1080 {
		t.Fatalf("dims = %+v", got)
	}
	if got.Transform[0] != 0.5 || got.Transform[5] != 5.5 {
		t.Fatalf("transform = %v", got.Transform)
	}
	if len(got.Unknown) != 2 || got.Unknown[0] != 0xDE {
		t.Fatalf("unknown block = %v", got.Unknown)
	}
}

func TestParsePenMagnitude(t *testing.T) {
	body := []byte{0, 0, 0, 0} // unknown1, unknown2
	body = append(body, 0x07)  // flags
	body = append(body, 0, 0, 0)
	for i := 0; i < penMagnitudeXLen; i++ {
		body = append(body, le32(uint32(i))...)
	}
	for i := 0; i < penMagnitudeYLen; i++ {
		body = append(body, le32(uint32(1000+i))...)
	}

	reports := buildReport(ReportTypePenMagnitude, body)
	frame := buildHidFrame(FrameTypeReports, reports)
	packet := buildPacket(frame)

	var got PenMagnitudeData
	calls := 0
	p := &Parser{OnPenMagnitude: func(d PenMagnitudeData) { got = d; calls++ }}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 {
		t.Fatalf("OnPenMagnitude called %d times, want 1", calls)
	}
	if got.Flags != 0x07 {
		t.Fatalf("Flags = %#x", got.Flags)
	}
	if got.X[0] != 0 || got.X[63] != 63 {
		t.Fatalf("X = %v", got.X)
	}
	if got.Y[0] != 1000 || got.Y[43] != 1043 {
		t.Fatalf("Y = %v", got.Y)
	}
}

func TestParseHidFrameListRecurses(t *testing.T) {
	report := buildReport(ReportTypeStylusV1, append(encodeStylusReportHeader(1, 42), encodeStylusSampleV1(0, 1, 1, 1)...))
	inner := buildHidFrame(FrameTypeReports, report)
	list := buildHidFrame(FrameTypeHid, append(inner, inner...))
	packet := buildPacket(list)

	calls := 0
	p := &Parser{OnStylus: func(StylusData) { calls++ }}
	if err := p.Parse(packet); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 2 {
		t.Fatalf("OnStylus called %d times, want 2 (two nested frames)", calls)
	}
}
