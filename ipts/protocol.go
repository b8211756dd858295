package ipts

// Protocol constants and record layouts. Integer widths and byte order
// are fixed by the device firmware; every record is decoded field-by-field
// from a Reader rather than reinterpreted from raw memory, so Go struct
// padding never enters into it.
//
// The stylus, heatmap-dimension, timestamp, pen-metadata and DFT record
// shapes below are bit-exact with the report codes the kernel driver and
// every known generation of this daemon share (see DESIGN.md); the outer
// HID-frame/legacy-container framing differs by generation and lives in
// parser.go / parser_legacy.go respectively.

// Device-wide protocol constants (spec.md §6).
const (
	MaxX              = 9600
	MaxY              = 7200
	Diagonal          = 12000
	MaxPressureV1     = 1024
	MaxPressureV2     = 4096
	DFTNumComponents  = 9
	DFTMaxRows        = 16
	DFTPressureRows   = 6
	dftCenterIdx      = DFTNumComponents / 2
	singletouchMaxVal = 1 << 15
)

// DFT data type ids (shared across both protocol generations).
const (
	DFTDataTypePosition = 6
	DFTDataTypeButton   = 9
	DFTDataTypePressure = 11
)

// Report type codes. These are the hardware-defined report codes found
// inside a Reports frame (nested grammar) or a stylus/heatmap payload
// frame (legacy grammar) — the same byte value means the same report in
// both generations.
const (
	ReportTypeHeatmapDim    = 0x03
	ReportTypeStylusV1      = 0x10
	ReportTypeHeatmapData   = 0x25
	ReportTypePenMagnitude  = 0x5b
	ReportTypePenDftWindow  = 0x5c
	ReportTypePenMetadata   = 0x5f
	ReportTypeStylusV2      = 0x60
	// ReportTypeTimestamp carries the heatmap timestamp record (running
	// sequence counter plus device clock). Both the nested Reports frame
	// and the legacy heatmap payload frame dispatch it under this code.
	ReportTypeTimestamp = 0x04
)

// HID frame types (nested grammar, parser.go).
const (
	FrameTypeHid      = 0x00
	FrameTypeHeatmap  = 0x01
	FrameTypeMetadata = 0x02
	FrameTypeLegacy   = 0x03
	FrameTypeReports  = 0x04
)

// Legacy container grammar constants (original_source/src/ipts/protocol.h).
const (
	legacyDataTypePayload   = 0x0
	legacyDataTypeHidReport = 0x3

	legacyPayloadFrameTypeStylus  = 0x6
	legacyPayloadFrameTypeHeatmap = 0x8

	legacyHidReportSingletouch = 0x40
)

// stylus mode bitfield (shared across generations).
const (
	modeBitProximity = 0
	modeBitContact   = 1
	modeBitButton    = 2
	modeBitRubber    = 3
)

// --- Nested HID-frame grammar headers ---

// hidFrameHeader precedes every frame in the nested grammar. Size
// includes the header itself.
type hidFrameHeader struct {
	Size uint32
	Type uint8
}

const sizeofHidFrameHeader = 5

func readHidFrameHeader(r *Reader) (hidFrameHeader, error) {
	var h hidFrameHeader
	size, err := r.U32()
	if err != nil {
		return h, err
	}
	typ, err := r.U8()
	if err != nil {
		return h, err
	}
	h.Size = size
	h.Type = typ
	return h, nil
}

// reportHeader precedes every report inside a Reports frame (nested
// grammar) or a legacy stylus/heatmap payload frame. Size is the length
// of the report body that follows, not including this header.
type reportHeader struct {
	Type  uint8
	Flags uint8
	Size  uint16
}

const sizeofReportHeader = 4

func readReportHeader(r *Reader) (reportHeader, error) {
	var h reportHeader
	typ, err := r.U8()
	if err != nil {
		return h, err
	}
	flags, err := r.U8()
	if err != nil {
		return h, err
	}
	size, err := r.U16()
	if err != nil {
		return h, err
	}
	h.Type, h.Flags, h.Size = typ, flags, size
	return h, nil
}

// heatmapFrameHeader precedes the raw heatmap payload inside a Heatmap
// HID frame.
type heatmapFrameHeader struct {
	Reserved uint32
}

const sizeofHeatmapFrameHeader = 4

func readHeatmapFrameHeader(r *Reader) (heatmapFrameHeader, error) {
	v, err := r.U32()
	return heatmapFrameHeader{Reserved: v}, err
}

// legacyHeader precedes a group list inside a Legacy HID frame.
type legacyHeader struct {
	Elements uint8
}

const sizeofLegacyHeader = 4 // 1 byte + 3 reserved

func readLegacyHeader(r *Reader) (legacyHeader, error) {
	elements, err := r.U8()
	if err != nil {
		return legacyHeader{}, err
	}
	if err := r.Skip(3); err != nil {
		return legacyHeader{}, err
	}
	return legacyHeader{Elements: elements}, nil
}

// legacyGroupHeader precedes each group inside a Legacy frame's element
// list.
type legacyGroupHeader struct {
	Type uint8
	Size uint32
}

func readLegacyGroupHeader(r *Reader) (legacyGroupHeader, error) {
	typ, err := r.U8()
	if err != nil {
		return legacyGroupHeader{}, err
	}
	if err := r.Skip(3); err != nil {
		return legacyGroupHeader{}, err
	}
	size, err := r.U32()
	if err != nil {
		return legacyGroupHeader{}, err
	}
	return legacyGroupHeader{Type: typ, Size: size}, nil
}

// --- Stylus records ---

type stylusReportHeader struct {
	Elements uint8
	Serial   uint32
}

func readStylusReportHeader(r *Reader) (stylusReportHeader, error) {
	elements, err := r.U8()
	if err != nil {
		return stylusReportHeader{}, err
	}
	if err := r.Skip(3); err != nil {
		return stylusReportHeader{}, err
	}
	serial, err := r.U32()
	if err != nil {
		return stylusReportHeader{}, err
	}
	return stylusReportHeader{Elements: elements, Serial: serial}, nil
}

type stylusSampleV1 struct {
	Mode     uint8
	X        uint16
	Y        uint16
	Pressure uint16
}

func readStylusSampleV1(r *Reader) (stylusSampleV1, error) {
	if err := r.Skip(4); err != nil {
		return stylusSampleV1{}, err
	}
	mode, err := r.U8()
	if err != nil {
		return stylusSampleV1{}, err
	}
	x, err := r.U16()
	if err != nil {
		return stylusSampleV1{}, err
	}
	y, err := r.U16()
	if err != nil {
		return stylusSampleV1{}, err
	}
	pressure, err := r.U16()
	if err != nil {
		return stylusSampleV1{}, err
	}
	if err := r.Skip(1); err != nil {
		return stylusSampleV1{}, err
	}
	return stylusSampleV1{Mode: mode, X: x, Y: y, Pressure: pressure}, nil
}

type stylusSampleV2 struct {
	Timestamp uint16
	Mode      uint16
	X         uint16
	Y         uint16
	Pressure  uint16
	Altitude  uint16
	Azimuth   uint16
}

func readStylusSampleV2(r *Reader) (stylusSampleV2, error) {
	timestamp, err := r.U16()
	if err != nil {
		return stylusSampleV2{}, err
	}
	mode, err := r.U16()
	if err != nil {
		return stylusSampleV2{}, err
	}
	x, err := r.U16()
	if err != nil {
		return stylusSampleV2{}, err
	}
	y, err := r.U16()
	if err != nil {
		return stylusSampleV2{}, err
	}
	pressure, err := r.U16()
	if err != nil {
		return stylusSampleV2{}, err
	}
	altitude, err := r.U16()
	if err != nil {
		return stylusSampleV2{}, err
	}
	azimuth, err := r.U16()
	if err != nil {
		return stylusSampleV2{}, err
	}
	if err := r.Skip(2); err != nil {
		return stylusSampleV2{}, err
	}
	return stylusSampleV2{
		Timestamp: timestamp,
		Mode:      mode,
		X:         x,
		Y:         y,
		Pressure:  pressure,
		Altitude:  altitude,
		Azimuth:   azimuth,
	}, nil
}

// --- Heatmap records ---

type heatmapDim struct {
	Height uint8
	Width  uint8
	YMin   uint8
	YMax   uint8
	XMin   uint8
	XMax   uint8
	ZMin   uint8
	ZMax   uint8
}

const sizeofHeatmapDim = 8

func readHeatmapDim(r *Reader) (heatmapDim, error) {
	var d heatmapDim
	vals := make([]uint8, sizeofHeatmapDim)
	for i := range vals {
		v, err := r.U8()
		if err != nil {
			return heatmapDim{}, err
		}
		vals[i] = v
	}
	d.Height, d.Width = vals[0], vals[1]
	d.YMin, d.YMax = vals[2], vals[3]
	d.XMin, d.XMax = vals[4], vals[5]
	d.ZMin, d.ZMax = vals[6], vals[7]
	return d, nil
}

type timestampRecord struct {
	Count     uint32
	Timestamp uint32
}

func readTimestampRecord(r *Reader) (timestampRecord, error) {
	count, err := r.U32()
	if err != nil {
		return timestampRecord{}, err
	}
	timestamp, err := r.U32()
	if err != nil {
		return timestampRecord{}, err
	}
	return timestampRecord{Count: count, Timestamp: timestamp}, nil
}

// --- Pen metadata & DFT records ---

type penMetadataRecord struct {
	SeqNum   uint8
	DataType uint8
	Group    uint32
}

func readPenMetadataRecord(r *Reader) (penMetadataRecord, error) {
	seqNum, err := r.U8()
	if err != nil {
		return penMetadataRecord{}, err
	}
	dataType, err := r.U8()
	if err != nil {
		return penMetadataRecord{}, err
	}
	if err := r.Skip(2); err != nil {
		return penMetadataRecord{}, err
	}
	group, err := r.U32()
	if err != nil {
		return penMetadataRecord{}, err
	}
	return penMetadataRecord{SeqNum: seqNum, DataType: dataType, Group: group}, nil
}

type dftWindowHeader struct {
	Timestamp uint32
	NumRows   uint8
	SeqNum    uint8
	DataType  uint8
}

func readDftWindowHeader(r *Reader) (dftWindowHeader, error) {
	timestamp, err := r.U32()
	if err != nil {
		return dftWindowHeader{}, err
	}
	numRows, err := r.U8()
	if err != nil {
		return dftWindowHeader{}, err
	}
	seqNum, err := r.U8()
	if err != nil {
		return dftWindowHeader{}, err
	}
	if err := r.Skip(3); err != nil { // three opaque bytes
		return dftWindowHeader{}, err
	}
	dataType, err := r.U8()
	if err != nil {
		return dftWindowHeader{}, err
	}
	if err := r.Skip(2); err != nil { // padding
		return dftWindowHeader{}, err
	}
	return dftWindowHeader{Timestamp: timestamp, NumRows: numRows, SeqNum: seqNum, DataType: dataType}, nil
}

const sizeofDftWindowRow = 4 + 4 + 2*DFTNumComponents + 2*DFTNumComponents + 4

func readDftWindowRow(r *Reader) (DftRow, error) {
	var row DftRow

	frequency, err := r.U32()
	if err != nil {
		return row, err
	}
	magnitude, err := r.U32()
	if err != nil {
		return row, err
	}

	var real, imag [DFTNumComponents]int16
	for i := 0; i < DFTNumComponents; i++ {
		v, err := r.I16()
		if err != nil {
			return row, err
		}
		real[i] = v
	}
	for i := 0; i < DFTNumComponents; i++ {
		v, err := r.I16()
		if err != nil {
			return row, err
		}
		imag[i] = v
	}

	first, err := r.I8()
	if err != nil {
		return row, err
	}
	last, err := r.I8()
	if err != nil {
		return row, err
	}
	mid, err := r.I8()
	if err != nil {
		return row, err
	}
	zero, err := r.I8()
	if err != nil {
		return row, err
	}

	row.Frequency = frequency
	row.Magnitude = magnitude
	row.Real = real
	row.Imag = imag
	row.First = first
	row.Last = last
	row.Mid = mid
	row.Zero = zero
	return row, nil
}

// --- Metadata records (Metadata HID frame, nested grammar only) ---

type metadataDimensions struct {
	PhysicalWidth  uint32
	PhysicalHeight uint32
	LogicalWidth   uint32
	LogicalHeight  uint32
}

func readMetadataDimensions(r *Reader) (metadataDimensions, error) {
	pw, err := r.U32()
	if err != nil {
		return metadataDimensions{}, err
	}
	ph, err := r.U32()
	if err != nil {
		return metadataDimensions{}, err
	}
	lw, err := r.U32()
	if err != nil {
		return metadataDimensions{}, err
	}
	lh, err := r.U32()
	if err != nil {
		return metadataDimensions{}, err
	}
	return metadataDimensions{PhysicalWidth: pw, PhysicalHeight: ph, LogicalWidth: lw, LogicalHeight: lh}, nil
}

type metadataTransform struct {
	Values [6]float32
}

func readMetadataTransform(r *Reader) (metadataTransform, error) {
	var t metadataTransform
	for i := range t.Values {
		v, err := r.F32()
		if err != nil {
			return metadataTransform{}, err
		}
		t.Values[i] = v
	}
	return t, nil
}

// --- Singletouch (legacy grammar only) ---

type singletouchRecord struct {
	Touch uint8
	X     uint16
	Y     uint16
}

func readSingletouchRecord(r *Reader) (singletouchRecord, error) {
	touch, err := r.U8()
	if err != nil {
		return singletouchRecord{}, err
	}
	x, err := r.U16()
	if err != nil {
		return singletouchRecord{}, err
	}
	y, err := r.U16()
	if err != nil {
		return singletouchRecord{}, err
	}
	return singletouchRecord{Touch: touch, X: x, Y: y}, nil
}

// --- Pen magnitude (NEW, supplemented from original_source/src/ipts/protocol.h) ---

const (
	penMagnitudeXLen = 64
	penMagnitudeYLen = 44
)

func readPenMagnitudeData(r *Reader) (PenMagnitudeData, error) {
	var d PenMagnitudeData

	if err := r.Skip(2); err != nil { // unknown1
		return d, err
	}
	if err := r.Skip(2); err != nil { // unknown2
		return d, err
	}
	flags, err := r.U8()
	if err != nil {
		return d, err
	}
	if err := r.Skip(3); err != nil { // unknown3
		return d, err
	}

	var x [penMagnitudeXLen]uint32
	for i := range x {
		v, err := r.U32()
		if err != nil {
			return d, err
		}
		x[i] = v
	}
	var y [penMagnitudeYLen]uint32
	for i := range y {
		v, err := r.U32()
		if err != nil {
			return d, err
		}
		y[i] = v
	}

	d.Flags = flags
	d.X = x
	d.Y = y
	return d, nil
}
