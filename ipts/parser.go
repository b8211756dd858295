package ipts

// Parser is a recursive-descent driver over the IPTS frame tree. It is
// single-threaded and synchronous: every observer callback fires inline
// on the calling goroutine before Parse returns, and a Parser instance is
// not safe for concurrent use — callers needing concurrency should use
// one Parser per goroutine.
//
// Parser caches three small pieces of cross-report context (most recent
// heatmap dimensions, most recent pen-DFT metadata, most recent
// timestamp) that survive across Parse calls. A failed Parse call leaves
// this context in its last consistent state; already-delivered observer
// events are not retracted.
type Parser struct {
	InvertX bool
	InvertY bool

	// Observer callbacks. Any may be left nil, in which case the
	// corresponding event is simply dropped.
	OnSingletouch  func(SingletouchData)
	OnStylus       func(StylusData)
	OnHeatmap      func(Heatmap)
	OnDftWindow    func(DftWindow)
	OnMetadata     func(Metadata)
	OnPenMagnitude func(PenMagnitudeData)

	lastDim       heatmapDim
	haveLastDim   bool
	lastTimestamp timestampRecord
	lastPenMeta   penMetadataRecord
	havePenMeta   bool

	// stylus DFT state machine (spec.md §4.6/§4.8)
	stylus     StylusData
	stylusReal int
	stylusImag int
}

// Parse skips the three-byte HID report header (report id + 16-bit
// timestamp) and processes a single top-level HID frame using the nested
// HID-frame grammar (spec.md §4.2).
func (p *Parser) Parse(data []byte) error {
	r := NewReader(data)
	if err := r.Skip(3); err != nil {
		return err
	}
	return p.parseHidFrame(r)
}

// ParseWithHeader is the generalization of Parse that skips an arbitrary
// headerSize bytes instead of the fixed three-byte HID report header,
// used for containers that prepend other headers.
func (p *Parser) ParseWithHeader(data []byte, headerSize int) error {
	r := NewReader(data)
	if err := r.Skip(headerSize); err != nil {
		return err
	}
	return p.parseHidFrame(r)
}

// parseHidFrame reads one frame header and dispatches on its type.
func (p *Parser) parseHidFrame(r *Reader) error {
	header, err := readHidFrameHeader(r)
	if err != nil {
		return err
	}

	bodyLen := int(header.Size) - sizeofHidFrameHeader
	if bodyLen < 0 {
		return ErrTruncated
	}
	body, err := r.Sub(bodyLen)
	if err != nil {
		return err
	}

	switch header.Type {
	case FrameTypeHid:
		return p.parseHidFrameList(body)
	case FrameTypeHeatmap:
		return p.parseHeatmapFrame(body)
	case FrameTypeMetadata:
		return p.parseMetadataFrame(body)
	case FrameTypeLegacy:
		return p.parseLegacyFrame(body)
	case FrameTypeReports:
		return p.parseReportsFrame(body)
	default:
		// Unknown frame type: forward-compatibility, not an error.
		return nil
	}
}

// parseHidFrameList recursively parses a list of HID frames until body
// is exhausted.
func (p *Parser) parseHidFrameList(body *Reader) error {
	for body.Remaining() > 0 {
		if err := p.parseHidFrame(body); err != nil {
			return err
		}
	}
	return nil
}

// parseHeatmapFrame reads the heatmap sub-header and emits heatmap data
// using the cached dimensions.
func (p *Parser) parseHeatmapFrame(body *Reader) error {
	if _, err := readHeatmapFrameHeader(body); err != nil {
		return err
	}
	return p.emitHeatmap(body)
}

// parseMetadataFrame decodes dimensions, an unknown byte, a transform,
// and an opaque unknown block, then invokes OnMetadata.
func (p *Parser) parseMetadataFrame(body *Reader) error {
	dims, err := readMetadataDimensions(body)
	if err != nil {
		return err
	}
	if err := body.Skip(1); err != nil { // unknown byte
		return err
	}
	transform, err := readMetadataTransform(body)
	if err != nil {
		return err
	}
	unknown, err := body.Subspan(body.Remaining())
	if err != nil {
		return err
	}

	meta := Metadata{
		PhysicalWidth:  dims.PhysicalWidth,
		PhysicalHeight: dims.PhysicalHeight,
		LogicalWidth:   dims.LogicalWidth,
		LogicalHeight:  dims.LogicalHeight,
		Transform:      transform.Values,
		Unknown:        append([]byte(nil), unknown...),
	}

	if p.OnMetadata != nil {
		p.OnMetadata(meta)
	}
	return nil
}

// parseLegacyFrame decodes a legacy header with Elements groups; groups
// of type Stylus or Touch recurse into report-frame parsing.
func (p *Parser) parseLegacyFrame(body *Reader) error {
	hdr, err := readLegacyHeader(body)
	if err != nil {
		return err
	}

	for i := uint8(0); i < hdr.Elements; i++ {
		group, err := readLegacyGroupHeader(body)
		if err != nil {
			return err
		}
		groupBody, err := body.Sub(int(group.Size))
		if err != nil {
			return err
		}

		switch group.Type {
		case legacyGroupTypeStylus, legacyGroupTypeTouch:
			if err := p.parseReportsFrame(groupBody); err != nil {
				return err
			}
		default:
			// Unknown group type: ignore.
		}
	}
	return nil
}

// Legacy-frame group types (distinct from the legacy *container* grammar
// in parser_legacy.go — this is the "Legacy" frame type of the nested
// grammar, which embeds the same idea of grouping stylus/touch reports).
const (
	legacyGroupTypeStylus = 0
	legacyGroupTypeTouch  = 1
)

// parseReportsFrame parses a list of report frames. The SP7 quirk: if
// body is exactly 4 bytes, silently drop it (observed malformed packet).
func (p *Parser) parseReportsFrame(body *Reader) error {
	if body.Remaining() == 4 {
		return nil
	}

	for body.Remaining() > 0 {
		header, err := readReportHeader(body)
		if err != nil {
			return err
		}
		reportBody, err := body.Sub(int(header.Size))
		if err != nil {
			return err
		}

		switch header.Type {
		case ReportTypeStylusV1:
			if err := p.parseStylusV1(reportBody); err != nil {
				return err
			}
		case ReportTypeStylusV2:
			if err := p.parseStylusV2(reportBody); err != nil {
				return err
			}
		case ReportTypeHeatmapDim:
			if err := p.cacheHeatmapDim(reportBody); err != nil {
				return err
			}
		case ReportTypeTimestamp:
			if err := p.cacheTimestamp(reportBody); err != nil {
				return err
			}
		case ReportTypeHeatmapData:
			if err := p.emitHeatmap(reportBody); err != nil {
				return err
			}
		case ReportTypePenMetadata:
			if err := p.cachePenMetadata(reportBody); err != nil {
				return err
			}
		case ReportTypePenDftWindow:
			if err := p.parseDftWindow(reportBody); err != nil {
				return err
			}
		case ReportTypePenMagnitude:
			if err := p.parsePenMagnitude(reportBody); err != nil {
				return err
			}
		default:
			// Unknown report type: forward-compatibility, not an error.
		}
	}
	return nil
}

func (p *Parser) cachePenMetadata(body *Reader) error {
	meta, err := readPenMetadataRecord(body)
	if err != nil {
		return err
	}
	p.lastPenMeta = meta
	p.havePenMeta = true
	return nil
}

func (p *Parser) parsePenMagnitude(body *Reader) error {
	data, err := readPenMagnitudeData(body)
	if err != nil {
		return err
	}
	if p.OnPenMagnitude != nil {
		p.OnPenMagnitude(data)
	}
	return nil
}

