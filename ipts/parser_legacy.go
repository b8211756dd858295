package ipts

// Legacy container grammar: the flat ipts_data/ipts_payload/
// ipts_payload_frame framing used by an earlier generation of this
// daemon (original_source/src/ipts/{parser.cpp,protocol.h}). spec.md's
// Open Questions section explicitly calls for supporting both grammars
// behind a runtime discriminator rather than merging their opcode
// tables — this file is that second grammar. It shares the nested
// grammar's cached context (lastDim/lastTimestamp/lastPenMeta) and
// stylus/heatmap emission helpers in parser.go/heatmap.go/stylus.go; only
// the outer framing differs.
//
// Scope note: the HID_REPORT branch's heatmap-via-HID-report path
// (original's parse_hid_heatmap/parse_hid_heatmap_data) depended on a
// struct (ipts_hid_heatmap_header) not present in the retrieved
// protocol.h — evidently a later header revision than the bundled
// parser.cpp. Rather than invent its layout, this implementation handles
// the PAYLOAD branch's heatmap path fully (bit-exact with protocol.h) and
// treats unrecognized HID report codes in the HID_REPORT branch the same
// way the original does for codes it doesn't special-case: skip, no
// error.

// legacyContainerHeader is ipts_data: a fixed 64-byte header preceding
// every top-level container in the legacy grammar.
type legacyContainerHeader struct {
	Type uint32
	Size uint32
}

const sizeofLegacyContainerHeader = 64

func readLegacyContainerHeader(r *Reader) (legacyContainerHeader, error) {
	typ, err := r.U32()
	if err != nil {
		return legacyContainerHeader{}, err
	}
	size, err := r.U32()
	if err != nil {
		return legacyContainerHeader{}, err
	}
	if err := r.Skip(4); err != nil { // buffer
		return legacyContainerHeader{}, err
	}
	if err := r.Skip(52); err != nil { // reserved
		return legacyContainerHeader{}, err
	}
	return legacyContainerHeader{Type: typ, Size: size}, nil
}

type legacyPayloadHeader struct {
	Frames uint32
}

func readLegacyPayloadHeader(r *Reader) (legacyPayloadHeader, error) {
	if err := r.Skip(4); err != nil { // counter
		return legacyPayloadHeader{}, err
	}
	frames, err := r.U32()
	if err != nil {
		return legacyPayloadHeader{}, err
	}
	if err := r.Skip(4); err != nil { // reserved
		return legacyPayloadHeader{}, err
	}
	return legacyPayloadHeader{Frames: frames}, nil
}

type legacyPayloadFrameHeader struct {
	Type uint16
	Size uint32
}

func readLegacyPayloadFrameHeader(r *Reader) (legacyPayloadFrameHeader, error) {
	if err := r.Skip(2); err != nil { // index
		return legacyPayloadFrameHeader{}, err
	}
	typ, err := r.U16()
	if err != nil {
		return legacyPayloadFrameHeader{}, err
	}
	size, err := r.U32()
	if err != nil {
		return legacyPayloadFrameHeader{}, err
	}
	if err := r.Skip(8); err != nil { // reserved
		return legacyPayloadFrameHeader{}, err
	}
	return legacyPayloadFrameHeader{Type: typ, Size: size}, nil
}

// ParseLegacyContainer decodes one top-level container using the legacy
// flat grammar.
func (p *Parser) ParseLegacyContainer(data []byte) error {
	r := NewReader(data)
	hdr, err := readLegacyContainerHeader(r)
	if err != nil {
		return err
	}

	switch hdr.Type {
	case legacyDataTypePayload:
		body, err := r.Sub(int(hdr.Size))
		if err != nil {
			return err
		}
		return p.parseLegacyPayload(body)
	case legacyDataTypeHidReport:
		body, err := r.Sub(int(hdr.Size))
		if err != nil {
			return err
		}
		return p.parseLegacyHidReport(body)
	default:
		return r.Skip(int(hdr.Size))
	}
}

func (p *Parser) parseLegacyPayload(body *Reader) error {
	hdr, err := readLegacyPayloadHeader(body)
	if err != nil {
		return err
	}

	for i := uint32(0); i < hdr.Frames; i++ {
		frame, err := readLegacyPayloadFrameHeader(body)
		if err != nil {
			return err
		}
		frameBody, err := body.Sub(int(frame.Size))
		if err != nil {
			return err
		}

		switch frame.Type {
		case legacyPayloadFrameTypeStylus:
			if err := p.parseLegacyStylusFrame(frameBody); err != nil {
				return err
			}
		case legacyPayloadFrameTypeHeatmap:
			if err := p.parseLegacyHeatmapFrame(frameBody); err != nil {
				return err
			}
		default:
			// Unknown payload frame type: skip, not an error.
		}
	}
	return nil
}

// parseLegacyStylusFrame reads a budget of report headers/bodies,
// dispatching StylusV1/V2 reports and skipping everything else.
func (p *Parser) parseLegacyStylusFrame(body *Reader) error {
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
		default:
			// Unknown report type: skip, not an error.
		}
	}
	return nil
}

// parseLegacyHeatmapFrame reads heatmap-dimension, timestamp, and
// heatmap-data reports, caching the first two and emitting on the third
// (same shared cache as the nested grammar).
func (p *Parser) parseLegacyHeatmapFrame(body *Reader) error {
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
		default:
			// Unknown report type: skip, not an error.
		}
	}
	return nil
}

// parseLegacyHidReport handles the IPTS_DATA_TYPE_HID_REPORT branch: a
// single report code byte followed by its body.
func (p *Parser) parseLegacyHidReport(body *Reader) error {
	code, err := body.U8()
	if err != nil {
		return err
	}

	switch code {
	case legacyHidReportSingletouch:
		return p.parseLegacySingletouch(body)
	default:
		// Unknown HID report code: skip the remainder (not an error —
		// see the scope note at the top of this file for why the
		// heatmap-via-HID-report path isn't special-cased here).
		return body.Skip(body.Remaining())
	}
}

func (p *Parser) parseLegacySingletouch(body *Reader) error {
	rec, err := readSingletouchRecord(body)
	if err != nil {
		return err
	}

	data := SingletouchData{
		Touch: rec.Touch != 0,
		X:     rec.X,
		Y:     rec.Y,
	}
	if p.OnSingletouch != nil {
		p.OnSingletouch(data)
	}
	return nil
}
