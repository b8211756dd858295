package ipts

import "math"

// radiansPerHundredthDegree converts V2's hundredths-of-a-degree integer
// fields to radians: × π / 18000.
const radiansPerHundredthDegree = math.Pi / 18000

// parseStylusV1 decodes an MPP 1.0 stylus report: a header giving the
// element count, followed by that many fixed-size samples spanning a
// 5ms window. Only the last sample is surfaced; earlier samples are
// skipped to suppress jitter (spec.md §4.3).
func (p *Parser) parseStylusV1(body *Reader) error {
	hdr, err := readStylusReportHeader(body)
	if err != nil {
		return err
	}

	var last stylusSampleV1
	for i := uint8(0); i < hdr.Elements; i++ {
		sample, err := readStylusSampleV1(body)
		if err != nil {
			return err
		}
		last = sample
	}
	if hdr.Elements == 0 {
		return nil
	}

	data := StylusData{
		Serial:    hdr.Serial,
		Proximity: last.Mode&(1<<modeBitProximity) != 0,
		Button:    last.Mode&(1<<modeBitButton) != 0,
		Rubber:    last.Mode&(1<<modeBitRubber) != 0,
		X:         float64(last.X) / MaxX,
		Y:         float64(last.Y) / MaxY,
		Pressure:  float64(last.Pressure) / MaxPressureV1,
	}
	data.Contact = data.Pressure > 0

	if p.OnStylus != nil {
		p.OnStylus(data)
	}
	return nil
}

// parseStylusV2 decodes an MPP 1.51 stylus report the same way, with
// tilt (altitude/azimuth) and an on-device timestamp.
func (p *Parser) parseStylusV2(body *Reader) error {
	hdr, err := readStylusReportHeader(body)
	if err != nil {
		return err
	}

	var last stylusSampleV2
	for i := uint8(0); i < hdr.Elements; i++ {
		sample, err := readStylusSampleV2(body)
		if err != nil {
			return err
		}
		last = sample
	}
	if hdr.Elements == 0 {
		return nil
	}

	data := StylusData{
		Serial:    hdr.Serial,
		Timestamp: last.Timestamp,
		Proximity: last.Mode&(1<<modeBitProximity) != 0,
		Button:    last.Mode&(1<<modeBitButton) != 0,
		Rubber:    last.Mode&(1<<modeBitRubber) != 0,
		X:         float64(last.X) / MaxX,
		Y:         float64(last.Y) / MaxY,
		Pressure:  float64(last.Pressure) / MaxPressureV2,
		Altitude:  float64(last.Altitude) * radiansPerHundredthDegree,
		Azimuth:   float64(last.Azimuth) * radiansPerHundredthDegree,
	}
	data.Contact = data.Pressure > 0

	if p.OnStylus != nil {
		p.OnStylus(data)
	}
	return nil
}
