package ipts

import "math"

// Calibration constants for the DFT localization stage (spec.md §4.6,
// cross-checked line for line against
// original_source/src/ipts/dft.cpp).
const (
	minAmpPosition  = 50
	minMagPosition  = 2000
	minMagButton    = 1000
	minMagFrequency = 10000
	positionExp     = -0.7
)

// parseDftWindow reads a DFT window header and its rows, attributes the
// window to an input group via the cached pen metadata, snapshots the
// cached dimensions/timestamp, invokes OnDftWindow, and then runs
// localization (position/button/pressure) against the stylus state
// machine.
func (p *Parser) parseDftWindow(body *Reader) error {
	hdr, err := readDftWindowHeader(body)
	if err != nil {
		return err
	}

	if hdr.NumRows > DFTMaxRows {
		// A window declaring more than the device maximum is rejected —
		// silently, not an error (spec.md §4.5).
		return nil
	}

	n := int(hdr.NumRows)
	xRows := make([]DftRow, n)
	for i := 0; i < n; i++ {
		row, err := readDftWindowRow(body)
		if err != nil {
			return err
		}
		xRows[i] = row
	}
	yRows := make([]DftRow, n)
	for i := 0; i < n; i++ {
		row, err := readDftWindowRow(body)
		if err != nil {
			return err
		}
		yRows[i] = row
	}

	var group *uint32
	if p.havePenMeta && p.lastPenMeta.SeqNum == hdr.SeqNum && p.lastPenMeta.DataType == hdr.DataType {
		g := p.lastPenMeta.Group
		group = &g
	}

	win := DftWindow{
		DataType:  hdr.DataType,
		Rows:      n,
		X:         xRows,
		Y:         yRows,
		Group:     group,
		Timestamp: p.lastTimestamp.Timestamp,
		Dims: DftWindowDims{
			Cols: int(p.lastDim.Width),
			Rows: int(p.lastDim.Height),
		},
	}

	if p.OnDftWindow != nil {
		p.OnDftWindow(win)
	}

	p.processDft(win)
	return nil
}

// processDft dispatches on data_type to update the stylus DFT state
// machine (spec.md §4.6/§4.8) and emit StylusData events.
func (p *Parser) processDft(win DftWindow) {
	switch win.DataType {
	case DFTDataTypePosition:
		p.processPosition(win)
	case DFTDataTypeButton:
		p.processButton(win)
	case DFTDataTypePressure:
		p.processPressure(win)
	}
}

// processPosition consumes the first X and first Y row. Position
// requires magnitude >= minMagPosition on both axes, otherwise the
// stylus loses proximity.
func (p *Parser) processPosition(win DftWindow) {
	cols, rows := win.Dims.Cols, win.Dims.Rows
	if win.Rows == 0 || cols == 0 || rows == 0 {
		p.stopStylus()
		return
	}

	xr, yr := win.X[0], win.Y[0]
	if xr.Magnitude < minMagPosition || yr.Magnitude < minMagPosition {
		p.stopStylus()
		return
	}

	p.stylusReal = int(xr.Real[dftCenterIdx]) + int(yr.Real[dftCenterIdx])
	p.stylusImag = int(xr.Imag[dftCenterIdx]) + int(yr.Imag[dftCenterIdx])

	x := interpolatePosition(xr)
	y := interpolatePosition(yr)
	if math.IsNaN(x) || math.IsNaN(y) {
		p.stopStylus()
		return
	}

	x /= float64(cols - 1)
	y /= float64(rows - 1)
	if p.InvertX {
		x = 1 - x
	}
	if p.InvertY {
		y = 1 - y
	}
	x = clamp(x, 0, 1)
	y = clamp(y, 0, 1)

	p.stylus.Proximity = true
	p.stylus.X = x
	p.stylus.Y = y

	if p.OnStylus != nil {
		p.OnStylus(p.stylus)
	}
}

// processButton compares the current axis-summed center vector to the
// previously stashed position vector to classify button/eraser state by
// relative phase.
func (p *Parser) processButton(win DftWindow) {
	if win.Rows == 0 {
		return
	}

	xr, yr := win.X[0], win.Y[0]

	if xr.Magnitude < minMagButton || yr.Magnitude < minMagButton {
		// Degenerate: below the magnitude floor on either axis carries no
		// classification signal. Per spec, this leaves button/rubber state
		// unchanged rather than being read as "neither pressed".
		return
	}

	real := int(xr.Real[dftCenterIdx]) + int(yr.Real[dftCenterIdx])
	imag := int(xr.Imag[dftCenterIdx]) + int(yr.Imag[dftCenterIdx])
	sign := p.stylusReal*real + p.stylusImag*imag
	button := sign < 0
	rubber := sign > 0

	if rubber != p.stylus.Rubber {
		// Toggling eraser while proximity is asserted causes downstream
		// confusion, so proximity is forced off first — then, if the
		// stylus was actually hovering, re-armed with the new mode.
		// This is the two-event transition: a proximity-off, followed by
		// the new button/rubber state.
		wasHovering := p.stylus.Proximity
		p.stopStylus()
		p.stylus.Button = button
		p.stylus.Rubber = rubber
		if wasHovering {
			p.stylus.Proximity = true
			if p.OnStylus != nil {
				p.OnStylus(p.stylus)
			}
		}
		return
	}

	p.stylus.Button = button
	p.stylus.Rubber = rubber
}

// processPressure interpolates a carrier-frequency peak across rows to
// estimate pressure; requires at least DFTPressureRows rows.
func (p *Parser) processPressure(win DftWindow) {
	if win.Rows < DFTPressureRows {
		return
	}

	norm := interpolateFrequency(win.X, win.Y, DFTPressureRows)
	if math.IsNaN(norm) {
		p.stylus.Contact = false
		p.stylus.Pressure = 0
		return
	}

	pressure := (1 - norm) * MaxPressureV2
	if pressure > 1 {
		p.stylus.Contact = true
		p.stylus.Pressure = math.Min(MaxPressureV2, pressure) / MaxPressureV2
	} else {
		p.stylus.Contact = false
		p.stylus.Pressure = 0
	}
}

// stopStylus is the only synchronization mechanism between the three DFT
// packet classes: if proximity was true, clear proximity/contact/button/
// rubber, zero pressure, and emit exactly one StylusData event.
func (p *Parser) stopStylus() {
	if !p.stylus.Proximity {
		return
	}
	p.stylus.Proximity = false
	p.stylus.Contact = false
	p.stylus.Button = false
	p.stylus.Rubber = false
	p.stylus.Pressure = 0

	if p.OnStylus != nil {
		p.OnStylus(p.stylus)
	}
}

// interpolatePosition finds the sub-cell stylus position along one axis
// by phase-aligning the three components around the carrier peak and
// fitting a parabola to their remapped amplitudes. Returns NaN if there
// is no valid peak.
func interpolatePosition(r DftRow) float64 {
	c := dftCenterIdx
	mind, maxd := -0.5, 0.5

	switch {
	case r.Real[c-1] == 0 && r.Imag[c-1] == 0:
		c++
		mind = -1
	case r.Real[c+1] == 0 && r.Imag[c+1] == 0:
		c--
		maxd = 1
	}

	amp := math.Sqrt(float64(r.Real[c])*float64(r.Real[c]) + float64(r.Imag[c])*float64(r.Imag[c]))
	if amp < minAmpPosition {
		return math.NaN()
	}
	sin := float64(r.Real[c]) / amp
	cos := float64(r.Imag[c]) / amp

	x := [3]float64{
		sin*float64(r.Real[c-1]) + cos*float64(r.Imag[c-1]),
		amp,
		sin*float64(r.Real[c+1]) + cos*float64(r.Imag[c+1]),
	}
	for i := range x {
		x[i] = stablePow(x[i], positionExp)
	}

	if x[0]+x[2] <= 2*x[1] {
		return math.NaN()
	}

	d := (x[0] - x[2]) / (2 * (x[0] - 2*x[1] + x[2]))
	d = clamp(d, mind, maxd)

	return float64(r.First) + float64(c) + d
}

// interpolateFrequency finds the row maximizing combined X+Y magnitude
// across n rows of x/y, then applies Eric Jacobsen's modified quadratic
// estimator to the summed complex samples of the three rows straddling
// that peak. Returns the normalized (0..1) interpolated row index, or
// NaN if there's no row with sufficient combined magnitude.
func interpolateFrequency(x, y []DftRow, n int) float64 {
	if n < 3 {
		return math.NaN()
	}

	maxi, maxm := 0, uint32(0)
	for i := 0; i < n; i++ {
		m := x[i].Magnitude + y[i].Magnitude
		if m > maxm {
			maxm, maxi = m, i
		}
	}
	if maxm < 2*minMagFrequency {
		return math.NaN()
	}

	mind, maxd := -0.5, 0.5
	switch {
	case maxi < 1:
		maxi = 1
		mind = -1
	case maxi > n-2:
		maxi = n - 2
		maxd = 1
	}

	var real, imag [3]int
	for i := 0; i < 3; i++ {
		row := maxi + i - 1
		for j := 0; j < DFTNumComponents; j++ {
			real[i] += int(x[row].Real[j]) + int(y[row].Real[j])
			imag[i] += int(x[row].Imag[j]) + int(y[row].Imag[j])
		}
	}

	ra := real[0] - real[2]
	rb := 2*real[1] - real[0] - real[2]
	ia := imag[0] - imag[2]
	ib := 2*imag[1] - imag[0] - imag[2]

	denom := float64(rb*rb + ib*ib)
	if denom == 0 {
		return math.NaN()
	}
	d := float64(ra*rb+ia*ib) / denom
	d = clamp(d, mind, maxd)

	return (float64(maxi) + d) / float64(n-1)
}

// stablePow produces NaN on a negative base rather than a complex or
// panic-worthy result, so a noisy, negative phase-aligned amplitude
// propagates through the fit to a NaN result (the x[0]+x[2] <= 2*x[1]
// guard is false for NaN, so it is the caller's IsNaN check that rejects
// it) instead of yielding a bogus position (spec.md §9).
func stablePow(base, exp float64) float64 {
	if base < 0 {
		return math.NaN()
	}
	return math.Pow(base, exp)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
