package ipts

// cacheHeatmapDim caches the most recently observed heatmap dimensions
// for use by the next HeatmapData report in the same frame (or a later
// frame — the cache survives across Parse calls). z_max == 0 is
// normalized to 255 (spec.md §3).
func (p *Parser) cacheHeatmapDim(body *Reader) error {
	dim, err := readHeatmapDim(body)
	if err != nil {
		return err
	}
	if dim.ZMax == 0 {
		dim.ZMax = 255
	}
	p.lastDim = dim
	p.haveLastDim = true
	return nil
}

// cacheTimestamp caches the most recently observed heatmap timestamp
// record.
func (p *Parser) cacheTimestamp(body *Reader) error {
	ts, err := readTimestampRecord(body)
	if err != nil {
		return err
	}
	p.lastTimestamp = ts
	return nil
}

// emitHeatmap copies the span [cursor, cursor+width*height) by reference
// and emits it together with the cached dimensions and timestamp. It
// only fires if dimensions have been observed at least once; otherwise
// the bytes are silently unusable (not an error — the report simply
// can't be attributed to a grid shape yet).
func (p *Parser) emitHeatmap(body *Reader) error {
	if !p.haveLastDim {
		return nil
	}

	n := int(p.lastDim.Width) * int(p.lastDim.Height)
	data, err := body.Subspan(n)
	if err != nil {
		return err
	}

	hm := Heatmap{
		Width:     p.lastDim.Width,
		Height:    p.lastDim.Height,
		YMin:      p.lastDim.YMin,
		YMax:      p.lastDim.YMax,
		XMin:      p.lastDim.XMin,
		XMax:      p.lastDim.XMax,
		ZMin:      p.lastDim.ZMin,
		ZMax:      p.lastDim.ZMax,
		Timestamp: p.lastTimestamp.Timestamp,
		Count:     p.lastTimestamp.Count,
		Data:      data,
	}

	if p.OnHeatmap != nil {
		p.OnHeatmap(hm)
	}
	return nil
}
