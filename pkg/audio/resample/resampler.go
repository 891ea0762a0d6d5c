// ABOUTME: Linear interpolation resampler for mixing voices
// ABOUTME: Supports rate changes mid-stream and looping playback
package resample

// Resampler performs linear interpolation over a mono source
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
	position   float64
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	r := &Resampler{outputRate: outputRate}
	r.SetInputRate(inputRate)
	return r
}

// SetInputRate changes the source rate (the playback frequency)
func (r *Resampler) SetInputRate(inputRate int) {
	if inputRate <= 0 {
		inputRate = 1
	}
	r.inputRate = inputRate
	if r.outputRate > 0 {
		r.ratio = float64(inputRate) / float64(r.outputRate)
	}
}

// SetOutputRate changes the destination rate
func (r *Resampler) SetOutputRate(outputRate int) {
	if outputRate <= 0 {
		return
	}
	r.outputRate = outputRate
	r.ratio = float64(r.inputRate) / float64(outputRate)
}

// Ratio returns source frames consumed per output frame
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// Next returns the interpolated sample at the current position and advances.
// ok is false once the position runs past the end of src.
func (r *Resampler) Next(src []float32) (sample float32, ok bool) {
	idx := int(r.position)
	if idx >= len(src) {
		return 0, false
	}

	frac := float32(r.position - float64(idx))
	sample = src[idx]
	if idx+1 < len(src) {
		sample += (src[idx+1] - sample) * frac
	}

	r.position += r.ratio
	return sample, true
}

// Wrap folds the position back into [0, length) for looping sources
func (r *Resampler) Wrap(length int) {
	if length <= 0 {
		r.position = 0
		return
	}
	for r.position >= float64(length) {
		r.position -= float64(length)
	}
}

// Consume drops n source frames that were removed from the front of the source
func (r *Resampler) Consume(n int) {
	r.position -= float64(n)
	if r.position < 0 {
		r.position = 0
	}
}

// Position returns the current fractional source position
func (r *Resampler) Position() float64 {
	return r.position
}

// Reset rewinds to the start of the source
func (r *Resampler) Reset() {
	r.position = 0
}
