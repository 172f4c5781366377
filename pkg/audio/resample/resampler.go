// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Converts interleaved float chunks between rates, carrying position across calls
package resample

// Resampler performs linear interpolation to convert between sample rates.
// It keeps the fractional read position and the last input frame so
// consecutive chunks join without a seam.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64   // read position relative to the start of the next chunk; -1 is the carried frame
	lastSample []float64 // last frame of the previous chunk, one sample per channel
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		position:   0.0,
		lastSample: make([]float64, channels),
	}
}

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate
// Returns the number of samples written to output.
func (r *Resampler) Resample(input []float64, output []float64) int {
	if len(input) == 0 || r.channels <= 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	// frame returns input frame idx for channel ch, where -1 is the carried frame
	frame := func(idx, ch int) float64 {
		if idx < 0 {
			return r.lastSample[ch]
		}
		return input[idx*r.channels+ch]
	}

	r.primed = true

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := floorInt(r.position)

		// Need the next frame to interpolate; stop and wait for more input
		if inputIdx+1 >= inputFrames {
			break
		}

		frac := r.position - float64(inputIdx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := frame(inputIdx, ch)
			s2 := frame(inputIdx+1, ch)
			output[outIdx*r.channels+ch] = s1*(1.0-frac) + s2*frac
		}

		outIdx++
		r.position += r.ratio
	}

	// Carry the last frame and rebase the position onto the next chunk
	for ch := 0; ch < r.channels; ch++ {
		r.lastSample[ch] = input[(inputFrames-1)*r.channels+ch]
	}
	r.position -= float64(inputFrames)

	return outIdx * r.channels
}

// Flush emits the held last frame for any output positions that fall on it,
// then resets. Call once after the final chunk.
func (r *Resampler) Flush(output []float64) int {
	if !r.primed || r.channels <= 0 {
		return 0
	}

	outIdx := 0
	outputFrames := len(output) / r.channels
	for outIdx < outputFrames && r.position < 0 {
		for ch := 0; ch < r.channels; ch++ {
			output[outIdx*r.channels+ch] = r.lastSample[ch]
		}
		outIdx++
		r.position += r.ratio
	}

	r.Reset()
	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.primed = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputSamplesNeeded is the output buffer size that always holds what
// Resample or Flush writes for inputSamples. The carried frame can add one
// output frame to a chunk, plus one for rounding.
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 2
	return outputFrames * r.channels
}

func floorInt(x float64) int {
	i := int(x)
	if float64(i) > x {
		i--
	}
	return i
}
