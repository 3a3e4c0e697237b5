package pagecap

// Frame is one captured image of the automation surface at a point in the
// capture loop. Frames are never mutated after creation.
type Frame struct {
	// Data is the encoded image payload.
	Data []byte

	// Lossy records whether the frame was captured with a lossy encoding.
	Lossy bool
}

// ByteSize returns the size of the encoded frame in bytes.
func (f Frame) ByteSize() int64 {
	return int64(len(f.Data))
}

// FramesByteSize sums the encoded size of a frame sequence.
func FramesByteSize(frames []Frame) int64 {
	var total int64
	for _, f := range frames {
		total += f.ByteSize()
	}
	return total
}
