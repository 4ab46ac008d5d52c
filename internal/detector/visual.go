package detector

// visualChannel detects hard scene cuts by comparing coarse luminance
// signatures of consecutive frames. Capture errors permanently disable the
// channel; a surface that failed once will keep failing and retrying it
// every tick is wasted work.
type visualChannel struct {
	prevSignature float64
	hasPrev       bool
	blocked       bool

	deltaThreshold float64
}

func newVisualChannel(deltaThreshold float64) *visualChannel {
	return &visualChannel{deltaThreshold: deltaThreshold}
}

// signatureStride sub-samples every sixth pixel of the RGBA grid.
const signatureStride = 24

// observe compares the frame signature against the previous one and
// reports whether the relative change crosses the cut threshold.
func (v *visualChannel) observe(frame Frame, err error) (delta float64, cut bool) {
	if v.blocked {
		return 0, false
	}
	if err != nil {
		v.blocked = true
		return 0, false
	}
	if len(frame.Pixels) < 4 {
		return 0, false
	}

	var signature float64
	for i := 0; i+2 < len(frame.Pixels); i += signatureStride {
		signature += float64(frame.Pixels[i]) + float64(frame.Pixels[i+1]) + float64(frame.Pixels[i+2])
	}

	if v.hasPrev {
		base := v.prevSignature
		if base < 1 {
			base = 1
		}
		delta = abs(signature-v.prevSignature) / base
		cut = delta > v.deltaThreshold
	}

	v.prevSignature = signature
	v.hasPrev = true
	return delta, cut
}

func (v *visualChannel) reset() {
	v.prevSignature = 0
	v.hasPrev = false
}

func abs(value float64) float64 {
	if value < 0 {
		return -value
	}
	return value
}
