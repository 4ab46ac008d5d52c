package detector

import "scenefilter/internal/segment"

// emissionToleranceSeconds treats candidates whose bounds land within this
// distance of an earlier emission as the same detection.
const emissionToleranceSeconds = 2.0

// emitter deduplicates fused candidates against recent emissions so one
// sustained scene does not flood the heuristic tier with near-identical
// segments. The memory is a bounded FIFO; once full, the oldest emission
// is forgotten and its span becomes emittable again.
type emitter struct {
	emitted []segment.Segment
	limit   int
}

func newEmitter(limit int) *emitter {
	if limit <= 0 {
		limit = 1
	}
	return &emitter{limit: limit}
}

// record registers a segment and reports whether it is new enough to
// deliver.
func (e *emitter) record(seg segment.Segment) bool {
	for _, prev := range e.emitted {
		if prev.Type == seg.Type &&
			abs(prev.Start-seg.Start) < emissionToleranceSeconds &&
			abs(prev.End-seg.End) < emissionToleranceSeconds {
			return false
		}
	}

	e.emitted = append(e.emitted, seg)
	if len(e.emitted) > e.limit {
		e.emitted = e.emitted[1:]
	}
	return true
}

func (e *emitter) reset() {
	e.emitted = nil
}
