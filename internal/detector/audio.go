package detector

// audioChannel detects sudden loudness spikes against an exponential
// moving average of recent levels. The EMA warms up for a fixed number of
// samples before any spike can fire, so the first seconds of playback
// never trigger on their own.
type audioChannel struct {
	average float64
	samples int

	spikeRatio    float64
	floor         float64
	warmupSamples int
}

func newAudioChannel(spikeRatio, floor float64, warmupSamples int) *audioChannel {
	return &audioChannel{
		spikeRatio:    spikeRatio,
		floor:         floor,
		warmupSamples: warmupSamples,
	}
}

const (
	emaRetain = 0.92
	emaBlend  = 0.08
)

// observe folds one spectrum into the moving average and reports whether
// the instantaneous level qualifies as a spike.
func (a *audioChannel) observe(bins []byte) (level float64, spike bool) {
	if len(bins) == 0 {
		return 0, false
	}

	var sum float64
	for _, bin := range bins {
		sum += float64(bin)
	}
	level = sum / float64(len(bins))

	a.average = a.average*emaRetain + level*emaBlend
	a.samples++

	if a.samples < a.warmupSamples {
		return level, false
	}
	return level, level > a.average*a.spikeRatio && level > a.floor
}

func (a *audioChannel) reset() {
	a.average = 0
	a.samples = 0
}
