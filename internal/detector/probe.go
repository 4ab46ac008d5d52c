package detector

import "scenefilter/internal/playback"

// Frame is a downsampled RGBA pixel grid captured from the playback
// surface. Pixels holds 4 bytes per pixel, row-major.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// Probe abstracts the playback capture surface the detector samples.
// Implementations wrap whatever player integration is in use; the detector
// never touches the player directly.
//
// Each accessor reports availability separately so a probe can serve a
// subset of channels. A probe that cannot capture audio keeps the caption
// and visual channels alive.
type Probe interface {
	// Playback reports the current playback position. ok is false when no
	// playback is active.
	Playback() (snapshot playback.Snapshot, ok bool)

	// AudioSpectrum returns the current frequency-bin magnitudes (0..255
	// per bin). ok is false when audio capture is unavailable.
	AudioSpectrum() (bins []byte, ok bool)

	// ActiveCues returns the caption texts currently on screen.
	ActiveCues() []string

	// Frame captures a downsampled video frame. Errors are treated as
	// permanent; the visual channel disables itself on the first one.
	Frame() (Frame, error)

	// Close releases capture resources. Called once when the detector
	// stops.
	Close() error
}
