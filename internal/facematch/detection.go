package facematch

// DetectionOutcome is what the external face detector produced for one frame:
// either NoFace or Detected.
type DetectionOutcome interface {
	detectionOutcome()
}

// NoFace means the detector found no face in the frame.
type NoFace struct{}

// Detected carries the single face descriptor extracted from a frame together
// with the detector's quality score in [0, 1].
type Detected struct {
	Descriptor Descriptor
	Confidence float64
}

func (NoFace) detectionOutcome()   {}
func (Detected) detectionOutcome() {}

// NewDetectionOutcome builds an outcome from the loose shape external detectors
// report (a found flag, an optional descriptor and a score).
func NewDetectionOutcome(found bool, descriptor Descriptor, confidence float64) DetectionOutcome {
	if !found || len(descriptor) == 0 {
		return NoFace{}
	}
	return Detected{Descriptor: descriptor, Confidence: confidence}
}
