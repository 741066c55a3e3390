package facematch

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// CapturesNeeded is the number of valid frames averaged into an
	// enrollment template.
	CapturesNeeded = 3

	// CaptureCooldown is the minimum spacing between enrollment captures,
	// so the template is not averaged from near-duplicate frames.
	CaptureCooldown = time.Second

	// DetectionInterval is the fixed polling cadence of the capture loops.
	DetectionInterval = 300 * time.Millisecond
)

// ErrTemplateFormat marks a stored template whose length does not match the
// current descriptor format. The only way out is a reset and re-enrollment.
var ErrTemplateFormat = errors.New("stored face template has an outdated format; reset and re-enroll")

// ErrEnrollmentIncomplete is returned when a template is requested before all
// captures have been collected.
var ErrEnrollmentIncomplete = errors.New("enrollment incomplete")

// FrameSource drives the camera. Next blocks until a frame is available;
// Close must deterministically stop the underlying stream and is safe to
// call more than once.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// EnrollmentSession collects quality-passing captures with the required
// cooldown spacing and averages them into an enrollment template.
type EnrollmentSession struct {
	captured    []Descriptor
	lastCapture time.Time
	now         func() time.Time
}

// NewEnrollmentSession starts an empty session.
func NewEnrollmentSession() *EnrollmentSession {
	return &EnrollmentSession{now: time.Now}
}

// Offer hands one detection to the session. It is accepted only when it
// passes quality validation, the cooldown since the previous capture has
// elapsed and the session still needs captures.
func (s *EnrollmentSession) Offer(det Detection) (bool, QualityResult) {
	quality := ValidateQuality(det)
	if !quality.IsValid {
		return false, quality
	}
	if s.Complete() {
		return false, quality
	}

	now := s.now()
	if !s.lastCapture.IsZero() && now.Sub(s.lastCapture) < CaptureCooldown {
		return false, quality
	}

	s.captured = append(s.captured, ExtractDescriptor(det.Landmarks))
	s.lastCapture = now
	return true, quality
}

// Progress reports collected vs required captures.
func (s *EnrollmentSession) Progress() (int, int) {
	return len(s.captured), CapturesNeeded
}

// Complete reports whether all captures are in.
func (s *EnrollmentSession) Complete() bool {
	return len(s.captured) >= CapturesNeeded
}

// Template averages the captures into the enrollment template.
func (s *EnrollmentSession) Template() (Descriptor, error) {
	if !s.Complete() {
		return nil, ErrEnrollmentIncomplete
	}
	return AverageDescriptors(s.captured)
}

// VerificationSession polls detector frames against a stored template and
// latches the first match. The latch guarantees a single success even if
// several matching frames arrive before the loop is torn down.
type VerificationSession struct {
	stored   Descriptor
	detector Detector
	interval time.Duration

	onMatch func(MatchResult)
	latch   sync.Once
}

// NewVerificationSession validates the stored template format up front;
// legacy-length templates fail fast with ErrTemplateFormat so the caller can
// route the user to the mandatory reset-and-re-enroll path.
func NewVerificationSession(stored Descriptor, detector Detector, onMatch func(MatchResult)) (*VerificationSession, error) {
	if len(stored) != TemplateLength {
		return nil, ErrTemplateFormat
	}
	return &VerificationSession{
		stored:   stored,
		detector: detector,
		interval: DetectionInterval,
		onMatch:  onMatch,
	}, nil
}

// Run polls frames from src on the fixed interval until a frame matches, the
// context is cancelled, or the source fails. The source is closed on every
// exit path. Per-frame detector errors and no-match frames keep the loop
// running; nothing in the loop panics or aborts detection.
func (s *VerificationSession) Run(ctx context.Context, src FrameSource) (MatchResult, error) {
	defer src.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return MatchResult{}, ctx.Err()
		case <-ticker.C:
		}

		frame, err := src.Next(ctx)
		if err != nil {
			return MatchResult{}, err
		}

		detections, err := s.detector.DetectFaces(ctx, frame)
		if err != nil || len(detections) == 0 {
			continue
		}

		live := ExtractDescriptor(detections[0].Landmarks)
		result := CompareFaces(s.stored, live)
		if result.IsMatch {
			s.latch.Do(func() {
				if s.onMatch != nil {
					s.onMatch(result)
				}
			})
			return result, nil
		}
	}
}
