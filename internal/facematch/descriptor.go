// Package facematch implements the face descriptor engine used to gate
// attendance punches: landmark normalization, enrollment template averaging
// and the similarity match decision. All functions are pure; degenerate
// inputs produce sentinel values instead of errors so per-frame callers can
// keep polling.
package facematch

import (
	"errors"
	"math"
)

// Landmark indices in detector output order.
const (
	LandmarkRightEye = iota
	LandmarkLeftEye
	LandmarkNose
	LandmarkMouth
	LandmarkRightEar
	LandmarkLeftEar

	landmarkCount
)

const (
	// TemplateLength is 6 landmarks * 2 normalized coordinates. Stored
	// templates of any other length are treated as a legacy format.
	TemplateLength = 12

	// MatchThreshold is the Euclidean distance below which two descriptors
	// are considered the same face. Fixed design parameter, chosen
	// empirically for relative landmark checking.
	MatchThreshold = 0.4

	// MinProbability is the minimum detector confidence for a usable frame.
	MinProbability = 0.9

	// MinFaceArea is the minimum bounding-box area fraction; smaller faces
	// are too far from the camera.
	MinFaceArea = 0.02
)

// Point is a 2D landmark coordinate.
type Point struct {
	X float64
	Y float64
}

// Landmarks are the 6 facial points reported by the detector, ordered
// right-eye, left-eye, nose, mouth, right-ear, left-ear.
type Landmarks [landmarkCount]Point

// Descriptor is a shape vector derived from the landmarks, invariant to face
// position and scale.
type Descriptor []float64

// Detection is a single face prediction from the detector model, with
// coordinates relative to the frame (0..1).
type Detection struct {
	Probability float64
	TopLeft     Point
	BottomRight Point
	Landmarks   Landmarks
}

// MatchResult is the outcome of comparing a live descriptor against a stored
// template.
type MatchResult struct {
	IsMatch    bool    `json:"isMatch"`
	Confidence float64 `json:"confidence"`
}

// QualityResult reports whether a detection is usable for capture.
type QualityResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

// ErrNoDescriptors is returned when averaging is requested without a single
// capture.
var ErrNoDescriptors = errors.New("no descriptors provided")

// ExtractDescriptor turns the 6 landmarks into a 12-number shape vector.
// Every point is expressed relative to the nose and scaled by the distance
// between the eyes, so only the shape of the face remains. When the eyes
// coincide the geometry is degenerate and a zero vector is returned.
func ExtractDescriptor(lm Landmarks) Descriptor {
	rightEye := lm[LandmarkRightEye]
	leftEye := lm[LandmarkLeftEye]
	nose := lm[LandmarkNose]

	dx := rightEye.X - leftEye.X
	dy := rightEye.Y - leftEye.Y
	eyeDistance := math.Sqrt(dx*dx + dy*dy)

	if eyeDistance == 0 {
		return make(Descriptor, TemplateLength)
	}

	descriptor := make(Descriptor, 0, TemplateLength)
	for _, p := range lm {
		descriptor = append(descriptor, (p.X-nose.X)/eyeDistance)
		descriptor = append(descriptor, (p.Y-nose.Y)/eyeDistance)
	}
	return descriptor
}

// AverageDescriptors computes the element-wise mean of several captures.
// Enrollment averages multiple frames into one template for better accuracy.
func AverageDescriptors(descriptors []Descriptor) (Descriptor, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoDescriptors
	}

	length := len(descriptors[0])
	averaged := make(Descriptor, length)
	for _, d := range descriptors {
		for i, v := range d {
			averaged[i] += v
		}
	}
	for i := range averaged {
		averaged[i] /= float64(len(descriptors))
	}
	return averaged, nil
}

// euclideanDistance returns the distance between two descriptors. The second
// return value is false when the lengths differ (legacy format mismatch).
func euclideanDistance(a, b Descriptor) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), true
}

// CompareFaces matches a live descriptor against the stored template.
// A length mismatch is a designed failure mode, not a crash: it short-circuits
// to no-match with zero confidence so the verification loop degrades to
// "keep trying". Confidence maps distance onto 0..1 against the theoretical
// maximum sqrt(len), rounded to 2 decimals.
func CompareFaces(stored, live Descriptor) MatchResult {
	distance, ok := euclideanDistance(stored, live)
	if !ok {
		return MatchResult{IsMatch: false, Confidence: 0}
	}

	maxDistance := math.Sqrt(float64(len(stored)))
	similarity := math.Max(0, 1-distance/maxDistance)

	return MatchResult{
		IsMatch:    distance < MatchThreshold,
		Confidence: math.Round(similarity*100) / 100,
	}
}

// ValidateQuality rejects detections that are too uncertain or too small to
// produce a stable descriptor. There is deliberately no upper bound on face
// size; the "too close" rejection is disabled pending investigation.
func ValidateQuality(det Detection) QualityResult {
	if det.Probability < MinProbability {
		return QualityResult{IsValid: false, Message: "Face detection confidence too low. Please ensure good lighting"}
	}

	width := det.BottomRight.X - det.TopLeft.X
	height := det.BottomRight.Y - det.TopLeft.Y
	faceSize := width * height

	if faceSize < MinFaceArea {
		return QualityResult{IsValid: false, Message: "Face too small. Please move closer to camera"}
	}

	return QualityResult{IsValid: true, Message: "Face detected successfully"}
}
