package engine

import (
	"encoding/json"
	"fmt"
)

// Severity is the total order used across the report: safe < low < medium < high < critical.
type Severity int

const (
	SeveritySafe Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"safe", "low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeveritySafe || s > SeverityCritical {
		return "unknown"
	}
	return severityNames[s]
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return SeveritySafe, fmt.Errorf("unknown severity %q", name)
}

func maxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// EventType enumerates the discrete timeline event kinds.
type EventType string

const (
	EventWeaponProximity    EventType = "weapon_proximity"
	EventWeaponPresence     EventType = "weapon_presence"
	EventViolentAction      EventType = "violent_action"
	EventTheftDisappearance EventType = "theft_disappearance"
	EventSuspiciousPattern  EventType = "suspicious_pattern"
	EventCrowdGathering     EventType = "crowd_gathering"
)

// BBox is a pixel-space bounding box (x, y, w, h).
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the box center point.
func (b BBox) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// ---- Consumed inputs (upstream perception pipeline schema) ----

// DetectionInput is one raw object detection. BBox is a pointer so a
// missing box is distinguishable from a zero box and can be dropped.
type DetectionInput struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       *BBox   `json:"bbox"`
}

type FrameInput struct {
	FrameIndex   int              `json:"frame_index"`
	TimestampSec float64          `json:"timestamp_sec"`
	Detections   []DetectionInput `json:"detections"`
}

// ActionInput is one action-recognition score within a clip. Probability
// is a pointer so a missing field is dropped rather than read as 0.
type ActionInput struct {
	Label       string   `json:"label"`
	Probability *float64 `json:"probability"`
}

type ClipInput struct {
	ClipIndex  int           `json:"clip_index"`
	FrameStart int           `json:"frame_start"`
	FrameEnd   int           `json:"frame_end"`
	Actions    []ActionInput `json:"actions"`
}

type MotionSampleInput struct {
	FrameIndex int     `json:"frame_index"`
	Magnitude  float64 `json:"magnitude"`
}

// Input is a finished, immutable snapshot of upstream perception output
// for one video. The engine never mutates it.
type Input struct {
	Frames []FrameInput        `json:"frames"`
	Clips  []ClipInput         `json:"clips"`
	Motion []MotionSampleInput `json:"motion"`
}

// ---- Canonical internal records (post-normalization) ----

type Detection struct {
	Label      string
	Confidence float64
	BBox       BBox
	FrameIndex int
	// Degraded marks records whose confidence was clamped into [0,1].
	Degraded bool
}

type Frame struct {
	Index      int
	Timestamp  float64
	Detections []Detection
}

type ActionScore struct {
	Label       string
	Probability float64
	ClipIndex   int
	FrameStart  int
	FrameEnd    int
	Degraded    bool
}

type MotionSample struct {
	FrameIndex int
	Magnitude  float64
}

// ---- Produced output ----

// Event is one immutable timeline entry. FrameEnd equals FrameIndex for
// single-frame events and the clip end for clip-ranged events.
type Event struct {
	Type       EventType         `json:"type"`
	Severity   Severity          `json:"severity"`
	Confidence float64           `json:"confidence"`
	FrameIndex int               `json:"frame_index"`
	FrameEnd   int               `json:"frame_end"`
	Details    map[string]string `json:"details,omitempty"`
}

type ProximityTier string

const (
	ProximityClose    ProximityTier = "close"
	ProximityModerate ProximityTier = "moderate"
	ProximityNone     ProximityTier = "none"
)

type WeaponSighting struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type WeaponFrame struct {
	FrameIndex  int              `json:"frame_index"`
	WeaponCount int              `json:"weapon_count"`
	PersonCount int              `json:"person_count"`
	Weapons     []WeaponSighting `json:"weapons"`
}

// ProximityAlert records the spatial relationship between a weapon and the
// nearest person in the same frame.
type ProximityAlert struct {
	FrameIndex  int           `json:"frame_index"`
	WeaponLabel string        `json:"weapon_label"`
	Confidence  float64       `json:"confidence"`
	Distance    float64       `json:"distance"`
	Tier        ProximityTier `json:"tier"`
}

// ActionCategory buckets a crime-relevant action label.
type ActionCategory string

const (
	CategoryViolence   ActionCategory = "violence"
	CategoryTheft      ActionCategory = "theft"
	CategoryVandalism  ActionCategory = "vandalism"
	CategoryWeapon     ActionCategory = "weapon"
	CategoryBreakIn    ActionCategory = "break_in"
	CategorySuspicious ActionCategory = "suspicious"
)

// ActionEvidence is one classified action kept for display and traceability.
type ActionEvidence struct {
	Label         string           `json:"label"`
	Probability   float64          `json:"probability"`
	Weight        float64          `json:"weight"`
	Intensity     float64          `json:"intensity"`
	Categories    []ActionCategory `json:"categories,omitempty"`
	CrimeRelevant bool             `json:"crime_relevant"`
	ClipIndex     int              `json:"clip_index"`
	FrameStart    int              `json:"frame_start"`
	FrameEnd      int              `json:"frame_end"`
}

type WeaponThreatAnalysis struct {
	Detected        bool             `json:"detected"`
	ThreatLevel     Severity         `json:"threat_level"`
	Score           float64          `json:"score"`
	WeaponFrames    []WeaponFrame    `json:"weapon_frames,omitempty"`
	ProximityAlerts []ProximityAlert `json:"proximity_alerts,omitempty"`
	WeaponActions   []ActionEvidence `json:"weapon_actions,omitempty"`
}

type IntensityTier string

const (
	IntensityLow      IntensityTier = "low"
	IntensityModerate IntensityTier = "moderate"
	IntensityHigh     IntensityTier = "high"
	IntensityExtreme  IntensityTier = "extreme"
)

type ClipViolence struct {
	ClipIndex int     `json:"clip_index"`
	Score     float64 `json:"score"`
}

type ViolenceAnalysis struct {
	Detected       bool             `json:"detected"`
	Severity       Severity         `json:"severity"`
	IntensityLevel IntensityTier    `json:"intensity_level"`
	Score          float64          `json:"score"`
	ClipScores     []ClipViolence   `json:"clip_scores,omitempty"`
	ViolentActions []ActionEvidence `json:"violent_actions,omitempty"`
}

// Disappearance is a tracked valuable that was present for a minimum run
// and then went absent while the video continued.
type Disappearance struct {
	Label          string `json:"label"`
	LastSeenFrame  int    `json:"last_seen_frame"`
	AbsentFrame    int    `json:"absent_frame"`
	PresenceFrames int    `json:"presence_frames"`
	AbsenceFrames  int    `json:"absence_frames"`
}

type TheftAnalysis struct {
	Detected       bool             `json:"detected"`
	Severity       Severity         `json:"severity"`
	Score          float64          `json:"score"`
	Disappearances []Disappearance  `json:"disappearances,omitempty"`
	TheftActions   []ActionEvidence `json:"theft_actions,omitempty"`
}

type LoiteringRun struct {
	StartFrame int     `json:"start_frame"`
	EndFrame   int     `json:"end_frame"`
	Frames     int     `json:"frames"`
	CenterX    float64 `json:"center_x"`
	CenterY    float64 `json:"center_y"`
}

type CrowdFrame struct {
	FrameIndex  int `json:"frame_index"`
	PersonCount int `json:"person_count"`
}

type MotionPatternName string

const (
	MotionChaotic  MotionPatternName = "chaotic"
	MotionErratic  MotionPatternName = "erratic"
	MotionHigh     MotionPatternName = "high"
	MotionModerate MotionPatternName = "moderate"
	MotionLow      MotionPatternName = "low"
)

type SuddenMovement struct {
	FrameIndex int     `json:"frame_index"`
	Magnitude  float64 `json:"magnitude"`
	Previous   float64 `json:"previous"`
}

type ChaseSequence struct {
	StartFrame   int     `json:"start_frame"`
	Frames       int     `json:"frames"`
	AvgMagnitude float64 `json:"avg_magnitude"`
}

type MotionAnalysis struct {
	Analyzed       bool              `json:"analyzed"`
	Mean           float64           `json:"mean"`
	Max            float64           `json:"max"`
	Variance       float64           `json:"variance"`
	Pattern        MotionPatternName `json:"pattern"`
	CrimeRelevance Severity          `json:"crime_relevance"`
	SuddenMoves    []SuddenMovement  `json:"sudden_movements,omitempty"`
	ChaseSequences []ChaseSequence   `json:"chase_sequences,omitempty"`
}

type SuspiciousBehaviorAnalysis struct {
	Detected          bool             `json:"detected"`
	Severity          Severity         `json:"severity"`
	Score             float64          `json:"score"`
	LoiteringRuns     []LoiteringRun   `json:"loitering,omitempty"`
	CrowdFrames       []CrowdFrame     `json:"crowd_frames,omitempty"`
	SuspiciousActions []ActionEvidence `json:"suspicious_actions,omitempty"`
	MotionPattern     MotionAnalysis   `json:"motion_pattern"`
}

// CrimeIndicator is a (type, severity, confidence) triplet surfaced as a
// top-level reason contributing to the overall tier.
type CrimeIndicator struct {
	Type       string   `json:"type"`
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
}

// CrimeReport is the engine output. It is built once per analysis and
// never mutated afterward; its lifetime is owned by the caller.
type CrimeReport struct {
	WeaponThreat    WeaponThreatAnalysis       `json:"weapon_threat_analysis"`
	Violence        ViolenceAnalysis           `json:"violence_analysis"`
	Theft           TheftAnalysis              `json:"theft_analysis"`
	Suspicious      SuspiciousBehaviorAnalysis `json:"suspicious_behavior_analysis"`
	OverallSeverity Severity                   `json:"overall_severity"`
	CrimeDetected   bool                       `json:"crime_detected"`
	CrimeIndicators []CrimeIndicator           `json:"crime_indicators"`
	Recommendation  string                     `json:"recommendation"`
	Events          []Event                    `json:"events"`
	// ActionsObserved retains every classified action, crime-relevant or
	// not, for evidence display.
	ActionsObserved []ActionEvidence `json:"actions_observed,omitempty"`
	InputWarnings   []string         `json:"input_warnings,omitempty"`
	ConfigVersion   string           `json:"config_version"`
	FramesAnalyzed  int              `json:"frames_analyzed"`
	ClipsAnalyzed   int              `json:"clips_analyzed"`
	MotionSamples   int              `json:"motion_samples"`
}
