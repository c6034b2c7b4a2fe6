// Package narrative turns a finished crime report into short prose for
// human reviewers. Generation is best effort: any model failure falls
// back to a deterministic template, and the report itself is never
// altered by this layer.
package narrative

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/technosupport/ts-crimewatch/internal/engine"
	"github.com/technosupport/ts-crimewatch/internal/metrics"
)

// Generator produces prose from a report digest. Implemented by the
// Gemini client; tests substitute their own.
type Generator interface {
	Generate(ctx context.Context, digest string) (string, error)
}

type Service struct {
	generator Generator
}

// NewService accepts a nil generator, in which case every narrative is
// the deterministic fallback.
func NewService(generator Generator) *Service {
	return &Service{generator: generator}
}

func (s *Service) Narrate(ctx context.Context, report *engine.CrimeReport) string {
	if s.generator == nil {
		metrics.NarrativeFallbacksTotal.Inc()
		return Fallback(report)
	}
	text, err := s.generator.Generate(ctx, Digest(report))
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Printf("[Narrative] Generation failed, using fallback: %v", err)
		}
		metrics.NarrativeFallbacksTotal.Inc()
		return Fallback(report)
	}
	return text
}

// Digest renders the report as compact text for the model prompt. It
// carries verdicts, scores, and evidence counts only, never raw frames.
func Digest(report *engine.CrimeReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall severity: %s. Crime detected: %t.\n", report.OverallSeverity, report.CrimeDetected)
	fmt.Fprintf(&b, "Frames analyzed: %d, clips: %d, motion samples: %d.\n",
		report.FramesAnalyzed, report.ClipsAnalyzed, report.MotionSamples)

	for _, ind := range report.CrimeIndicators {
		fmt.Fprintf(&b, "Indicator %s: %s severity, confidence %.2f.\n", ind.Type, ind.Severity, ind.Confidence)
	}

	if w := report.WeaponThreat; w.Detected {
		fmt.Fprintf(&b, "Weapons seen in %d frame(s), %d proximity alert(s), threat level %s.\n",
			len(w.WeaponFrames), len(w.ProximityAlerts), w.ThreatLevel)
	}
	if v := report.Violence; v.Detected {
		fmt.Fprintf(&b, "Violence score %.2f (%s intensity) across %d action(s).\n",
			v.Score, v.IntensityLevel, len(v.ViolentActions))
	}
	if th := report.Theft; th.Detected {
		fmt.Fprintf(&b, "Theft score %.2f: %d disappearance(s), %d theft action(s).\n",
			th.Score, len(th.Disappearances), len(th.TheftActions))
	}
	if sus := report.Suspicious; sus.Detected {
		fmt.Fprintf(&b, "Suspicious behavior: %d loitering run(s), %d crowd frame(s), motion pattern %s.\n",
			len(sus.LoiteringRuns), len(sus.CrowdFrames), sus.MotionPattern.Pattern)
	}

	fmt.Fprintf(&b, "Timeline events: %d.\n", len(report.Events))
	return b.String()
}

// Fallback is the deterministic narrative used when no generator is
// configured or generation fails. Same report, same text.
func Fallback(report *engine.CrimeReport) string {
	var b strings.Builder

	if report.CrimeDetected {
		fmt.Fprintf(&b, "Automated analysis detected potential criminal activity with %s severity.", report.OverallSeverity)
	} else {
		b.WriteString("Automated analysis found no significant criminal activity; the scene appears safe.")
	}

	var evidence []string
	if report.WeaponThreat.Detected {
		evidence = append(evidence, "a weapon-like object was detected")
	}
	if report.Violence.Detected {
		evidence = append(evidence, fmt.Sprintf("violent actions of %s intensity were recognized", report.Violence.IntensityLevel))
	}
	if report.Theft.Detected {
		evidence = append(evidence, fmt.Sprintf("theft patterns were observed with score %.2f", report.Theft.Score))
	}
	if report.Suspicious.Detected {
		evidence = append(evidence, "suspicious behavior patterns were flagged")
	}
	if len(evidence) > 0 {
		fmt.Fprintf(&b, " Evidence: %s.", strings.Join(evidence, "; "))
	}

	fmt.Fprintf(&b, " %s", report.Recommendation)
	b.WriteString(" This is an automated assessment and is not a legal determination.")
	return b.String()
}
