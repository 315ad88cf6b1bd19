package scale

import (
	"context"
	"math"

	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/geom"
	"github.com/draftscale/takeoff/internal/monitoring"
)

// VerificationSource records which reading the verified scale came from.
type VerificationSource string

const (
	// SourceDeterministic keeps the deterministic reading despite an
	// external disagreement.
	SourceDeterministic VerificationSource = "DETERMINISTIC"
	// SourceLLMConfirmed keeps the deterministic reading, corroborated
	// externally.
	SourceLLMConfirmed VerificationSource = "LLM_CONFIRMED"
	// SourceLLMRecovered adopts the external reading because detection
	// found nothing trustworthy.
	SourceLLMRecovered VerificationSource = "LLM_RECOVERED"
	// SourceUnverified means the external check failed or returned
	// nothing usable.
	SourceUnverified VerificationSource = "UNVERIFIED"
)

// Query carries what the external reader needs to judge a sheet's
// scale.
type Query struct {
	PageLabel   string           `json:"page_label,omitempty"`
	Notation    string           `json:"notation,omitempty"`
	ScaleFactor float64          `json:"scale_factor,omitempty"`
	TextBlocks  []geom.TextBlock `json:"text_blocks,omitempty"`
}

// Reading is an external interpreter's scale judgement. The reader may
// return the factor directly or just the two sides of the notation;
// Verify derives the factor from PaperInches and RealInches when
// ScaleFactor is absent.
type Reading struct {
	Notation    string     `json:"notation"`
	PaperInches float64    `json:"paper_inches,omitempty"`
	RealInches  float64    `json:"real_inches,omitempty"`
	ScaleFactor float64    `json:"scale_factor"`
	Confidence  Confidence `json:"confidence"`
	Reasoning   string     `json:"reasoning,omitempty"`
}

// Interpreter reads a drawing scale through an external model. The
// pipeline works without one; verification then reports UNVERIFIED.
type Interpreter interface {
	ReadScale(ctx context.Context, q Query) (*Reading, error)
}

// Verified is the reconciled scale plus its provenance. Verification
// never raises the deterministic confidence; agreement confirms,
// disagreement warns or downgrades.
type Verified struct {
	Result     *Result            `json:"result,omitempty"`
	Source     VerificationSource `json:"source"`
	Warnings   []string           `json:"warnings,omitempty"`
	Downgraded bool               `json:"downgraded,omitempty"`
}

// Verifier reconciles the deterministic scale with an external reading.
type Verifier struct {
	interp Interpreter
	cfg    *config.TuningConfig
}

// NewVerifier returns a Verifier. interp may be nil.
func NewVerifier(interp Interpreter, cfg *config.TuningConfig) *Verifier {
	if cfg == nil {
		cfg = &config.TuningConfig{}
	}
	return &Verifier{interp: interp, cfg: cfg}
}

// Verify cross-checks det against the external reader and returns the
// reconciled scale. det may be nil when detection found nothing. The
// external call runs under the configured timeout; any failure degrades
// to UNVERIFIED with det preserved.
func (v *Verifier) Verify(ctx context.Context, det *Result, q Query) *Verified {
	if v.interp == nil {
		return &Verified{Result: det, Source: SourceUnverified}
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.GetVerifierTimeout())
	defer cancel()

	if det != nil {
		q.Notation = det.Notation
		q.ScaleFactor = det.ScaleFactor
	}
	reading, err := v.interp.ReadScale(ctx, q)
	if err != nil {
		monitoring.Logf("scale: external verification failed: %v", err)
		return &Verified{Result: det, Source: SourceUnverified}
	}
	if reading != nil && reading.ScaleFactor <= 0 && reading.PaperInches > 0 && reading.RealInches > 0 {
		reading.ScaleFactor = reading.RealInches / reading.PaperInches
	}
	if reading == nil || reading.ScaleFactor <= 0 || reading.Confidence == ConfidenceLow {
		return &Verified{Result: det, Source: SourceUnverified}
	}

	if det == nil || det.Confidence != ConfidenceHigh {
		adopted := &Result{
			DrawingUnits: reading.PaperInches,
			RealUnits:    reading.RealInches,
			ScaleFactor:  reading.ScaleFactor,
			Notation:     reading.Notation,
			Confidence:   ConfidenceMedium,
			Method:       MethodExternal,
		}
		return &Verified{Result: adopted, Source: SourceLLMRecovered}
	}

	// Deterministic HIGH reading: the external check can confirm or
	// dispute it but never replaces it.
	diff := math.Abs(reading.ScaleFactor-det.ScaleFactor) / det.ScaleFactor
	switch {
	case diff <= 0.05:
		return &Verified{Result: det, Source: SourceLLMConfirmed}
	case diff <= 0.10:
		return &Verified{
			Result: det,
			Source: SourceLLMConfirmed,
			Warnings: []string{
				"external scale reading differs from detected notation by up to 10%",
			},
		}
	default:
		monitoring.Logf("scale: external reading %.1f disputes detected %.1f", reading.ScaleFactor, det.ScaleFactor)
		return &Verified{
			Result: det,
			Source: SourceDeterministic,
			Warnings: []string{
				"external scale reading disputes the detected notation; measurements may be off by a scale ratio",
			},
			Downgraded: true,
		}
	}
}
