package spaces

import (
	"fmt"
	"math"
)

// discrepancyThreshold is the relative gross-area disagreement above
// which the merged program carries a special-condition note.
const discrepancyThreshold = 0.20

// MergeDecision is one append-only audit record of a merged program:
// which side supplied the field, the value taken, and how much to
// trust it.
type MergeDecision struct {
	Field      string     `json:"field_name"`
	Source     string     `json:"source"` // "geometry" or "vlm"
	Value      string     `json:"value,omitempty"`
	Reason     string     `json:"reasoning"`
	Confidence Confidence `json:"confidence,omitempty"`
}

// MergeResult is a hybrid program plus its per-field provenance.
type MergeResult struct {
	Program   *SpaceProgram   `json:"program"`
	Decisions []MergeDecision `json:"decisions"`
}

// Merge combines a geometry-derived program with a vision-model one.
// Numbers follow measurement: the gross area comes from geometry
// whenever its confidence is HIGH or MEDIUM. Semantics follow the
// model: building type and the room breakdown always come from the
// vision side, which reads labels and context the geometry cannot.
// Either side may be nil.
func Merge(geo *SpaceProgram, vlm *SpaceProgram, geoAreaConfidence Confidence) *MergeResult {
	switch {
	case geo == nil && vlm == nil:
		return &MergeResult{Program: &SpaceProgram{BuildingType: BuildingUnknown}}
	case geo == nil:
		return &MergeResult{
			Program:   vlm,
			Decisions: []MergeDecision{{Field: "all", Source: "vlm", Reason: "no geometry program"}},
		}
	case vlm == nil:
		return &MergeResult{
			Program:   geo,
			Decisions: []MergeDecision{{Field: "all", Source: "geometry", Reason: "no vision program", Confidence: geoAreaConfidence}},
		}
	}

	out := &SpaceProgram{
		BuildingType: vlm.BuildingType,
		Spaces:       append([]Space(nil), vlm.Spaces...),
		Notes:        append(append([]string(nil), geo.Notes...), vlm.Notes...),
		Warnings:     append(append([]string(nil), geo.Warnings...), vlm.Warnings...),
	}
	decisions := []MergeDecision{
		{
			Field:      "building_type",
			Source:     "vlm",
			Value:      string(vlm.BuildingType),
			Reason:     "semantic classification follows the vision reading",
			Confidence: ConfidenceMedium,
		},
		{
			Field:      "spaces",
			Source:     "vlm",
			Value:      fmt.Sprintf("%d spaces", len(vlm.Spaces)),
			Reason:     "room breakdown follows the vision reading",
			Confidence: ConfidenceMedium,
		},
	}

	useGeo := geoAreaConfidence == ConfidenceHigh || geoAreaConfidence == ConfidenceMedium
	if useGeo && geo.GrossAreaSF > 0 {
		out.GrossAreaSF = geo.GrossAreaSF
		decisions = append(decisions, MergeDecision{
			Field:      "gross_area_sf",
			Source:     "geometry",
			Value:      fmt.Sprintf("%.0f", geo.GrossAreaSF),
			Reason:     fmt.Sprintf("measured area at %s confidence", geoAreaConfidence),
			Confidence: geoAreaConfidence,
		})
	} else {
		out.GrossAreaSF = vlm.GrossAreaSF
		decisions = append(decisions, MergeDecision{
			Field:      "gross_area_sf",
			Source:     "vlm",
			Value:      fmt.Sprintf("%.0f", vlm.GrossAreaSF),
			Reason:     "measured area missing or LOW confidence",
			Confidence: ConfidenceMedium,
		})
	}

	if geo.GrossAreaSF > 0 && vlm.GrossAreaSF > 0 {
		diff := math.Abs(geo.GrossAreaSF-vlm.GrossAreaSF) / geo.GrossAreaSF
		if diff > discrepancyThreshold {
			out.Notes = append(out.Notes, fmt.Sprintf(
				"special condition: measured gross area (%.0f SF) and vision estimate (%.0f SF) differ by %.0f%%, field verification recommended",
				geo.GrossAreaSF, vlm.GrossAreaSF, diff*100))
		}
	}

	ReconcileAreas(out)
	return &MergeResult{Program: out, Decisions: decisions}
}
