package spaces

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/draftscale/takeoff/internal/interp"
	"github.com/draftscale/takeoff/internal/monitoring"
	"github.com/draftscale/takeoff/internal/rooms"
)

// Assembler builds space programs, preferring measured geometry, then
// interpreter estimates, then building-type priors.
type Assembler struct {
	mix RoomMixSource
}

// NewAssembler returns an Assembler. mixSource may be nil to use the
// built-in priors.
func NewAssembler(mixSource RoomMixSource) *Assembler {
	if mixSource == nil {
		mixSource = StaticRoomMix{}
	}
	return &Assembler{mix: mixSource}
}

// Input carries everything Assemble may draw on. Interpretation may be
// nil; RoomAnalysis may hold the hull fallback.
type Input struct {
	RoomAnalysis   *rooms.Analysis
	Interpretation *interp.Interpretation
	BuildingType   BuildingType
	GrossAreaSF    float64
	// AreaConfidence is the measurement confidence of GrossAreaSF.
	AreaConfidence Confidence
}

// Assemble builds the space program for in. Geometry rooms are used
// only when polygonization actually succeeded; the hull fallback region
// carries no per-room meaning. The assembled spaces are reconciled
// against the gross area before returning.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*SpaceProgram, error) {
	var p *SpaceProgram
	switch {
	case in.RoomAnalysis != nil && in.RoomAnalysis.PolygonizeSuccess && hasMeasuredAreas(in.RoomAnalysis):
		var byIndex map[int]int
		p, byIndex = a.fromGeometry(in)
		if in.Interpretation != nil {
			enrich(p, byIndex, in.Interpretation)
		}
	case in.Interpretation != nil:
		p = FromInterpretation(in.Interpretation, in.GrossAreaSF)
		if p.BuildingType == BuildingUnknown && in.BuildingType != "" {
			p.BuildingType = in.BuildingType
		}
	default:
		var err error
		p, err = a.fromMix(ctx, in)
		if err != nil {
			return nil, err
		}
	}

	ReconcileAreas(p)
	return p, nil
}

func hasMeasuredAreas(ra *rooms.Analysis) bool {
	for _, r := range ra.Rooms {
		if r.AreaSF == nil {
			return false
		}
	}
	return len(ra.Rooms) > 0
}

// fromGeometry turns measured rooms into spaces. The second return maps
// detected room index to position in Spaces so enrichment can join the
// interpreter's per-index answers back onto the right space.
func (a *Assembler) fromGeometry(in Input) (*SpaceProgram, map[int]int) {
	p := &SpaceProgram{
		BuildingType: in.BuildingType,
		GrossAreaSF:  in.GrossAreaSF,
	}
	if p.BuildingType == "" {
		p.BuildingType = BuildingUnknown
	}
	conf := in.AreaConfidence
	if conf == "" {
		conf = ConfidenceHigh
	}
	byIndex := make(map[int]int)
	for _, r := range in.RoomAnalysis.Rooms {
		name := r.Label
		if name == "" {
			name = fmt.Sprintf("Room %d", r.Index+1)
		}
		byIndex[r.Index] = len(p.Spaces)
		p.Spaces = append(p.Spaces, Space{
			RoomType:   LabelToRoomType(r.Label),
			Name:       name,
			AreaSF:     *r.AreaSF,
			Source:     SourceMeasured,
			Confidence: conf,
		})
	}
	return p, byIndex
}

// enrich overlays interpreter knowledge on a measured program. Guesses
// join on the detected room index they confirm, falling back to a name
// match for interpreters that echo labels instead of indices; OTHER
// rooms take the interpreter's classification, unlabeled rooms take its
// confirmed label. Rooms only the interpreter saw are appended as LOW
// confidence estimates with no area claim.
func enrich(p *SpaceProgram, byIndex map[int]int, in *interp.Interpretation) {
	if bt := ParseBuildingType(in.BuildingType); bt != BuildingUnknown {
		p.BuildingType = bt
	}
	p.Warnings = append(p.Warnings, in.Warnings...)
	p.Warnings = append(p.Warnings, in.MeasurementFlags...)
	p.Notes = append(p.Notes, in.SpecialConditions...)
	if in.ConfidenceNotes != "" {
		p.Notes = append(p.Notes, in.ConfidenceNotes)
	}

	matched := make(map[int]bool)
	for gi, g := range in.Rooms {
		si, ok := spaceFor(p, byIndex, g)
		if !ok {
			continue
		}
		matched[gi] = true
		if t := ParseRoomType(g.RoomType); t != RoomOther && p.Spaces[si].RoomType == RoomOther {
			p.Spaces[si].RoomType = t
		}
		if g.ConfirmedLabel != "" && strings.HasPrefix(p.Spaces[si].Name, "Room ") {
			p.Spaces[si].Name = g.ConfirmedLabel
		}
	}
	for gi, g := range in.Rooms {
		if matched[gi] || guessNameKnown(p, guessName(g)) {
			continue
		}
		p.Spaces = append(p.Spaces, Space{
			RoomType:   ParseRoomType(g.RoomType),
			Name:       guessName(g),
			AreaSF:     0,
			Source:     SourceLLMEstimated,
			Confidence: ConfidenceLow,
		})
	}
}

func spaceFor(p *SpaceProgram, byIndex map[int]int, g interp.RoomGuess) (int, bool) {
	if g.RoomIndex != nil {
		si, ok := byIndex[*g.RoomIndex]
		return si, ok
	}
	for si := range p.Spaces {
		if namesMatch(p.Spaces[si].Name, guessName(g)) {
			return si, true
		}
	}
	return 0, false
}

func guessName(g interp.RoomGuess) string {
	if g.Name != "" {
		return g.Name
	}
	return g.ConfirmedLabel
}

func namesMatch(a, b string) bool {
	na := strings.ToUpper(strings.TrimSpace(a))
	nb := strings.ToUpper(strings.TrimSpace(b))
	return na != "" && na == nb
}

func guessNameKnown(p *SpaceProgram, name string) bool {
	for _, s := range p.Spaces {
		if namesMatch(s.Name, name) {
			return true
		}
	}
	return false
}

// fromMix distributes the gross area across the building type's prior
// room mix. Everything it produces is ASSUMED and LOW.
func (a *Assembler) fromMix(ctx context.Context, in Input) (*SpaceProgram, error) {
	bt := in.BuildingType
	if bt == "" {
		bt = BuildingUnknown
	}
	mix, err := a.mix.Mix(ctx, bt)
	if err != nil {
		return nil, fmt.Errorf("room mix for %s: %w", bt, err)
	}
	p := &SpaceProgram{
		BuildingType: bt,
		GrossAreaSF:  in.GrossAreaSF,
		Notes:        []string{"spaces distributed from building-type averages, no rooms were detected"},
	}
	// map iteration order is random; sort for stable output
	types := make([]RoomType, 0, len(mix))
	for t := range mix {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		p.Spaces = append(p.Spaces, Space{
			RoomType:   t,
			Name:       titleCase(string(t)),
			AreaSF:     in.GrossAreaSF * mix[t],
			Source:     SourceAssumed,
			Confidence: ConfidenceLow,
		})
	}
	return p, nil
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ReconcileAreas makes the program's spaces account for its gross area.
// A positive shortfall becomes an explicit Unaccounted space; named
// areas are never rescaled to force agreement, and an excess only
// warns.
func ReconcileAreas(p *SpaceProgram) {
	if p.GrossAreaSF <= 0 {
		p.GrossAreaSF = p.NamedAreaSF()
		return
	}
	named := p.NamedAreaSF()
	gap := p.GrossAreaSF - named
	switch {
	case gap > 0.5:
		p.Spaces = append(p.Spaces, Space{
			RoomType:   RoomOther,
			Name:       "Unaccounted",
			AreaSF:     gap,
			Source:     SourceAssumed,
			Confidence: ConfidenceLow,
		})
	case gap < -0.5:
		monitoring.Logf("spaces: named areas %.0f SF exceed gross %.0f SF", named, p.GrossAreaSF)
		p.Warnings = append(p.Warnings,
			fmt.Sprintf("named space areas (%.0f SF) exceed the gross area (%.0f SF)", named, p.GrossAreaSF))
	}
}
