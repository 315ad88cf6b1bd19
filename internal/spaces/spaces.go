// Package spaces assembles measured geometry, interpreter readings and
// building-type priors into a space program: the list of spaces with
// real-world areas that downstream takeoff consumers bill against.
package spaces

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/draftscale/takeoff/internal/interp"
)

// ErrUnknownBuildingType reports a building type with no room-mix
// prior.
var ErrUnknownBuildingType = errors.New("unknown building type")

// RoomType classifies a space.
type RoomType string

const (
	RoomBedroom    RoomType = "BEDROOM"
	RoomBathroom   RoomType = "BATHROOM"
	RoomKitchen    RoomType = "KITCHEN"
	RoomLiving     RoomType = "LIVING"
	RoomDining     RoomType = "DINING"
	RoomOffice     RoomType = "OFFICE"
	RoomCorridor   RoomType = "CORRIDOR"
	RoomStorage    RoomType = "STORAGE"
	RoomMechanical RoomType = "MECHANICAL"
	RoomGarage     RoomType = "GARAGE"
	RoomOther      RoomType = "OTHER"
)

// BuildingType classifies the sheet's building.
type BuildingType string

const (
	BuildingSingleFamily BuildingType = "RESIDENTIAL_SINGLE_FAMILY"
	BuildingMultiFamily  BuildingType = "RESIDENTIAL_MULTI_FAMILY"
	BuildingOffice       BuildingType = "COMMERCIAL_OFFICE"
	BuildingRetail       BuildingType = "RETAIL"
	BuildingMixedUse     BuildingType = "MIXED_USE"
	BuildingUnknown      BuildingType = "UNKNOWN"
)

// Confidence grades a space program value.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	// ConfidenceNone marks a result produced without any usable vector
	// data to measure.
	ConfidenceNone Confidence = "NONE"
)

// SpaceSource records where a space's area came from.
type SpaceSource string

const (
	// SourceMeasured areas come from polygonized geometry.
	SourceMeasured SpaceSource = "MEASURED"
	// SourceLLMEstimated areas come from the interpreter.
	SourceLLMEstimated SpaceSource = "LLM_ESTIMATED"
	// SourceAssumed areas come from building-type priors or area
	// reconciliation.
	SourceAssumed SpaceSource = "ASSUMED"
)

// Space is one entry of a space program.
type Space struct {
	RoomType   RoomType    `json:"room_type"`
	Name       string      `json:"name"`
	AreaSF     float64     `json:"area_sf"`
	Source     SpaceSource `json:"source"`
	Confidence Confidence  `json:"confidence"`
}

// SpaceProgram is the assembled set of spaces for one sheet.
type SpaceProgram struct {
	BuildingType BuildingType `json:"building_type"`
	GrossAreaSF  float64      `json:"gross_area_sf"`
	Spaces       []Space      `json:"spaces"`
	Notes        []string     `json:"notes,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
}

// NamedAreaSF sums the areas of the program's spaces.
func (p *SpaceProgram) NamedAreaSF() float64 {
	total := 0.0
	for _, s := range p.Spaces {
		total += s.AreaSF
	}
	return total
}

// labelTypeRules maps room label words to room types. Order matters:
// the first matching rule wins, so MASTER BEDROOM hits BEDROOM before
// any looser rule could.
var labelTypeRules = []struct {
	word string
	typ  RoomType
}{
	{"BEDROOM", RoomBedroom}, {"BED", RoomBedroom}, {"NURSERY", RoomBedroom}, {"SUITE", RoomBedroom},
	{"BATHROOM", RoomBathroom}, {"BATH", RoomBathroom}, {"WC", RoomBathroom},
	{"TOILET", RoomBathroom}, {"RESTROOM", RoomBathroom}, {"POWDER", RoomBathroom}, {"SHOWER", RoomBathroom},
	{"KITCHEN", RoomKitchen}, {"KITCHENETTE", RoomKitchen}, {"PANTRY", RoomKitchen},
	{"LIVING", RoomLiving}, {"FAMILY", RoomLiving}, {"GREAT", RoomLiving}, {"DEN", RoomLiving},
	{"DINING", RoomDining}, {"BREAK", RoomDining},
	{"OFFICE", RoomOffice}, {"STUDY", RoomOffice}, {"LIBRARY", RoomOffice},
	{"CONFERENCE", RoomOffice}, {"MEETING", RoomOffice}, {"RECEPTION", RoomOffice},
	{"HALL", RoomCorridor}, {"HALLWAY", RoomCorridor}, {"CORRIDOR", RoomCorridor},
	{"FOYER", RoomCorridor}, {"ENTRY", RoomCorridor}, {"VESTIBULE", RoomCorridor},
	{"LOBBY", RoomCorridor}, {"STAIR", RoomCorridor}, {"STAIRS", RoomCorridor},
	{"CLOSET", RoomStorage}, {"WARDROBE", RoomStorage}, {"STORAGE", RoomStorage}, {"STOR", RoomStorage},
	{"MECH", RoomMechanical}, {"MECHANICAL", RoomMechanical},
	{"ELEC", RoomMechanical}, {"ELECTRICAL", RoomMechanical},
	{"UTILITY", RoomMechanical}, {"LAUNDRY", RoomMechanical}, {"JANITOR", RoomMechanical},
	{"GARAGE", RoomGarage}, {"CARPORT", RoomGarage},
}

// LabelToRoomType maps a detected room label to its RoomType. Unlabeled
// or unrecognized labels map to OTHER.
func LabelToRoomType(label string) RoomType {
	tokens := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToUpper(label)) {
		tokens[strings.Trim(tok, ".:,#")] = true
	}
	for _, rule := range labelTypeRules {
		if tokens[rule.word] {
			return rule.typ
		}
	}
	return RoomOther
}

// ParseBuildingType maps an interpreter building-type string onto the
// known enum, tolerating loose phrasing.
func ParseBuildingType(s string) BuildingType {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch BuildingType(u) {
	case BuildingSingleFamily, BuildingMultiFamily, BuildingOffice, BuildingRetail, BuildingMixedUse:
		return BuildingType(u)
	}
	switch {
	case strings.Contains(u, "SINGLE"):
		return BuildingSingleFamily
	case strings.Contains(u, "MULTI") || strings.Contains(u, "APARTMENT"):
		return BuildingMultiFamily
	case strings.Contains(u, "OFFICE") || strings.Contains(u, "COMMERCIAL"):
		return BuildingOffice
	case strings.Contains(u, "RETAIL") || strings.Contains(u, "STORE"):
		return BuildingRetail
	case strings.Contains(u, "MIXED"):
		return BuildingMixedUse
	}
	return BuildingUnknown
}

var estimatedAreaRe = regexp.MustCompile(`estimated_area_sf:\s*([0-9]+(?:\.[0-9]+)?)`)

// FromInterpretation builds a space program purely from an interpreter
// reading. Room areas come from the guesses' estimates, falling back to
// `estimated_area_sf:` annotations embedded in the summary text; when
// grossSF is known the estimates are scaled proportionally so they sum
// to it.
func FromInterpretation(in *interp.Interpretation, grossSF float64) *SpaceProgram {
	p := &SpaceProgram{
		BuildingType: ParseBuildingType(in.BuildingType),
		GrossAreaSF:  grossSF,
		Warnings:     append([]string(nil), in.Warnings...),
	}
	if in.Summary != "" {
		p.Notes = append(p.Notes, in.Summary)
	}
	p.Warnings = append(p.Warnings, in.MeasurementFlags...)
	p.Notes = append(p.Notes, in.SpecialConditions...)
	if in.ConfidenceNotes != "" {
		p.Notes = append(p.Notes, in.ConfidenceNotes)
	}

	embedded := estimatedAreaRe.FindAllStringSubmatch(in.Summary, -1)
	for i, g := range in.Rooms {
		area := g.EstimatedAreaSF
		if area == 0 && i < len(embedded) {
			if v, err := strconv.ParseFloat(embedded[i][1], 64); err == nil {
				area = v
			}
		}
		name := g.Name
		if name == "" {
			name = g.ConfirmedLabel
		}
		typ := ParseRoomType(g.RoomType)
		if typ == RoomOther && name != "" {
			typ = LabelToRoomType(name)
		}
		p.Spaces = append(p.Spaces, Space{
			RoomType:   typ,
			Name:       name,
			AreaSF:     area,
			Source:     SourceLLMEstimated,
			Confidence: parseConfidence(g.Confidence, ConfidenceLow),
		})
	}

	if grossSF > 0 {
		if named := p.NamedAreaSF(); named > 0 && named != grossSF {
			factor := grossSF / named
			for i := range p.Spaces {
				p.Spaces[i].AreaSF *= factor
			}
			p.Notes = append(p.Notes, fmt.Sprintf("room estimates scaled by %.2f to match gross area", factor))
		}
	} else {
		p.GrossAreaSF = p.NamedAreaSF()
	}
	return p
}

// ParseRoomType maps an interpreter room-type string onto the enum.
func ParseRoomType(s string) RoomType {
	u := RoomType(strings.ToUpper(strings.TrimSpace(s)))
	switch u {
	case RoomBedroom, RoomBathroom, RoomKitchen, RoomLiving, RoomDining,
		RoomOffice, RoomCorridor, RoomStorage, RoomMechanical, RoomGarage:
		return u
	}
	return RoomOther
}

func parseConfidence(s string, fallback Confidence) Confidence {
	switch Confidence(strings.ToUpper(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	case ConfidenceLow:
		return ConfidenceLow
	}
	return fallback
}
