package rooms

import (
	"strconv"
	"strings"

	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/geom"
)

// roomWords is the vocabulary that marks a text block as a room name.
// Matching is token-based on the uppercased text, so "MASTER BEDROOM"
// and "BATH 2" both qualify while dimension strings and sheet notes do
// not.
var roomWords = map[string]bool{
	"BEDROOM": true, "BED": true, "MASTER": true,
	"KITCHEN": true, "KITCHENETTE": true, "PANTRY": true,
	"BATH": true, "BATHROOM": true, "WC": true, "TOILET": true,
	"RESTROOM": true, "POWDER": true, "SHOWER": true,
	"LIVING": true, "DINING": true, "FAMILY": true, "GREAT": true,
	"OFFICE": true, "STUDY": true, "DEN": true, "LIBRARY": true,
	"CLOSET": true, "WARDROBE": true, "STORAGE": true, "STOR": true,
	"HALL": true, "HALLWAY": true, "CORRIDOR": true, "FOYER": true,
	"ENTRY": true, "VESTIBULE": true, "LOBBY": true,
	"GARAGE": true, "CARPORT": true,
	"LAUNDRY": true, "UTILITY": true, "MUD": true,
	"MECH": true, "MECHANICAL": true, "ELEC": true, "ELECTRICAL": true,
	"JANITOR": true, "STAIR": true, "STAIRS": true, "ELEVATOR": true,
	"CONFERENCE": true, "MEETING": true, "RECEPTION": true,
	"BREAK": true, "COPY": true, "SERVER": true,
	"SUITE": true, "STUDIO": true, "NURSERY": true, "PLAYROOM": true,
	"BALCONY": true, "PORCH": true, "DECK": true, "PATIO": true,
	"BASEMENT": true, "ATTIC": true, "LOFT": true, "BONUS": true,
}

// IsRoomLabel reports whether text reads like a room name.
func IsRoomLabel(text string) bool {
	for _, tok := range strings.Fields(strings.ToUpper(text)) {
		tok = strings.Trim(tok, ".:,#")
		if roomWords[tok] {
			return true
		}
	}
	return false
}

// Labeler assigns room-name texts to detected rooms.
type Labeler struct {
	cfg *config.TuningConfig
}

// NewLabeler returns a Labeler using cfg thresholds.
func NewLabeler(cfg *config.TuningConfig) *Labeler {
	if cfg == nil {
		cfg = &config.TuningConfig{}
	}
	return &Labeler{cfg: cfg}
}

// Assign labels rooms in place. A label text claims the room containing
// its anchor point, or failing that the room with the nearest centroid
// within the search radius. Texts are processed in input order, so when
// two labels compete for one room the earlier (more prominent) text
// wins. Every member of a duplicate label group gets a numeric suffix
// ("BEDROOM 1", "BEDROOM 2"); rooms no label reaches keep an empty
// label.
func (l *Labeler) Assign(rooms []DetectedRoom, texts []geom.TextBlock) {
	if len(rooms) == 0 {
		return
	}
	radius := l.cfg.GetLabelSearchRadiusPts()
	assigned := make(map[string][]int)

	for _, t := range texts {
		if !IsRoomLabel(t.Text) {
			continue
		}
		idx := l.target(rooms, t.Position, radius)
		if idx < 0 || rooms[idx].Label != "" {
			continue
		}
		label := strings.TrimSpace(t.Text)
		rooms[idx].Label = label
		assigned[label] = append(assigned[label], idx)
	}

	for label, idxs := range assigned {
		if len(idxs) < 2 {
			continue
		}
		for n, idx := range idxs {
			rooms[idx].Label = label + " " + strconv.Itoa(n+1)
		}
	}
}

func (l *Labeler) target(rooms []DetectedRoom, p geom.Point2D, radius float64) int {
	for i, r := range rooms {
		if geom.PolygonContains(r.Polygon, p) {
			return i
		}
	}
	best, bestDist := -1, radius
	for i, r := range rooms {
		if d := r.Centroid.Distance(p); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
