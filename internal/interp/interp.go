// Package interp is the client for the external drawing interpreter, a
// vision-capable language model consulted to read scale notations off
// messy sheets and to classify detected rooms. The geometry pipeline
// never depends on it for correctness: every caller handles
// ErrUnavailable by degrading to deterministic results.
package interp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/draftscale/takeoff/internal/httputil"
	"github.com/draftscale/takeoff/internal/monitoring"
	"github.com/draftscale/takeoff/internal/scale"
)

// ErrUnavailable reports that no interpreter is configured.
var ErrUnavailable = errors.New("drawing interpreter not configured")

// largeWCThresholdSF flags implausibly large rooms classified as
// bathrooms; interpreters mislabel mechanical rooms this way.
const largeWCThresholdSF = 150.0

// RoomGuess is the interpreter's judgement of one room. RoomIndex, when
// present, refers back to the detected room of the query it confirms;
// guesses without an index describe rooms detection missed.
type RoomGuess struct {
	RoomIndex       *int    `json:"room_index,omitempty"`
	Name            string  `json:"name,omitempty"`
	ConfirmedLabel  string  `json:"confirmed_label,omitempty"`
	RoomType        string  `json:"room_type"`
	EstimatedAreaSF float64 `json:"estimated_area_sf,omitempty"`
	Confidence      string  `json:"confidence,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// Interpretation is the interpreter's reading of a whole sheet.
type Interpretation struct {
	BuildingType           string      `json:"building_type,omitempty"`
	BuildingTypeConfidence string      `json:"building_type_confidence,omitempty"`
	StructuralSystem       string      `json:"structural_system,omitempty"`
	Summary                string      `json:"summary,omitempty"`
	Rooms                  []RoomGuess `json:"rooms,omitempty"`
	SpecialConditions      []string    `json:"special_conditions,omitempty"`
	MeasurementFlags       []string    `json:"measurement_flags,omitempty"`
	ConfidenceNotes        string      `json:"confidence_notes,omitempty"`
	Warnings               []string    `json:"warnings,omitempty"`
}

// RoomSummary is what the client sends about one detected room.
type RoomSummary struct {
	RoomIndex int     `json:"room_index"`
	Label     string  `json:"label,omitempty"`
	AreaSF    float64 `json:"area_sf,omitempty"`
}

// GeometryQuery describes a sheet for interpretation.
type GeometryQuery struct {
	PageLabel     string        `json:"page_label,omitempty"`
	ScaleNotation string        `json:"scale_notation,omitempty"`
	TotalAreaSF   float64       `json:"total_area_sf,omitempty"`
	Rooms         []RoomSummary `json:"rooms,omitempty"`
	BuildingHint  string        `json:"building_hint,omitempty"`
}

// Interpreter reads drawings through an external model. Client talks to
// a real endpoint; Absent is the stand-in when none is configured.
type Interpreter interface {
	scale.Interpreter
	InterpretGeometry(ctx context.Context, q GeometryQuery) (*Interpretation, error)
}

// Absent is the interpreter used when no endpoint is configured. Every
// call fails with ErrUnavailable so callers take their deterministic
// fallback paths.
type Absent struct{}

func (Absent) ReadScale(context.Context, scale.Query) (*scale.Reading, error) {
	return nil, ErrUnavailable
}

func (Absent) InterpretGeometry(context.Context, GeometryQuery) (*Interpretation, error) {
	return nil, ErrUnavailable
}

// Client calls a messages-style completion endpoint.
type Client struct {
	httpClient httputil.HTTPClient
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
}

// NewClient returns a Client for the given endpoint. httpClient may be
// nil to use http.DefaultClient. Requests are rate limited to keep a
// batch run inside provider quotas.
func NewClient(httpClient httputil.HTTPClient, baseURL, apiKey, model string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// ReadScale asks the model to read the sheet's scale notation.
func (c *Client) ReadScale(ctx context.Context, q scale.Query) (*scale.Reading, error) {
	var sb strings.Builder
	sb.WriteString("Determine the drawing scale of this architectural sheet. ")
	sb.WriteString("Respond with a json object {\"notation\": <string>, \"paper_inches\": <number>, ")
	sb.WriteString("\"real_inches\": <number>, \"scale_factor\": <real inches per paper inch>, ")
	sb.WriteString("\"confidence\": \"HIGH\"|\"MEDIUM\"|\"LOW\", \"reasoning\": <string>}.\n")
	if q.Notation != "" {
		fmt.Fprintf(&sb, "A deterministic parser read %q (factor %.1f); confirm or correct it.\n", q.Notation, q.ScaleFactor)
	}
	if len(q.TextBlocks) > 0 {
		sb.WriteString("Sheet text:\n")
		for _, t := range q.TextBlocks {
			sb.WriteString(t.Text)
			sb.WriteByte('\n')
		}
	}

	var reading scale.Reading
	if err := c.complete(ctx, sb.String(), &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// InterpretGeometry asks the model to classify the detected rooms and
// the building type. Oversized bathrooms in the answer are flagged as
// warnings rather than corrected.
func (c *Client) InterpretGeometry(ctx context.Context, q GeometryQuery) (*Interpretation, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode geometry query: %w", err)
	}
	prompt := "Classify the building type and each room of this floor plan. " +
		"Respond with a json object {\"building_type\": <string>, \"building_type_confidence\": \"HIGH\"|\"MEDIUM\"|\"LOW\", " +
		"\"structural_system\": <string>, \"summary\": <string>, " +
		"\"rooms\": [{\"room_index\": <index from the query, omit for rooms not listed>, " +
		"\"confirmed_label\": <string>, \"name\": <string>, \"room_type\": <string>, " +
		"\"estimated_area_sf\": <number>, \"confidence\": \"HIGH\"|\"MEDIUM\"|\"LOW\", \"notes\": <string>}], " +
		"\"special_conditions\": [<string>], \"measurement_flags\": [<string>], \"confidence_notes\": <string>}.\n" +
		"Detected geometry:\n" + string(payload)

	var out Interpretation
	if err := c.complete(ctx, prompt, &out); err != nil {
		return nil, err
	}
	flagAnomalies(&out)
	return &out, nil
}

func flagAnomalies(in *Interpretation) {
	for _, r := range in.Rooms {
		t := strings.ToUpper(r.RoomType)
		if (t == "BATHROOM" || t == "WC" || t == "TOILET") && r.EstimatedAreaSF > largeWCThresholdSF {
			in.Warnings = append(in.Warnings,
				fmt.Sprintf("room %q classified %s at %.0f SF, above the plausible bathroom size", r.Name, r.RoomType, r.EstimatedAreaSF))
		}
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete posts prompt to the messages endpoint and unmarshals the
// json object in the reply into out.
func (c *Client) complete(ctx context.Context, prompt string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("interpreter rate limit: %w", err)
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return fmt.Errorf("encode interpreter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build interpreter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("interpreter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interpreter returned status %d", resp.StatusCode)
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return fmt.Errorf("decode interpreter response: %w", err)
	}
	if mr.Error != nil {
		return fmt.Errorf("interpreter error: %s", mr.Error.Message)
	}

	var text strings.Builder
	for _, c := range mr.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	raw := ExtractJSON(text.String())
	if raw == "" {
		return fmt.Errorf("interpreter reply held no json object")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		monitoring.Logf("interp: unparseable reply: %.200s", raw)
		return fmt.Errorf("parse interpreter reply: %w", err)
	}
	return nil
}

// ExtractJSON pulls the json payload out of a model reply, handling
// ```json fenced blocks and leading prose before a bare object.
func ExtractJSON(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return ""
}
