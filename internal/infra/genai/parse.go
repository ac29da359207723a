package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/simulation/retry"
)

var errEmptyResponse = errors.New("no content generated")

type modelOutcome struct {
	Choice    domain.OutcomeChoice `json:"choice"`
	Rationale string               `json:"rationale"`
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &retry.ResponseParseError{Err: errEmptyResponse}
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", &retry.ResponseParseError{
			Err: fmt.Errorf("%w (finish reason %s)", errEmptyResponse, cand.FinishReason),
		}
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

// parseOutcome decodes the model's JSON answer. Markdown code fences are
// tolerated.
func parseOutcome(text string) (domain.SimulationOutcome, error) {
	body := stripFences(text)
	if body == "" {
		return domain.SimulationOutcome{}, &retry.ResponseParseError{Body: text, Err: errEmptyResponse}
	}

	var out modelOutcome
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return domain.SimulationOutcome{}, &retry.ResponseParseError{Body: text, Err: err}
	}
	if !out.Choice.Valid() {
		return domain.SimulationOutcome{}, &retry.ResponseParseError{Body: text, Err: errors.New("missing choice")}
	}
	rationale := strings.TrimSpace(out.Rationale)
	if rationale == "" {
		return domain.SimulationOutcome{}, &retry.ResponseParseError{Body: text, Err: errors.New("missing rationale")}
	}
	return domain.SimulationOutcome{Choice: out.Choice, Rationale: rationale}, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // language tag
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
