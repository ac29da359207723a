package domain

import (
	"encoding/json"
	"fmt"
)

// OutcomeChoice is the closed set of reactions a persona can have to an ad.
type OutcomeChoice string

const (
	ChoiceIgnore        OutcomeChoice = "ignore"
	ChoiceFollowLink    OutcomeChoice = "follow_link"
	ChoiceFollowAndBuy  OutcomeChoice = "follow_and_buy"
	ChoiceFollowAndSave OutcomeChoice = "follow_and_save"
)

// AllChoices lists every valid OutcomeChoice.
var AllChoices = []OutcomeChoice{
	ChoiceIgnore,
	ChoiceFollowLink,
	ChoiceFollowAndBuy,
	ChoiceFollowAndSave,
}

// Valid reports whether c is one of the four known choices.
func (c OutcomeChoice) Valid() bool {
	switch c {
	case ChoiceIgnore, ChoiceFollowLink, ChoiceFollowAndBuy, ChoiceFollowAndSave:
		return true
	}
	return false
}

// ParseChoice converts raw text into an OutcomeChoice.
func ParseChoice(s string) (OutcomeChoice, error) {
	c := OutcomeChoice(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown outcome choice %q", s)
	}
	return c, nil
}

// UnmarshalJSON rejects values outside the closed set.
func (c *OutcomeChoice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseChoice(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Source tells where an outcome came from.
type Source string

const (
	SourceAuthentic Source = "authentic"
	SourceSynthetic Source = "synthetic"
)

// FallbackReason explains why a synthetic outcome was produced.
type FallbackReason string

const (
	ReasonNone         FallbackReason = ""
	ReasonExhausted    FallbackReason = "exhausted"
	ReasonFatal        FallbackReason = "fatal"
	ReasonWindowFailed FallbackReason = "window_failed"
	ReasonDegraded     FallbackReason = "degraded"
	ReasonCancelled    FallbackReason = "cancelled"
)

// Provenance is internal observability metadata. It is never serialized.
type Provenance struct {
	Source   Source
	Reason   FallbackReason
	Attempts int
}

// SimulationOutcome is one persona reaction.
type SimulationOutcome struct {
	Choice     OutcomeChoice `json:"choice"`
	Rationale  string        `json:"rationale"`
	Provenance Provenance    `json:"-"`
}

// Synthetic reports whether the outcome was produced by the fallback path.
func (o SimulationOutcome) Synthetic() bool {
	return o.Provenance.Source == SourceSynthetic
}
