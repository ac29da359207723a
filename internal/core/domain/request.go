package domain

import (
	"fmt"
	"strings"
)

// SimulationRequest is one advertisement shown to one persona.
type SimulationRequest struct {
	Persona     PersonaProfile `json:"persona"`
	ProductText string         `json:"productText"`
	TaglineText string         `json:"taglineText"`
	Price       float64        `json:"price"`
}

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate enforces that every field is non-empty and the price is positive.
func (r SimulationRequest) Validate() error {
	if err := r.Persona.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.ProductText) == "" {
		return &ValidationError{Field: "productText", Reason: "required"}
	}
	if strings.TrimSpace(r.TaglineText) == "" {
		return &ValidationError{Field: "taglineText", Reason: "required"}
	}
	if r.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	return nil
}
