package domain

// PersonaProfile describes a synthetic demographic persona. Values are
// produced by a generator and treated as read-only afterwards.
type PersonaProfile struct {
	ID                    string   `json:"id"`
	AgeRange              string   `json:"ageRange"`
	Gender                string   `json:"gender"`
	Interests             []string `json:"interests"`
	SocioeconomicCategory string   `json:"socioeconomicCategory"`
	Description           string   `json:"descriptionText"`
}

// Validate checks that all persona fields are present.
func (p PersonaProfile) Validate() error {
	switch {
	case p.ID == "":
		return &ValidationError{Field: "persona.id", Reason: "required"}
	case p.AgeRange == "":
		return &ValidationError{Field: "persona.ageRange", Reason: "required"}
	case p.Gender == "":
		return &ValidationError{Field: "persona.gender", Reason: "required"}
	case len(p.Interests) == 0:
		return &ValidationError{Field: "persona.interests", Reason: "required"}
	case p.SocioeconomicCategory == "":
		return &ValidationError{Field: "persona.socioeconomicCategory", Reason: "required"}
	case p.Description == "":
		return &ValidationError{Field: "persona.descriptionText", Reason: "required"}
	}
	return nil
}
