package genai

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/vietddude/adsim/internal/core/domain"
)

const systemInstruction = `You role-play a single consumer seeing an online advertisement.
Stay in character as the persona you are given and decide how you react.
Respond ONLY with a JSON object with two keys:
  "choice": one of "ignore", "follow_link", "follow_and_save", "follow_and_buy"
  "rationale": one or two sentences, in the first person, explaining the decision`

func buildPrompt(req domain.SimulationRequest) string {
	p := req.Persona
	return fmt.Sprintf(`Persona:
- Age range: %s
- Gender: %s
- Socioeconomic category: %s
- Interests: %s
- Description: %s

Advertisement:
- Product: %s
- Tagline: %s
- Price: %.2f

How do you react to this advertisement?`,
		p.AgeRange,
		p.Gender,
		p.SocioeconomicCategory,
		strings.Join(p.Interests, ", "),
		p.Description,
		req.ProductText,
		req.TaglineText,
		req.Price,
	)
}

func outcomeSchema() *genai.Schema {
	choices := make([]string, 0, len(domain.AllChoices))
	for _, c := range domain.AllChoices {
		choices = append(choices, string(c))
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"choice": {
				Type:        genai.TypeString,
				Format:      "enum",
				Enum:        choices,
				Description: "How the persona reacts to the advertisement",
			},
			"rationale": {
				Type:        genai.TypeString,
				Description: "Short first-person explanation",
			},
		},
		Required: []string{"choice", "rationale"},
	}
}
