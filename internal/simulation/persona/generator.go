// Package persona generates random demographic personas.
package persona

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vietddude/adsim/internal/core/domain"
	"github.com/vietddude/adsim/internal/core/random"
)

var (
	ageRanges = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
	genders   = []string{"female", "male", "non-binary"}

	socioeconomicCategories = []string{
		"student",
		"working class",
		"lower middle class",
		"middle class",
		"upper middle class",
		"affluent",
		"retired",
	}

	interestPool = []string{
		"fitness", "cooking", "travel", "gaming", "fashion", "technology",
		"gardening", "personal finance", "parenting", "music", "outdoor sports",
		"reading", "home improvement", "beauty", "pets", "film", "sustainability",
		"photography", "cars", "art",
	}
)

const (
	minInterests = 2
	maxInterests = 4
)

// Generator builds PersonaProfiles from fixed attribute pools.
type Generator struct {
	rng random.Source
}

// NewGenerator creates a generator. A nil source uses the global one.
func NewGenerator(rng random.Source) *Generator {
	if rng == nil {
		rng = random.Global()
	}
	return &Generator{rng: rng}
}

// Generate returns a new random persona.
func (g *Generator) Generate() domain.PersonaProfile {
	p := domain.PersonaProfile{
		ID:                    uuid.NewString(),
		AgeRange:              g.pick(ageRanges),
		Gender:                g.pick(genders),
		SocioeconomicCategory: g.pick(socioeconomicCategories),
		Interests:             g.interests(minInterests + g.rng.IntN(maxInterests-minInterests+1)),
	}
	p.Description = describe(p)
	return p
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.IntN(len(pool))]
}

// interests draws n distinct entries, keeping draw order.
func (g *Generator) interests(n int) []string {
	remaining := append([]string(nil), interestPool...)
	out := make([]string, 0, n)
	for range n {
		i := g.rng.IntN(len(remaining))
		out = append(out, remaining[i])
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
	return out
}

func describe(p domain.PersonaProfile) string {
	return fmt.Sprintf("A %s %s person aged %s who is into %s.",
		p.SocioeconomicCategory, p.Gender, p.AgeRange, joinList(p.Interests))
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	out := ""
	for i, item := range items {
		switch {
		case i == len(items)-1:
			out += "and " + item
		default:
			out += item + ", "
		}
	}
	return out
}
