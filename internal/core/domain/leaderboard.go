package domain

import "time"

// LeaderboardEntry ranks an advertisement by how the simulated audience reacted.
type LeaderboardEntry struct {
	ID             string    `json:"id"                db:"id"`
	ProductText    string    `json:"productText"       db:"product_text"`
	TaglineText    string    `json:"taglineText"       db:"tagline_text"`
	Price          float64   `json:"price"             db:"price"`
	SampleSize     int       `json:"sampleSize"        db:"sample_size"`
	EngagementRate float64   `json:"engagementRate"    db:"engagement_rate"`
	ConversionRate float64   `json:"conversionRate"    db:"conversion_rate"`
	CreatedAt      time.Time `json:"createdAt"         db:"created_at"`
}

// OutcomeSummary aggregates a batch of outcomes.
type OutcomeSummary struct {
	Total          int                   `json:"total"`
	Counts         map[OutcomeChoice]int `json:"counts"`
	Synthetic      int                   `json:"synthetic"`
	EngagementRate float64               `json:"engagementRate"`
	ConversionRate float64               `json:"conversionRate"`
}

// Summarize counts choices. Engagement is every non-ignore reaction,
// conversion is follow-and-buy only.
func Summarize(outcomes []SimulationOutcome) OutcomeSummary {
	s := OutcomeSummary{
		Total:  len(outcomes),
		Counts: make(map[OutcomeChoice]int, len(AllChoices)),
	}
	for _, c := range AllChoices {
		s.Counts[c] = 0
	}
	for _, o := range outcomes {
		s.Counts[o.Choice]++
		if o.Synthetic() {
			s.Synthetic++
		}
	}
	if s.Total == 0 {
		return s
	}
	engaged := s.Total - s.Counts[ChoiceIgnore]
	s.EngagementRate = float64(engaged) / float64(s.Total)
	s.ConversionRate = float64(s.Counts[ChoiceFollowAndBuy]) / float64(s.Total)
	return s
}
