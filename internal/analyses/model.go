package analyses

import "doc-analyzer/internal/sections"

// Options are the optional topics a client can request on top of the summary.
type Options struct {
	CharacterAnalysis     bool `json:"characterAnalysis"`
	PlotAnalysis          bool `json:"plotAnalysis"`
	ThematicAnalysis      bool `json:"thematicAnalysis"`
	ReadabilityAssessment bool `json:"readabilityAssessment"`
	SentimentAnalysis     bool `json:"sentimentAnalysis"`
	StyleConsistency      bool `json:"styleConsistency"`
}

// AllOptions enables every topic.
func AllOptions() Options {
	return Options{true, true, true, true, true, true}
}

// SectionIDs lists the section ids to analyze. The summary is always first.
func (o Options) SectionIDs() []string {
	ids := []string{"summary"}
	for _, t := range []struct {
		on bool
		id string
	}{
		{o.CharacterAnalysis, "characters"},
		{o.PlotAnalysis, "plot"},
		{o.ThematicAnalysis, "themes"},
		{o.ReadabilityAssessment, "readability"},
		{o.SentimentAnalysis, "sentiment"},
		{o.StyleConsistency, "style"},
	} {
		if t.on {
			ids = append(ids, t.id)
		}
	}
	return ids
}

// Request is a paid analysis request.
type Request struct {
	PaymentIntentID string
	DocumentID      string
	// Options defaults to AllOptions when nil.
	Options *Options
}

// Body carries the analysis text.
type Body struct {
	Summary string `json:"summary"`
}

// Result is returned to the client once a paid analysis is available.
type Result struct {
	ID       string         `json:"id"`
	Analysis Body           `json:"analysis"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Options  *Options       `json:"options,omitempty"`
	// Reused is set when a stored analysis was returned without calling the model.
	Reused bool `json:"-"`
}

func specsFor(all []sections.SectionSpec, ids []string) []sections.SectionSpec {
	if len(ids) == 0 {
		return all
	}
	return sections.ByID(all, ids...)
}
