package sections

import (
	"regexp"
	"strings"
)

// Placeholder is rendered for a section whose marker is missing or whose body is empty.
const Placeholder = "暂无内容"

// SectionSpec describes one topic section of an analysis text.
type SectionSpec struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
	Marker string `json:"marker"`
}

// RawSection is the raw text captured for one section.
type RawSection struct {
	Spec  SectionSpec
	Raw   string
	Found bool
}

// Fragment is the rendered, HTML-safe body of one section.
type Fragment struct {
	Spec  SectionSpec
	HTML  string
	Empty bool
}

// DefaultSpecs returns the section list the analysis prompt asks for, in render order.
func DefaultSpecs() []SectionSpec {
	return []SectionSpec{
		{ID: "summary", Title: "摘要", Icon: "file-text", Marker: "摘要"},
		{ID: "characters", Title: "人物分析", Icon: "users", Marker: "人物分析"},
		{ID: "plot", Title: "情节分析", Icon: "book-open", Marker: "情节分析"},
		{ID: "themes", Title: "主题分析", Icon: "feather", Marker: "主题分析"},
		{ID: "readability", Title: "可读性评估", Icon: "check-circle", Marker: "可读性评估"},
		{ID: "sentiment", Title: "情感分析", Icon: "heart", Marker: "情感分析"},
		{ID: "style", Title: "风格和一致性", Icon: "edit-3", Marker: "风格和一致性"},
	}
}

// ByID returns the specs whose IDs are listed, keeping the order of specs.
func ByID(specs []SectionSpec, ids ...string) []SectionSpec {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]SectionSpec, 0, len(ids))
	for _, s := range specs {
		if _, ok := want[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

type span struct {
	start, end int
}

// markerPattern matches a section heading. A marker counts as a heading when it is
// introduced by heading hashes or ordinal numbering at line start, when it stands alone
// at line start followed by a colon or end of line, or when a colon follows it directly.
// Bold markup around the marker is accepted. A bare mention inside running text never matches.
func markerPattern(marker string) *regexp.Regexp {
	m := regexp.QuoteMeta(marker)
	return regexp.MustCompile(`(?m)` +
		`^[ \t]*(?:#+[ \t]*(?:\d+[.、)][ \t]*)?|\d+[.、)][ \t]*)(?:\*\*)?` + m + `(?:\*\*)?[ \t]*[:：]?(?:\*\*)?` +
		`|^[ \t]*(?:\*\*)?` + m + `(?:\*\*)?[ \t]*(?:[:：](?:\*\*)?|$)` +
		`|` + m + `(?:\*\*)?[ \t]*[:：](?:\*\*)?`)
}

// Slice cuts text into one RawSection per spec. A section runs from the end of its marker to
// the start of the nearest later-declared marker that follows it, or to end of text.
func Slice(text string, specs []SectionSpec) []RawSection {
	out := make([]RawSection, len(specs))
	patterns := make([]*regexp.Regexp, len(specs))
	for i, s := range specs {
		out[i] = RawSection{Spec: s}
		if strings.TrimSpace(s.Marker) != "" {
			patterns[i] = markerPattern(s.Marker)
		}
	}
	if text == "" {
		return out
	}

	for i := range specs {
		if patterns[i] == nil {
			continue
		}
		loc := patterns[i].FindStringIndex(text)
		if loc == nil {
			continue
		}
		body := span{start: loc[1], end: len(text)}
		for j := i + 1; j < len(specs); j++ {
			if patterns[j] == nil {
				continue
			}
			next := patterns[j].FindStringIndex(text[body.start:])
			if next == nil {
				continue
			}
			if abs := body.start + next[0]; abs < body.end {
				body.end = abs
			}
		}
		out[i].Raw = text[body.start:body.end]
		out[i].Found = true
	}
	return out
}

// Extract slices text and formats every section. The result always has len(specs)
// fragments in declared order.
func Extract(text string, specs []SectionSpec) []Fragment {
	slices := Slice(text, specs)
	out := make([]Fragment, len(slices))
	for i, s := range slices {
		html := Placeholder
		if s.Found {
			html = Format(s.Raw)
		}
		out[i] = Fragment{Spec: s.Spec, HTML: html, Empty: html == Placeholder}
	}
	return out
}
