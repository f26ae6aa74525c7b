// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hypothesis

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/noesis/pkg/types"
)

var (
	textFields  = []string{"title", "rationale", "research_direction", "mechanism"}
	listFields  = []string{"next_steps", "keywords"}
	scoreFields = []string{"novelty_score", "feasibility_score", "impact_score"}
)

// ParseStructured extracts hypothesis content from a backend reply. Markdown
// code fences are stripped and an enclosing "hypothesis" object is
// unwrapped. Every field must be present with the right JSON type and each
// score must lie in [0, 1]. Failures wrap types.ErrMalformedResponse.
func ParseStructured(text string) (types.HypothesisContent, error) {
	body := stripFences(text)
	if !gjson.Valid(body) {
		return types.HypothesisContent{}, fmt.Errorf("invalid JSON: %w", types.ErrMalformedResponse)
	}

	root := gjson.Parse(body)
	if !root.IsObject() {
		return types.HypothesisContent{}, fmt.Errorf("expected JSON object: %w", types.ErrMalformedResponse)
	}
	if inner := root.Get("hypothesis"); inner.IsObject() {
		root = inner
	}

	for _, f := range textFields {
		if v := root.Get(f); v.Type != gjson.String {
			return types.HypothesisContent{}, fmt.Errorf("field %q missing or not a string: %w", f, types.ErrMalformedResponse)
		}
	}
	for _, f := range listFields {
		if v := root.Get(f); !v.IsArray() {
			return types.HypothesisContent{}, fmt.Errorf("field %q missing or not a list: %w", f, types.ErrMalformedResponse)
		}
	}
	for _, f := range scoreFields {
		v := root.Get(f)
		if v.Type != gjson.Number {
			return types.HypothesisContent{}, fmt.Errorf("field %q missing or not a number: %w", f, types.ErrMalformedResponse)
		}
		if s := v.Float(); s < 0 || s > 1 {
			return types.HypothesisContent{}, fmt.Errorf("field %q = %g outside [0, 1]: %w", f, s, types.ErrMalformedResponse)
		}
	}

	return types.HypothesisContent{
		Title:             root.Get("title").String(),
		Rationale:         root.Get("rationale").String(),
		ResearchDirection: root.Get("research_direction").String(),
		Mechanism:         root.Get("mechanism").String(),
		NextSteps:         stringList(root.Get("next_steps")),
		NoveltyScore:      root.Get("novelty_score").Float(),
		FeasibilityScore:  root.Get("feasibility_score").Float(),
		ImpactScore:       root.Get("impact_score").Float(),
		Keywords:          stringList(root.Get("keywords")),
	}, nil
}

func stringList(v gjson.Result) []string {
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
