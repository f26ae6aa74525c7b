// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hypothesis

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/noesis/pkg/types"
)

// maxPromptNeighbors caps how many shared neighbors are named in a prompt.
const maxPromptNeighbors = 5

// hypothesisPromptTmpl asks the backend to justify one predicted link.
var hypothesisPromptTmpl = template.Must(template.New("hypothesis").Parse(`You are a research scientist looking for promising, underexplored connections between concepts in a knowledge graph built from the scientific literature.

Structural link prediction suggests the following two concepts are related, although the literature has not yet connected them directly.

Concept 1: {{.SourceName}} ({{.SourceType}})
Description: {{.SourceDescription}}

Concept 2: {{.TargetName}} ({{.TargetType}})
Description: {{.TargetDescription}}

Similarity score: {{.SimilarityScore}}
Shared neighboring concepts ({{.NumCommonNeighbors}}): {{.CommonNeighbors}}

Propose one research hypothesis connecting these concepts. Respond with a JSON object of the form:

{"hypothesis": {
  "title": "a concise title",
  "rationale": "why the connection is plausible, grounded in the shared neighbors",
  "research_direction": "what a research program would investigate",
  "mechanism": "the proposed mechanism linking the two concepts",
  "next_steps": ["first concrete step", "second concrete step"],
  "novelty_score": 0.0,
  "feasibility_score": 0.0,
  "impact_score": 0.0,
  "keywords": ["keyword"]
}}

Each score is a number between 0.0 and 1.0. Do not include any text outside the JSON object.
`))

type promptData struct {
	SourceName, SourceType, SourceDescription string
	TargetName, TargetType, TargetDescription string
	SimilarityScore                           string
	CommonNeighbors                           string
	NumCommonNeighbors                        int
}

// renderPrompt fills the template from pred.
func renderPrompt(pred types.LinkPrediction) (string, error) {
	data := promptData{
		SourceName:         pred.Source,
		SourceType:         string(orUnknown(pred.SourceType)),
		SourceDescription:  orDefault(pred.SourceDescription),
		TargetName:         pred.Target,
		TargetType:         string(orUnknown(pred.TargetType)),
		TargetDescription:  orDefault(pred.TargetDescription),
		SimilarityScore:    fmt.Sprintf("%.4f", pred.Score),
		CommonNeighbors:    formatNeighbors(pred.CommonNeighbors),
		NumCommonNeighbors: pred.NumCommonNeighbors,
	}

	var buf bytes.Buffer
	if err := hypothesisPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatNeighbors lists up to maxPromptNeighbors names, marking any omitted.
func formatNeighbors(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	if len(names) <= maxPromptNeighbors {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:maxPromptNeighbors], ", ") + ", ..."
}

func orUnknown(t types.ConceptType) types.ConceptType {
	if t == "" {
		return types.ConceptUnknown
	}
	return t
}

func orDefault(desc string) string {
	if strings.TrimSpace(desc) == "" {
		return "No description available"
	}
	return desc
}
