// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/noesis/pkg/types"
)

const defaultLimit = 20

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID               string    `json:"id" yaml:"id"`
	Kind             RunKind   `json:"kind" yaml:"kind"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	SimilarityMethod string    `json:"similarity_method,omitempty" yaml:"similarity_method,omitempty"`
	Policy           string    `json:"policy,omitempty" yaml:"policy,omitempty"`
	NumPredictions   int       `json:"num_predictions" yaml:"num_predictions"`
	NumHypotheses    int       `json:"num_hypotheses" yaml:"num_hypotheses"`
	NumLayers        int       `json:"num_layers" yaml:"num_layers"`
}

// HypothesisRecord is an archived hypothesis with the run it belongs to.
type HypothesisRecord struct {
	RunID       string   `json:"run_id" yaml:"run_id"`
	LayerID     *int     `json:"layer_id,omitempty" yaml:"layer_id,omitempty"`
	Rank        int      `json:"rank" yaml:"rank"`
	Title       string   `json:"title" yaml:"title"`
	Rationale   string   `json:"rationale" yaml:"rationale"`
	Source      string   `json:"source" yaml:"source"`
	Target      string   `json:"target" yaml:"target"`
	SourceType  string   `json:"source_type" yaml:"source_type"`
	TargetType  string   `json:"target_type" yaml:"target_type"`
	Similarity  float64  `json:"similarity" yaml:"similarity"`
	Novelty     float64  `json:"novelty" yaml:"novelty"`
	Feasibility float64  `json:"feasibility" yaml:"feasibility"`
	Impact      float64  `json:"impact" yaml:"impact"`
	Combined    float64  `json:"combined" yaml:"combined"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
}

// ListRuns returns the most recent runs first. A limit of zero uses the
// default of 20.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, kind, created_at, similarity_method, policy, num_predictions, num_hypotheses, num_layers
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                RunSummary
			kind, createdAt  string
			method, policy   sql.NullString
			preds, hyps, lay sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &kind, &createdAt, &method, &policy, &preds, &hyps, &lay); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Kind = RunKind(kind)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.SimilarityMethod = method.String
		r.Policy = policy.String
		r.NumPredictions = int(preds.Int64)
		r.NumHypotheses = int(hyps.Int64)
		r.NumLayers = int(lay.Int64)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SearchHypotheses finds archived hypotheses whose title, rationale,
// research direction, mechanism, endpoints or keywords contain text,
// case-insensitively. Results are ordered by combined score. An empty text
// matches everything.
func (a *Archive) SearchHypotheses(ctx context.Context, text string, limit int) ([]HypothesisRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"

	rows, err := a.db.QueryContext(ctx,
		`SELECT run_id, layer_id, rank, title, rationale, source, target, source_type, target_type,
			similarity, novelty, feasibility, impact, combined, keywords
		 FROM hypotheses
		 WHERE `+searchClause+`
		 ORDER BY combined DESC, rowid
		 LIMIT ?`, searchArgs(pattern, limit)...)
	if err != nil {
		return nil, fmt.Errorf("searching hypotheses: %w", err)
	}
	defer rows.Close()

	var out []HypothesisRecord
	for rows.Next() {
		var (
			r            HypothesisRecord
			layer        sql.NullInt64
			keywordsJSON sql.NullString
		)
		if err := rows.Scan(&r.RunID, &layer, &r.Rank, &r.Title, &r.Rationale,
			&r.Source, &r.Target, &r.SourceType, &r.TargetType,
			&r.Similarity, &r.Novelty, &r.Feasibility, &r.Impact, &r.Combined, &keywordsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning hypothesis: %w", err)
		}
		if layer.Valid {
			id := int(layer.Int64)
			r.LayerID = &id
		}
		if keywordsJSON.Valid {
			if err := json.Unmarshal([]byte(keywordsJSON.String), &r.Keywords); err != nil {
				return nil, fmt.Errorf("decoding keywords of %q: %w", r.Title, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// searchColumns are matched by SearchHypotheses.
var searchColumns = []string{"title", "rationale", "research_direction", "mechanism", "source", "target", "keywords"}

var searchClause = func() string {
	parts := make([]string, len(searchColumns))
	for i, col := range searchColumns {
		parts[i] = "lower(" + col + `) LIKE ? ESCAPE '\'`
	}
	return strings.Join(parts, " OR ")
}()

func searchArgs(pattern string, limit int) []any {
	args := make([]any, 0, len(searchColumns)+1)
	for range searchColumns {
		args = append(args, pattern)
	}
	return append(args, limit)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ExportYAML writes the archived payload of runID to path as YAML. An
// unknown run id wraps types.ErrNotFound.
func (a *Archive) ExportYAML(ctx context.Context, runID, path string) error {
	var kind, payload string
	err := a.db.QueryRowContext(ctx,
		`SELECT kind, payload FROM runs WHERE id = ?`, runID,
	).Scan(&kind, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %s: %w", runID, types.ErrNotFound)
		}
		return fmt.Errorf("looking up run: %w", err)
	}

	var doc any
	switch RunKind(kind) {
	case KindEngine:
		var result types.EngineResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return fmt.Errorf("decoding run %s: %w", runID, err)
		}
		doc = result
	case KindExploration:
		var tree types.ExplorationTree
		if err := json.Unmarshal([]byte(payload), &tree); err != nil {
			return fmt.Errorf("decoding run %s: %w", runID, err)
		}
		doc = tree
	default:
		return fmt.Errorf("run %s has unknown kind %q", runID, kind)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
