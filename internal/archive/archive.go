// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps past engine runs and exploration trees in a SQLite
// database so they can be listed, searched and exported later. The archive
// is written after a run completes and never touches the graph store.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/pkg/types"
)

const dbFile = "noesis.db"

// RunKind distinguishes archived engine results from exploration trees.
type RunKind string

const (
	KindEngine      RunKind = "engine"
	KindExploration RunKind = "exploration"
)

// Archive manages the run archive database.
type Archive struct {
	db  *sql.DB
	dir string
	log *logger.Logger
}

// Open opens or creates the archive at cfg.Dir/noesis.db and ensures the
// schema exists.
func Open(cfg types.ArchiveConfig, log *logger.Logger) (*Archive, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &Archive{db: db, dir: cfg.Dir, log: log}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return a, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			created_at TEXT NOT NULL,
			similarity_method TEXT,
			policy TEXT,
			num_predictions INTEGER,
			num_hypotheses INTEGER,
			num_layers INTEGER,
			payload TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS layers (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			layer_id INTEGER NOT NULL,
			parent_layer_id INTEGER,
			depth INTEGER NOT NULL,
			branch_name TEXT,
			num_hypotheses INTEGER,
			num_concepts INTEGER,
			num_relationships INTEGER,
			PRIMARY KEY (run_id, layer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS hypotheses (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			layer_id INTEGER,
			rank INTEGER NOT NULL,
			title TEXT NOT NULL,
			rationale TEXT,
			research_direction TEXT,
			mechanism TEXT,
			source TEXT,
			target TEXT,
			source_type TEXT,
			target_type TEXT,
			similarity REAL,
			novelty REAL,
			feasibility REAL,
			impact REAL,
			combined REAL,
			keywords TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hypotheses_run_id ON hypotheses(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// runRow is the summary row written for every archived run.
type runRow struct {
	id               string
	kind             RunKind
	createdAt        time.Time
	similarityMethod string
	policy           string
	numPredictions   int
	numHypotheses    int
	numLayers        int
	payload          any
}

// SaveEngineResult archives result under its run id, replacing any earlier
// copy of the same run.
func (a *Archive) SaveEngineResult(ctx context.Context, result *types.EngineResult) error {
	meta := result.Metadata
	if meta.RunID == "" {
		return fmt.Errorf("engine result has no run id: %w", types.ErrInvalidArgument)
	}

	row := runRow{
		id:               meta.RunID,
		kind:             KindEngine,
		createdAt:        meta.Timestamp,
		similarityMethod: string(meta.SimilarityMethod),
		policy:           string(meta.Policy),
		numPredictions:   meta.NumPredictions,
		numHypotheses:    meta.NumHypotheses,
		payload:          result,
	}

	return a.save(ctx, row, func(tx *sql.Tx) error {
		return insertHypotheses(ctx, tx, meta.RunID, nil, result.Hypotheses)
	})
}

// SaveExploration archives tree under its run id, replacing any earlier
// copy of the same run.
func (a *Archive) SaveExploration(ctx context.Context, tree *types.ExplorationTree) error {
	meta := tree.Metadata
	if meta.RunID == "" {
		return fmt.Errorf("exploration tree has no run id: %w", types.ErrInvalidArgument)
	}

	numHyps := 0
	for _, l := range tree.Layers {
		numHyps += len(l.Hypotheses)
	}
	row := runRow{
		id:            meta.RunID,
		kind:          KindExploration,
		createdAt:     meta.Timestamp,
		numHypotheses: numHyps,
		numLayers:     meta.NumLayers,
		payload:       tree,
	}

	return a.save(ctx, row, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO layers (run_id, layer_id, parent_layer_id, depth, branch_name, num_hypotheses, num_concepts, num_relationships)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing layer insert: %w", err)
		}
		defer stmt.Close()

		for _, l := range tree.Layers {
			var parent sql.NullInt64
			if l.ParentLayerID != nil {
				parent = sql.NullInt64{Int64: int64(*l.ParentLayerID), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				meta.RunID, l.LayerID, parent, l.Depth, l.BranchName,
				len(l.Hypotheses), len(l.ExpandedConcepts), len(l.ExpandedRelationships),
			); err != nil {
				return fmt.Errorf("inserting layer %d: %w", l.LayerID, err)
			}

			layerID := l.LayerID
			if err := insertHypotheses(ctx, tx, meta.RunID, &layerID, l.Hypotheses); err != nil {
				return err
			}
		}
		return nil
	})
}

// save upserts the run row, clears rows from an earlier save of the same
// run, then lets fill insert the child rows, all in one transaction.
func (a *Archive) save(ctx context.Context, row runRow, fill func(tx *sql.Tx) error) error {
	payload, err := json.Marshal(row.payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM hypotheses WHERE run_id = ?`,
		`DELETE FROM layers WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, row.id); err != nil {
			return fmt.Errorf("clearing previous rows: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, created_at, similarity_method, policy, num_predictions, num_hypotheses, num_layers, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, created_at=excluded.created_at,
			similarity_method=excluded.similarity_method, policy=excluded.policy,
			num_predictions=excluded.num_predictions, num_hypotheses=excluded.num_hypotheses,
			num_layers=excluded.num_layers, payload=excluded.payload`,
		row.id, string(row.kind), row.createdAt.UTC().Format(time.RFC3339Nano),
		row.similarityMethod, row.policy, row.numPredictions, row.numHypotheses, row.numLayers,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if err := fill(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", row.id, err)
	}

	a.log.Info("run archived", "run_id", row.id, "kind", row.kind, "hypotheses", row.numHypotheses)
	return nil
}

func insertHypotheses(ctx context.Context, tx *sql.Tx, runID string, layerID *int, hyps []types.Hypothesis) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hypotheses (run_id, layer_id, rank, title, rationale, research_direction, mechanism,
			source, target, source_type, target_type, similarity, novelty, feasibility, impact, combined, keywords)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing hypothesis insert: %w", err)
	}
	defer stmt.Close()

	var layer sql.NullInt64
	if layerID != nil {
		layer = sql.NullInt64{Int64: int64(*layerID), Valid: true}
	}

	for i, h := range hyps {
		c, p := h.Content, h.Prediction
		combined := c.Combined()
		if h.CombinedScore != nil {
			combined = *h.CombinedScore
		}
		keywordsJSON, err := json.Marshal(c.Keywords)
		if err != nil {
			return fmt.Errorf("encoding keywords of %q: %w", c.Title, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, layer, i+1, c.Title, c.Rationale, c.ResearchDirection, c.Mechanism,
			p.Source, p.Target, string(p.SourceType), string(p.TargetType), p.Score,
			c.NoveltyScore, c.FeasibilityScore, c.ImpactScore, combined, string(keywordsJSON),
		); err != nil {
			return fmt.Errorf("inserting hypothesis %q: %w", c.Title, err)
		}
	}
	return nil
}
