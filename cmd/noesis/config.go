// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/noesis/internal/graphstore"
	"github.com/pdiddy/noesis/internal/secrets"
	"github.com/pdiddy/noesis/pkg/types"
)

// setDefaults registers every config key so that environment variables such
// as NOESIS_LLM_API_KEY are seen by Unmarshal even when no file sets them.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.user", d.Neo4j.User)
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", d.Neo4j.Database)
	v.SetDefault("neo4j.timeout", d.Neo4j.Timeout)
	v.SetDefault("neo4j.max_pool_size", d.Neo4j.MaxPoolSize)

	v.SetDefault("graph_file.path", d.GraphFile.Path)

	v.SetDefault("llm.provider", string(d.LLM.Provider))
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("engine.similarity_method", string(d.Engine.SimilarityMethod))
	v.SetDefault("engine.policy", string(d.Engine.Policy))
	v.SetDefault("engine.top_n", d.Engine.TopN)
	v.SetDefault("engine.min_similarity", d.Engine.MinSimilarity)
	v.SetDefault("engine.max_hypotheses", d.Engine.MaxHypotheses)
	v.SetDefault("engine.temperature", d.Engine.Temperature)
	v.SetDefault("engine.min_novelty", d.Engine.MinNovelty)
	v.SetDefault("engine.min_feasibility", d.Engine.MinFeasibility)
	v.SetDefault("engine.min_impact", d.Engine.MinImpact)
	v.SetDefault("engine.output_dir", d.Engine.OutputDir)

	v.SetDefault("exploration.max_depth", d.Exploration.MaxDepth)
	v.SetDefault("exploration.hypotheses_per_layer", d.Exploration.HypothesesPerLayer)
	v.SetDefault("exploration.branches_per_layer", d.Exploration.BranchesPerLayer)
	v.SetDefault("exploration.branching_criteria", string(d.Exploration.BranchCriterion))
	v.SetDefault("exploration.layer0_top_n", d.Exploration.Layer0TopN)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("archive.dir", d.Archive.Dir)
	v.SetDefault("metrics.textfile_path", d.Metrics.TextfilePath)
}

// loadConfig decodes the merged viper state and fills empty credentials
// from the loaded secrets.
func loadConfig(s map[string]string) (types.Config, error) {
	return decodeConfig(viper.GetViper(), s)
}

func decodeConfig(v *viper.Viper, s map[string]string) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	secrets.Apply(&c, s)
	return c, nil
}

// openStore returns the graph snapshot when one is configured, fetched over
// HTTP for http(s) URLs, and a Neo4j store otherwise. The returned close
// function is never nil.
func openStore(ctx context.Context) (graphstore.Store, func(), error) {
	if path := cfg.GraphFile.Path; path != "" {
		log.Debug("using graph snapshot", "location", path)
		if graphstore.IsRemote(path) {
			return graphstore.NewRemote(path, nil), func() {}, nil
		}
		return graphstore.NewFile(path), func() {}, nil
	}

	store, err := graphstore.NewNeo4j(ctx, cfg.Neo4j, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn("closing neo4j", "error", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if stats.Concepts == 0 {
		closeFn()
		return nil, nil, fmt.Errorf("neo4j database %q holds no concepts: %w", cfg.Neo4j.Database, types.ErrNotFound)
	}
	log.Info("graph store ready", "concepts", stats.Concepts, "relationships", stats.Relationships)
	return store, closeFn, nil
}
