// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/pkg/types"
)

const (
	conceptsQuery = `
MATCH (c:Concept)
RETURN c.name AS name, c.type AS type, c.description AS description, c.confidence AS confidence
ORDER BY name`

	relationshipsQuery = `
MATCH (a:Concept)-[r]->(b:Concept)
WHERE type(r) <> 'MENTIONS'
RETURN a.name AS source, b.name AS target, type(r) AS type, r.confidence AS confidence, r.context AS context
ORDER BY source, target, type`

	statsQuery = `
MATCH (c:Concept)
WITH count(c) AS concepts
OPTIONAL MATCH (:Concept)-[r]->(:Concept)
WHERE type(r) <> 'MENTIONS'
RETURN concepts, count(r) AS relationships`
)

// Neo4j reads the concept graph from a Neo4j database. Sessions are opened
// in read mode only.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

// NewNeo4j opens a driver for cfg and verifies connectivity before returning.
func NewNeo4j(ctx context.Context, cfg types.Neo4jConfig, log *logger.Logger) (*Neo4j, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j: uri required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPool := cfg.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = maxPool
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}

	return &Neo4j{
		driver:   driver,
		database: cfg.Database,
		log:      log.With("store", "neo4j", "uri", cfg.URI, "database", cfg.Database),
	}, nil
}

// Close releases the driver.
func (s *Neo4j) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

// LoadGraph pulls every concept and every non-MENTIONS relationship between
// concepts in one read transaction.
func (s *Neo4j) LoadGraph(ctx context.Context) (*types.GraphData, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		g := &types.GraphData{}

		res, err := tx.Run(ctx, conceptsQuery, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			c, ok := conceptFromValues(rec.AsMap())
			if !ok {
				continue
			}
			g.Concepts = append(g.Concepts, c)
		}

		res, err = tx.Run(ctx, relationshipsQuery, nil)
		if err != nil {
			return nil, err
		}
		records, err = res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			r, ok := relationshipFromValues(rec.AsMap())
			if !ok {
				continue
			}
			g.Relationships = append(g.Relationships, r)
		}
		return g, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: loading graph: %w", err)
	}

	g := out.(*types.GraphData)
	s.log.Info("loaded graph", "concepts", len(g.Concepts), "relationships", len(g.Relationships))
	return g, nil
}

// StoreStats counts what LoadGraph would read.
type StoreStats struct {
	Concepts      int `json:"concepts"`
	Relationships int `json:"relationships"`
}

// Stats is a cheap pre-flight check that the store holds a graph.
func (s *Neo4j) Stats(ctx context.Context) (StoreStats, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, statsQuery, nil)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		m := rec.AsMap()
		return StoreStats{
			Concepts:      int(asInt64(m["concepts"])),
			Relationships: int(asInt64(m["relationships"])),
		}, nil
	})
	if err != nil {
		return StoreStats{}, fmt.Errorf("neo4j: counting graph: %w", err)
	}
	return out.(StoreStats), nil
}

// conceptFromValues converts one concepts-query row. Rows without a name
// are dropped.
func conceptFromValues(m map[string]any) (types.Concept, bool) {
	name := asString(m["name"])
	if name == "" {
		return types.Concept{}, false
	}
	return types.Concept{
		Name:        name,
		Type:        types.ParseConceptType(asString(m["type"])),
		Description: asString(m["description"]),
		Confidence:  asFloat64(m["confidence"]),
	}, true
}

// relationshipFromValues converts one relationships-query row.
func relationshipFromValues(m map[string]any) (types.Relationship, bool) {
	src, tgt := asString(m["source"]), asString(m["target"])
	if src == "" || tgt == "" {
		return types.Relationship{}, false
	}
	return types.Relationship{
		Source:     src,
		Target:     tgt,
		Type:       types.ParseRelationshipType(asString(m["type"])),
		Confidence: asFloat64(m["confidence"]),
		Context:    asString(m["context"]),
	}, true
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asFloat64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
