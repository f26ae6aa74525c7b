// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graphstore reads concept graphs from external stores. Nothing in
// this package writes to Neo4j; exploration results stay in memory.
package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/noesis/pkg/types"
)

// Store is a bulk source of concepts and relationships.
type Store interface {
	LoadGraph(ctx context.Context) (*types.GraphData, error)
}

// Memory serves a fixed GraphData. Useful in tests and for graphs built
// in-process.
type Memory struct {
	Data types.GraphData
}

// LoadGraph returns a copy of the held data.
func (m *Memory) LoadGraph(_ context.Context) (*types.GraphData, error) {
	out := types.GraphData{
		Concepts:      append([]types.Concept(nil), m.Data.Concepts...),
		Relationships: append([]types.Relationship(nil), m.Data.Relationships...),
	}
	return &out, nil
}

// File reads and writes a graph snapshot as JSON or YAML, chosen by the
// file extension (.json, .yaml, .yml).
type File struct {
	path string
}

// NewFile returns a File store for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// LoadGraph decodes the snapshot and normalizes concept and relationship types.
func (f *File) LoadGraph(_ context.Context) (*types.GraphData, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file %s: %w", f.path, err)
	}

	g, err := decodeGraph(data, filepath.Ext(f.path))
	if err != nil {
		return nil, fmt.Errorf("graph file %s: %w", f.path, err)
	}
	return g, nil
}

// decodeGraph parses a snapshot in the format named by ext (.json, .yaml,
// or .yml) and normalizes concept and relationship types.
func decodeGraph(data []byte, ext string) (*types.GraphData, error) {
	var raw rawGraph
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported format %q (want .json, .yaml, or .yml): %w", ext, types.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing graph: %w", err)
	}
	return raw.normalize(), nil
}

// StoreGraph writes g to the file, creating parent directories.
func (f *File) StoreGraph(_ context.Context, g *types.GraphData) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating graph file directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(g)
	default:
		data, err = json.MarshalIndent(g, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	return os.WriteFile(f.path, data, 0o644)
}

// rawGraph mirrors GraphData with plain strings so that hand-written files
// may use any casing for types.
type rawGraph struct {
	Concepts []struct {
		Name        string  `json:"name" yaml:"name"`
		Type        string  `json:"type" yaml:"type"`
		Description string  `json:"description" yaml:"description"`
		Confidence  float64 `json:"confidence" yaml:"confidence"`
	} `json:"concepts" yaml:"concepts"`
	Relationships []struct {
		Source     string  `json:"source" yaml:"source"`
		Target     string  `json:"target" yaml:"target"`
		Type       string  `json:"type" yaml:"type"`
		Confidence float64 `json:"confidence" yaml:"confidence"`
		Context    string  `json:"context" yaml:"context"`
	} `json:"relationships" yaml:"relationships"`
}

func (r rawGraph) normalize() *types.GraphData {
	g := &types.GraphData{
		Concepts:      make([]types.Concept, 0, len(r.Concepts)),
		Relationships: make([]types.Relationship, 0, len(r.Relationships)),
	}
	for _, c := range r.Concepts {
		g.Concepts = append(g.Concepts, types.Concept{
			Name:        c.Name,
			Type:        types.ParseConceptType(c.Type),
			Description: c.Description,
			Confidence:  c.Confidence,
		})
	}
	for _, rel := range r.Relationships {
		g.Relationships = append(g.Relationships, types.Relationship{
			Source:     rel.Source,
			Target:     rel.Target,
			Type:       types.ParseRelationshipType(rel.Type),
			Confidence: rel.Confidence,
			Context:    rel.Context,
		})
	}
	return g
}
