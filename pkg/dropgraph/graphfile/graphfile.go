// Package graphfile loads drop graphs from YAML, JSON or HCL descriptions.
//
// YAML:
//
//	drops:
//	  - uid: a
//	    consumers: [b]
//	  - uid: b
//	    kind: container
//
// HCL:
//
//	drop "a" {
//	  consumers = ["b"]
//	}
//	drop "b" {
//	  kind = "container"
//	}
package graphfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph"
)

// ErrInvalidFile is returned when a description cannot be turned into a graph.
var ErrInvalidFile = errors.New("invalid graph file")

// File is a declarative graph description.
type File struct {
	Drops []*DropSpec `yaml:"drops" json:"drops" hcl:"drop,block"`
}

// DropSpec describes one drop and the links it declares.
type DropSpec struct {
	UID       string   `yaml:"uid" json:"uid" hcl:"uid,label"`
	Kind      string   `yaml:"kind,omitempty" json:"kind,omitempty" hcl:"kind,optional"`
	Producer  string   `yaml:"producer,omitempty" json:"producer,omitempty" hcl:"producer,optional"`
	Consumers []string `yaml:"consumers,omitempty" json:"consumers,omitempty" hcl:"consumers,optional"`
	Children  []string `yaml:"children,omitempty" json:"children,omitempty" hcl:"children,optional"`
}

// FromFile reads a description, choosing the format by extension.
// Supported extensions: .yaml, .yml, .json, .hcl
func FromFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read graph file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	case ".hcl":
		return FromHCL(data, path)
	default:
		return File{}, fmt.Errorf("unsupported graph file extension: %s", ext)
	}
}

// FromYAML parses a YAML description. Unknown fields are rejected.
func FromYAML(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parse yaml: %w", err)
	}
	return f, nil
}

// FromJSON parses a JSON description. Unknown fields are rejected.
func FromJSON(data []byte) (File, error) {
	var f File
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse json: %w", err)
	}
	return f, nil
}

// FromHCL parses an HCL description. filename is used in diagnostics.
func FromHCL(data []byte, filename string) (File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return File{}, fmt.Errorf("parse hcl %s: %w", filename, diags)
	}

	var f File
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
		return File{}, fmt.Errorf("decode hcl %s: %w", filename, diags)
	}
	return f, nil
}

// Build validates f and compiles it into a graph.
func Build(f File) (*dropgraph.Graph, error) {
	var errs []error
	roles := make(map[string]dropgraph.Role, len(f.Drops))

	for i, ds := range f.Drops {
		if ds == nil {
			errs = append(errs, fmt.Errorf("drop %d: empty entry", i))
			continue
		}
		switch {
		case ds.UID == "":
			errs = append(errs, fmt.Errorf("drop %d: uid is required", i))
			continue
		case strings.ContainsAny(ds.UID, " \t\n\r"):
			errs = append(errs, fmt.Errorf("drop %q: uid contains whitespace", ds.UID))
			continue
		}
		if _, dup := roles[ds.UID]; dup {
			errs = append(errs, fmt.Errorf("drop %q: declared twice", ds.UID))
			continue
		}
		role, err := dropgraph.ParseRole(ds.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("drop %q: %w", ds.UID, err))
			continue
		}
		roles[ds.UID] = role
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, errors.Join(errs...))
	}

	b := dropgraph.NewBuilder()
	for _, ds := range f.Drops {
		b.AddDrop(ds.UID, roles[ds.UID])
	}
	for _, ds := range f.Drops {
		for _, c := range ds.Consumers {
			b.AddConsumer(ds.UID, c)
		}
		if ds.Producer != "" {
			b.SetProducer(ds.UID, ds.Producer)
		}
		for _, c := range ds.Children {
			b.AddChild(ds.UID, c)
		}
	}
	return b.Compile()
}

// Load reads path and builds the graph it describes.
func Load(path string) (*dropgraph.Graph, error) {
	f, err := FromFile(path)
	if err != nil {
		return nil, err
	}
	return Build(f)
}
