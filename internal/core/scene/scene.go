// Package scene reads and writes entity trees as YAML or JSON documents.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/components"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

var ErrMissingClass = errors.New("scene node has no class")

// Scene is a document describing one or more entity trees.
type Scene struct {
	Name  string  `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []*Node `json:"nodes" yaml:"nodes"`
}

// Node describes one entity. Property values are plain data and are
// coerced to the tag each property declares.
type Node struct {
	Class      string         `json:"class" yaml:"class"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Components []string       `json:"components,omitempty" yaml:"components,omitempty"`
	Children   []*Node        `json:"children,omitempty" yaml:"children,omitempty"`
}

// Load reads a YAML scene. JSON documents are accepted as well since they
// are valid YAML.
func Load(r io.Reader) (*Scene, error) {
	return LoadYAML(r)
}

// LoadJSON loads a scene from a JSON reader.
func LoadJSON(r io.Reader) (*Scene, error) {
	var s Scene
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadYAML loads a scene from a YAML reader.
func LoadYAML(r io.Reader) (*Scene, error) {
	var s Scene
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	return LoadYAML(f)
}

// Encode writes s as YAML.
func (s *Scene) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Build creates every tree of the scene under parent (or parentless when
// parent is Nil) and returns the root ids. A tree that fails to build is
// destroyed before the error is returned.
func (s *Scene) Build(w *models.World, parent handle.ID) ([]handle.ID, error) {
	roots := make([]handle.ID, 0, len(s.Nodes))
	for i, n := range s.Nodes {
		id, err := n.build(w, parent, fmt.Sprintf("nodes[%d]", i))
		if err != nil {
			return roots, err
		}
		roots = append(roots, id)
	}
	return roots, nil
}

func (n *Node) build(w *models.World, parent handle.ID, where string) (handle.ID, error) {
	if n.Class == "" {
		return handle.Nil, fmt.Errorf("%s: %w", where, ErrMissingClass)
	}
	obj, err := w.Create(n.Class)
	if err != nil {
		return handle.Nil, fmt.Errorf("%s: %w", where, err)
	}
	e := obj.Base()
	id := e.ID()
	if n.Name != "" {
		e.SetName(n.Name)
		where = where + "(" + n.Name + ")"
	}

	if err = n.apply(w, obj); err == nil && !parent.IsNil() {
		err = w.Attach(id, parent)
	}
	if err != nil {
		_ = w.Destroy(id)
		return handle.Nil, fmt.Errorf("%s: %w", where, err)
	}
	for i, child := range n.Children {
		if _, err = child.build(w, id, fmt.Sprintf("%s.children[%d]", where, i)); err != nil {
			_ = w.Destroy(id)
			return handle.Nil, err
		}
	}
	return id, nil
}

func (n *Node) apply(w *models.World, obj models.Object) error {
	id := obj.Base().ID()
	for _, kind := range n.Components {
		s, err := w.Components().Storage(components.Kind(kind))
		if err != nil {
			return err
		}
		if err = s.Attach(id); err != nil {
			return err
		}
	}

	api := obj.Base().Api()
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p, err := api.ResolveProperty(name)
		if err != nil {
			return err
		}
		v, err := value.Coerce(n.Properties[name], p.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		if err = api.Set(obj, name, v); err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
	}
	return nil
}

// Snapshot describes the tree rooted at root. Read-only and object
// reference properties are left out; ids do not survive a reload.
func Snapshot(w *models.World, root handle.ID) (*Node, error) {
	obj, err := w.Get(root)
	if err != nil {
		return nil, err
	}
	e := obj.Base()
	api := e.Api()
	n := &Node{Class: e.ClassName(), Name: e.Name()}

	for _, name := range api.PropertyNames() {
		p, err := api.ResolveProperty(name)
		if err != nil {
			return nil, err
		}
		if p.ReadOnly() || p.Type == value.TagObjectRef || name == "Name" {
			continue
		}
		v, err := api.Get(obj, name)
		if err != nil {
			return nil, err
		}
		raw, err := value.ToAny(v)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		if n.Properties == nil {
			n.Properties = make(map[string]any)
		}
		n.Properties[name] = raw
	}

	for _, kind := range w.Components().Kinds() {
		if s, err := w.Components().Storage(kind); err == nil && s.Has(root) {
			n.Components = append(n.Components, string(kind))
		}
	}

	for _, cid := range e.Children() {
		child, err := Snapshot(w, cid)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}
