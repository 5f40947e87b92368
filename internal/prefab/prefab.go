// Package prefab loads named entity templates from YAML and spawns them into
// an ECS World. Component payloads are decoded through the component
// registry, so any registered component type can appear in a prefab file.
package prefab

import (
	"fmt"
	"os"

	"github.com/l1jgo/devkit/internal/core/ecs"
	"gopkg.in/yaml.v3"
)

// Prefab is a named entity template.
type Prefab struct {
	Name       string
	Disabled   bool
	Components []ComponentSpec
}

// ComponentSpec is one component entry of a prefab, kept as raw YAML until
// spawn time so each spawn gets a fresh instance.
type ComponentSpec struct {
	Name string
	body yaml.Node
}

// SceneEntry spawns Count copies of a prefab.
type SceneEntry struct {
	Prefab string `yaml:"prefab"`
	Count  int    `yaml:"count"`
}

type Scene struct {
	Name  string       `yaml:"name"`
	Spawn []SceneEntry `yaml:"spawn"`
}

type prefabEntry struct {
	Name       string    `yaml:"name"`
	Disabled   bool      `yaml:"disabled"`
	Components yaml.Node `yaml:"components"`
}

type prefabFile struct {
	Prefabs []prefabEntry `yaml:"prefabs"`
	Scenes  []Scene       `yaml:"scenes"`
}

// Library holds all prefabs and scenes indexed by name.
type Library struct {
	prefabs map[string]*Prefab
	scenes  map[string]*Scene
}

// LoadLibrary loads prefabs from a YAML file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefabs: %w", err)
	}
	lib, err := ParseLibrary(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// ParseLibrary decodes a prefab document. Every component is decoded once up
// front so unknown names and malformed payloads fail at load, not at spawn.
func ParseLibrary(data []byte) (*Library, error) {
	var f prefabFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prefabs: %w", err)
	}

	lib := &Library{
		prefabs: make(map[string]*Prefab, len(f.Prefabs)),
		scenes:  make(map[string]*Scene, len(f.Scenes)),
	}
	for i := range f.Prefabs {
		entry := &f.Prefabs[i]
		if entry.Name == "" {
			return nil, fmt.Errorf("prefab #%d has no name", i)
		}
		if _, dup := lib.prefabs[entry.Name]; dup {
			return nil, fmt.Errorf("duplicate prefab %q", entry.Name)
		}
		p, err := buildPrefab(entry)
		if err != nil {
			return nil, fmt.Errorf("prefab %q: %w", entry.Name, err)
		}
		lib.prefabs[p.Name] = p
	}
	for i := range f.Scenes {
		sc := &f.Scenes[i]
		for _, se := range sc.Spawn {
			if _, ok := lib.prefabs[se.Prefab]; !ok {
				return nil, fmt.Errorf("scene %q: unknown prefab %q", sc.Name, se.Prefab)
			}
		}
		lib.scenes[sc.Name] = sc
	}
	return lib, nil
}

func buildPrefab(entry *prefabEntry) (*Prefab, error) {
	p := &Prefab{Name: entry.Name, Disabled: entry.Disabled}
	node := &entry.Components
	if node.Kind == 0 {
		return p, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("components must be a mapping (line %d)", node.Line)
	}
	// Mapping content alternates key, value; file order is attach order.
	for i := 0; i+1 < len(node.Content); i += 2 {
		spec := ComponentSpec{Name: node.Content[i].Value, body: *node.Content[i+1]}
		if _, err := spec.New(); err != nil {
			return nil, err
		}
		p.Components = append(p.Components, spec)
	}
	return p, nil
}

// New decodes a fresh component instance from the spec.
func (s ComponentSpec) New() (ecs.Component, error) {
	c, err := ecs.Components().New(s.Name)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", s.Name, err)
	}
	if s.body.Kind == yaml.ScalarNode && s.body.Tag == "!!null" {
		return c, nil
	}
	if err := s.body.Decode(c); err != nil {
		return nil, fmt.Errorf("component %q (line %d): %w", s.Name, s.body.Line, err)
	}
	return c, nil
}

func (l *Library) Count() int { return len(l.prefabs) }

func (l *Library) Get(name string) (*Prefab, bool) {
	p, ok := l.prefabs[name]
	return p, ok
}

func (l *Library) Scene(name string) (*Scene, bool) {
	s, ok := l.scenes[name]
	return s, ok
}

// Spawn creates an entity from the named prefab. On failure the partially
// built entity is killed and will be retired by the next Refresh.
func (l *Library) Spawn(w *ecs.World, name string) (ecs.Entity, error) {
	p, ok := l.prefabs[name]
	if !ok {
		return ecs.Entity{}, fmt.Errorf("unknown prefab %q", name)
	}
	e := w.CreateEntity()
	if p.Disabled {
		_ = e.Disable()
	}
	for _, spec := range p.Components {
		c, err := spec.New()
		if err == nil {
			err = e.Add(c)
		}
		if err != nil {
			_ = e.Kill()
			return ecs.Entity{}, fmt.Errorf("spawn %q: %w", name, err)
		}
	}
	return e, nil
}

// SpawnScene spawns every entry of the named scene in order.
func (l *Library) SpawnScene(w *ecs.World, name string) ([]ecs.Entity, error) {
	sc, ok := l.scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q", name)
	}
	var out []ecs.Entity
	for _, se := range sc.Spawn {
		n := se.Count
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			e, err := l.Spawn(w, se.Prefab)
			if err != nil {
				return out, fmt.Errorf("scene %q: %w", name, err)
			}
			out = append(out, e)
		}
	}
	return out, nil
}
