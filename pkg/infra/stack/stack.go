// Package stack loads stack definitions and answers the metadata queries the
// resolution core needs: component ownership, cardinality, property types and
// property dependencies.
package stack

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/logger"
	"github.com/gzlj/hadoop-blueprint/pkg/module"
)

//go:embed default_stack.yaml
var defaultStack []byte

type Stack struct {
	name              string
	version           string
	componentService  map[string]string
	cardinality       map[string]topology.Cardinality
	masters           map[string]bool
	configTypeService map[string]string
	// service -> config type -> property -> dependencies
	dependencies map[string]map[string]map[string][]topology.PropertyRef
	// config type -> property -> property types
	propertyTypes map[string]map[string]map[string]bool
}

var _ topology.Stack = (*Stack)(nil)

// New indexes a stack definition. Component and config type names must be unique
// across services.
func New(def *module.StackDefinition) (*Stack, error) {
	s := &Stack{
		name:              def.Name,
		version:           def.Version,
		componentService:  map[string]string{},
		cardinality:       map[string]topology.Cardinality{},
		masters:           map[string]bool{},
		configTypeService: map[string]string{},
		dependencies:      map[string]map[string]map[string][]topology.PropertyRef{},
		propertyTypes:     map[string]map[string]map[string]bool{},
	}
	for _, svc := range def.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("stack %s: service without name", def.Name)
		}
		for _, c := range svc.Components {
			if owner, dup := s.componentService[c.Name]; dup {
				return nil, fmt.Errorf("stack %s: component %s declared by %s and %s", def.Name, c.Name, owner, svc.Name)
			}
			card, err := topology.ParseCardinality(c.Cardinality)
			if err != nil {
				return nil, fmt.Errorf("stack %s: component %s: %w", def.Name, c.Name, err)
			}
			s.componentService[c.Name] = svc.Name
			s.cardinality[c.Name] = card
			s.masters[c.Name] = c.Category == module.CATEGORY_MASTER
		}
		for _, t := range svc.ConfigTypes {
			if owner, dup := s.configTypeService[t]; dup {
				return nil, fmt.Errorf("stack %s: config type %s declared by %s and %s", def.Name, t, owner, svc.Name)
			}
			s.configTypeService[t] = svc.Name
		}
		for _, p := range svc.Properties {
			if s.configTypeService[p.Type] != svc.Name {
				return nil, fmt.Errorf("stack %s: property %s/%s does not belong to a config type of %s", def.Name, p.Type, p.Name, svc.Name)
			}
			for _, pt := range p.PropertyTypes {
				byName, ok := s.propertyTypes[p.Type]
				if !ok {
					byName = map[string]map[string]bool{}
					s.propertyTypes[p.Type] = byName
				}
				if byName[p.Name] == nil {
					byName[p.Name] = map[string]bool{}
				}
				byName[p.Name][pt] = true
			}
			if len(p.DependsOn) == 0 {
				continue
			}
			byType, ok := s.dependencies[svc.Name]
			if !ok {
				byType = map[string]map[string][]topology.PropertyRef{}
				s.dependencies[svc.Name] = byType
			}
			if byType[p.Type] == nil {
				byType[p.Type] = map[string][]topology.PropertyRef{}
			}
			for _, d := range p.DependsOn {
				byType[p.Type][p.Name] = append(byType[p.Type][p.Name], topology.PropertyRef{Type: d.Type, Name: d.Name})
			}
		}
	}
	return s, nil
}

// Load parses a YAML (or JSON) stack definition.
func Load(data []byte) (*Stack, error) {
	def := &module.StackDefinition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("parse stack definition: %w", err)
	}
	return New(def)
}

func LoadFile(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack definition: %w", err)
	}
	s, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.For(logger.ComponentStack).Infow("Loaded stack definition", "path", path, "stack", s.name, "version", s.version)
	return s, nil
}

// Default returns the built-in stack definition.
func Default() (*Stack, error) {
	return Load(defaultStack)
}

// FromConfig loads path, or the built-in definition when path is empty.
func FromConfig(path string) (*Stack, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

func (s *Stack) Name() string {
	return s.name
}

func (s *Stack) Version() string {
	return s.version
}

func (s *Stack) ServiceForComponent(component string) (string, error) {
	svc, ok := s.componentService[component]
	if !ok {
		return "", fmt.Errorf("component %s is not part of stack %s-%s", component, s.name, s.version)
	}
	return svc, nil
}

func (s *Stack) ServiceForConfigType(configType string) (string, error) {
	svc, ok := s.configTypeService[configType]
	if !ok {
		return "", fmt.Errorf("config type %s is not part of stack %s-%s", configType, s.name, s.version)
	}
	return svc, nil
}

// Cardinality of component. Unknown components are unconstrained.
func (s *Stack) Cardinality(component string) topology.Cardinality {
	return s.cardinality[component]
}

func (s *Stack) IsMasterComponent(component string) bool {
	return s.masters[component]
}

func (s *Stack) ConfigPropertiesWithDependencies(service, configType string) (map[string][]topology.PropertyRef, error) {
	owner, ok := s.configTypeService[configType]
	if !ok || owner != service {
		return nil, fmt.Errorf("config type %s does not belong to service %s", configType, service)
	}
	out := map[string][]topology.PropertyRef{}
	for name, deps := range s.dependencies[service][configType] {
		out[name] = append([]topology.PropertyRef(nil), deps...)
	}
	return out, nil
}

func (s *Stack) IsPasswordProperty(service, configType, name string) bool {
	return s.hasPropertyType(service, configType, name, module.PROPERTY_TYPE_PASSWORD)
}

func (s *Stack) IsKerberosPrincipalProperty(service, configType, name string) bool {
	return s.hasPropertyType(service, configType, name, module.PROPERTY_TYPE_KERBEROS_PRINCIPAL)
}

func (s *Stack) hasPropertyType(service, configType, name, propertyType string) bool {
	if s.configTypeService[configType] != service {
		return false
	}
	return s.propertyTypes[configType][name][propertyType]
}
