package module

// StackDefinition is the document describing services, their components and the
// metadata of their configuration properties.
type StackDefinition struct {
	Name     string              `json:"name" yaml:"name"`
	Version  string              `json:"version" yaml:"version"`
	Services []ServiceDefinition `json:"services" yaml:"services"`
}

type ServiceDefinition struct {
	Name        string                `json:"name" yaml:"name"`
	Components  []ComponentDefinition `json:"components" yaml:"components"`
	ConfigTypes []string              `json:"configTypes" yaml:"configTypes"`
	Properties  []PropertyDefinition  `json:"properties,omitempty" yaml:"properties,omitempty"`
}

type ComponentDefinition struct {
	Name        string `json:"name" yaml:"name"`
	Cardinality string `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
	// MASTER, SLAVE or CLIENT
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

type PropertyDefinition struct {
	Type          string               `json:"type" yaml:"type"`
	Name          string               `json:"name" yaml:"name"`
	PropertyTypes []string             `json:"propertyTypes,omitempty" yaml:"propertyTypes,omitempty"`
	DependsOn     []PropertyDependency `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

type PropertyDependency struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

const (
	CATEGORY_MASTER = "MASTER"
	CATEGORY_SLAVE  = "SLAVE"
	CATEGORY_CLIENT = "CLIENT"

	PROPERTY_TYPE_PASSWORD           = "PASSWORD"
	PROPERTY_TYPE_KERBEROS_PRINCIPAL = "KERBEROS_PRINCIPAL"
)
