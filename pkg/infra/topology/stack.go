package topology

// PropertyRef names a property inside a config type.
type PropertyRef struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

func (r PropertyRef) String() string {
	return r.Type + "/" + r.Name
}

// Stack is the read-only view of stack metadata the resolution core consumes.
type Stack interface {
	ServiceForComponent(component string) (string, error)
	ServiceForConfigType(configType string) (string, error)
	Cardinality(component string) Cardinality
	IsMasterComponent(component string) bool
	// ConfigPropertiesWithDependencies maps each property of the config type that declares
	// dependencies to the properties it depends on.
	ConfigPropertiesWithDependencies(service, configType string) (map[string][]PropertyRef, error)
	IsPasswordProperty(service, configType, name string) bool
	IsKerberosPrincipalProperty(service, configType, name string) bool
}
