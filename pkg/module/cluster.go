package module

// Properties maps config type -> property name -> value.
type Properties map[string]map[string]string

// Attributes maps config type -> attribute name -> property name -> value.
type Attributes map[string]map[string]map[string]string

// ClusterRequest describes a cluster to resolve or export: its configuration, the
// blueprint defaults beneath it and the host groups with their placement.
type ClusterRequest struct {
	ClusterId               int64              `json:"clusterId" yaml:"clusterId"`
	Configurations          Properties         `json:"configurations" yaml:"configurations"`
	Attributes              Attributes         `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	BlueprintConfigurations Properties         `json:"blueprintConfigurations,omitempty" yaml:"blueprintConfigurations,omitempty"`
	HostGroups              []HostGroupRequest `json:"hostGroups" yaml:"hostGroups"`
	// AuthToLocal lists "type/name" properties dropped on export.
	AuthToLocal []string `json:"authToLocal,omitempty" yaml:"authToLocal,omitempty"`
}

type HostGroupRequest struct {
	Name                    string     `json:"name" yaml:"name"`
	Components              []string   `json:"components" yaml:"components"`
	Hosts                   []string   `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Configurations          Properties `json:"configurations,omitempty" yaml:"configurations,omitempty"`
	BlueprintConfigurations Properties `json:"blueprintConfigurations,omitempty" yaml:"blueprintConfigurations,omitempty"`
}

type HostGroupConfiguration struct {
	Name           string     `json:"name" yaml:"name"`
	Configurations Properties `json:"configurations" yaml:"configurations"`
}

// ClusterResult is the resolved (or exported) configuration of a cluster.
type ClusterResult struct {
	Configurations     Properties               `json:"configurations" yaml:"configurations"`
	Attributes         Attributes               `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	HostGroups         []HostGroupConfiguration `json:"hostGroups,omitempty" yaml:"hostGroups,omitempty"`
	UpdatedConfigTypes []string                 `json:"updatedConfigTypes,omitempty" yaml:"updatedConfigTypes,omitempty"`
}

type RequiredHostGroupsResult struct {
	HostGroups []string `json:"hostGroups" yaml:"hostGroups"`
}
