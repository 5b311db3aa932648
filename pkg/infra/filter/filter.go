// Package filter decides which configuration properties survive into an exported
// blueprint and which are dropped before a cluster is created.
package filter

import (
	"regexp"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/util"
	"github.com/gzlj/hadoop-blueprint/pkg/logger"
)

// Context carries what filters evaluate against.
type Context struct {
	Topology *topology.ClusterTopology
	// Cluster is the merged cluster configuration dependency conditions are read from.
	Cluster map[string]map[string]string
}

// NewContext evaluates conditions against the topology's cluster configuration.
func NewContext(topo *topology.ClusterTopology) *Context {
	return &Context{Topology: topo, Cluster: topo.Configuration().FullProperties()}
}

type Filter interface {
	// Include reports whether the property is kept.
	Include(configType, name, value string, ctx *Context) bool
}

// Func adapts a plain function to Filter.
type Func func(configType, name, value string, ctx *Context) bool

func (f Func) Include(configType, name, value string, ctx *Context) bool {
	return f(configType, name, value, ctx)
}

// Chain keeps a property only when every filter keeps it.
type Chain []Filter

func (c Chain) Include(configType, name, value string, ctx *Context) bool {
	for _, f := range c {
		if !f.Include(configType, name, value, ctx) {
			return false
		}
	}
	return true
}

// Apply removes the excluded properties from props in place and returns them sorted.
func (c Chain) Apply(props map[string]map[string]string, ctx *Context) []topology.PropertyRef {
	var removed []topology.PropertyRef
	for _, configType := range util.SortedKeys(props) {
		values := props[configType]
		for _, name := range util.SortedKeys(values) {
			if !c.Include(configType, name, values[name], ctx) {
				delete(values, name)
				removed = append(removed, topology.PropertyRef{Type: configType, Name: name})
			}
		}
	}
	return removed
}

var passwordRegex = regexp.MustCompile(`^\S+(PASSWORD|SECRET)$`)

// Password drops properties whose name ends in PASSWORD or SECRET. The match is case sensitive.
func Password() Filter {
	return Func(func(_, name, _ string, _ *Context) bool {
		return !passwordRegex.MatchString(name)
	})
}

// Name drops one property.
type Name struct {
	ConfigType string
	Name       string
}

func (n Name) Include(configType, name, _ string, _ *Context) bool {
	return configType != n.ConfigType || name != n.Name
}

// StackPropertyType drops properties the stack declares as passwords or Kerberos principals.
// Config types unknown to the stack are kept.
func StackPropertyType() Filter {
	return Func(func(configType, name, _ string, ctx *Context) bool {
		st := ctx.Topology.Stack()
		if st == nil {
			return true
		}
		service, err := st.ServiceForConfigType(configType)
		if err != nil {
			return true
		}
		return !st.IsPasswordProperty(service, configType, name) && !st.IsKerberosPrincipalProperty(service, configType, name)
	})
}

// AuthToLocal drops the listed "type/name" properties, computed by Kerberos on the target cluster.
func AuthToLocal(properties ...string) Filter {
	set := make(map[string]bool, len(properties))
	for _, p := range properties {
		set[p] = true
	}
	return Func(func(configType, name, _ string, _ *Context) bool {
		return !set[configType+"/"+name]
	})
}

// Dependency drops a property that the stack declares dependent on DependsOn when
// Condition does not hold for the current value of DependsOn. Any failure reading
// stack metadata keeps the property.
type Dependency struct {
	DependsOn topology.PropertyRef
	Condition func(value string, present bool) bool
}

func (d Dependency) Include(configType, name, _ string, ctx *Context) bool {
	st := ctx.Topology.Stack()
	if st == nil {
		return true
	}
	log := logger.For(logger.ComponentFilter)
	service, err := st.ServiceForConfigType(configType)
	if err != nil {
		log.Debugw("No service owns config type, keeping property", "configType", configType, "property", name)
		return true
	}
	deps, err := st.ConfigPropertiesWithDependencies(service, configType)
	if err != nil {
		log.Warnw("Failed to read property dependencies, keeping property",
			"service", service, "configType", configType, "property", name, "error", err)
		return true
	}
	for _, ref := range deps[name] {
		if ref == d.DependsOn {
			v, ok := ctx.Cluster[ref.Type][ref.Name]
			return d.Condition(v, ok)
		}
	}
	return true
}

// DependencyEquals keeps dependents of ref only while ref equals value.
func DependencyEquals(ref topology.PropertyRef, value string) Dependency {
	return Dependency{DependsOn: ref, Condition: func(v string, ok bool) bool { return ok && v == value }}
}

// DependencyNotEquals keeps dependents of ref unless ref equals value.
func DependencyNotEquals(ref topology.PropertyRef, value string) Dependency {
	return Dependency{DependsOn: ref, Condition: func(v string, ok bool) bool { return !ok || v != value }}
}

// Conditional drops a property holding one specific value.
type Conditional struct {
	ConfigType string
	Name       string
	Value      string
}

func (c Conditional) Include(configType, name, value string, _ *Context) bool {
	return configType != c.ConfigType || name != c.Name || value != c.Value
}

// Except keeps the listed properties regardless of f.
func Except(f Filter, keep ...topology.PropertyRef) Filter {
	return Func(func(configType, name, value string, ctx *Context) bool {
		for _, ref := range keep {
			if ref.Type == configType && ref.Name == name {
				return true
			}
		}
		return f.Include(configType, name, value, ctx)
	})
}

var (
	nameNodeSingleNames = map[string]bool{
		"dfs.namenode.http-address":  true,
		"dfs.namenode.https-address": true,
		"dfs.namenode.rpc-address":   true,
	}
	resourceManagerSingleNames = map[string]bool{
		"yarn.resourcemanager.hostname":                 true,
		"yarn.resourcemanager.address":                  true,
		"yarn.resourcemanager.admin.address":            true,
		"yarn.resourcemanager.resource-tracker.address": true,
		"yarn.resourcemanager.scheduler.address":        true,
		"yarn.resourcemanager.webapp.address":           true,
		"yarn.resourcemanager.webapp.https.address":     true,
	}
)

// NameNodeHA drops the single NameNode addresses once a nameservice is declared.
func NameNodeHA() Filter {
	return Func(func(configType, name, _ string, ctx *Context) bool {
		if configType != global.CONFIG_HDFS_SITE || !nameNodeSingleNames[name] {
			return true
		}
		return !topology.IsNameNodeHAEnabled(ctx.Cluster)
	})
}

// ResourceManagerHA drops the single ResourceManager addresses when RM HA is enabled.
func ResourceManagerHA() Filter {
	return Func(func(configType, name, _ string, ctx *Context) bool {
		if configType != global.CONFIG_YARN_SITE || !resourceManagerSingleNames[name] {
			return true
		}
		return !topology.IsResourceManagerHAEnabled(ctx.Cluster)
	})
}

// HawqStandby drops the HAWQ standby address when no host group runs HAWQSTANDBY.
func HawqStandby() Filter {
	return Func(func(configType, name, _ string, ctx *Context) bool {
		if configType != global.CONFIG_HAWQ_SITE || name != "hawq_standby_address_host" {
			return true
		}
		return len(ctx.Topology.HostGroupsForComponent(global.COMPONENT_HAWQSTANDBY)) > 0
	})
}
