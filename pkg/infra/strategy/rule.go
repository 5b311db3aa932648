// Package strategy holds the per-property resolution rules that rewrite host
// bearing configuration values between concrete host names and host group
// placeholders.
//
// Rules are data: a Rule names the property it applies to (exactly or by
// pattern), a Kind selecting the rewrite and the parameters the rewrite
// needs. Create, Export and RequiredHostGroups dispatch on the Kind.
package strategy

import (
	"regexp"

	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/util"
)

type Kind int

const (
	// KindHostGroup only substitutes host group placeholders.
	KindHostGroup Kind = iota
	KindSingleHost
	// KindOptionalSingleHost is KindSingleHost for components that may be absent.
	// Placement errors leave the value unchanged.
	KindOptionalSingleHost
	KindMultiHost
	// KindDBHost resolves the host segment of a database URL when the database is
	// managed by the cluster.
	KindDBHost
	// KindTempletonHive resolves hive.metastore.uris inside a key=value list.
	KindTempletonHive
	// KindUnit appends "m" to a purely numeric memory size.
	KindUnit
	// KindBindAll forces the host of an address to 0.0.0.0.
	KindBindAll
	// KindExternal marks values that point outside the cluster. They are kept on
	// create and dropped on export.
	KindExternal
	KindAtlasHook
	KindAtlasClusterName
	KindAtlasRestAddress
	KindMetricsReporter
)

var kindNames = map[Kind]string{
	KindHostGroup:          "HostGroup",
	KindSingleHost:         "SingleHost",
	KindOptionalSingleHost: "OptionalSingleHost",
	KindMultiHost:          "MultiHost",
	KindDBHost:             "DBHost",
	KindTempletonHive:      "TempletonHive",
	KindUnit:               "Unit",
	KindBindAll:            "BindAll",
	KindExternal:           "External",
	KindAtlasHook:          "AtlasHook",
	KindAtlasClusterName:   "AtlasClusterName",
	KindAtlasRestAddress:   "AtlasRestAddress",
	KindMetricsReporter:    "MetricsReporter",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// FlowStyle is the YAML flow sequence style of a list value.
type FlowStyle int

const (
	FlowNone FlowStyle = iota
	FlowSingleQuoted
	FlowPlain
)

// Gate restricts a rule to clusters in a given state.
type Gate int

const (
	GateNone Gate = iota
	// GateNameNodeHA: NameNode HA is enabled, the captured nameservice is declared
	// and the captured NameNode id is listed for it.
	GateNameNodeHA
	// GateResourceManagerHA: ResourceManager HA is enabled and the captured id is
	// listed in yarn.resourcemanager.ha.rm-ids.
	GateResourceManagerHA
	GateOozieHA
	// GateOozieManagedDB: the Oozie JDBC URL points at a cluster host.
	GateOozieManagedDB
	GateOozieExternalDB
)

type Rule struct {
	ConfigType string
	// Name is the exact property name. Ignored when Pattern is set.
	Name string
	// Pattern matches dynamic property names. Capture groups feed the Gate.
	Pattern *regexp.Regexp
	Kind    Kind
	// Component owning the hosts the value refers to.
	Component string
	// Separator between hosts of a multi host value, "," when empty.
	Separator  string
	PrefixEach bool
	SuffixEach bool
	PortEach   bool
	Flow       FlowStyle
	// Condition of a DB host rule: the database is managed when the referenced
	// property starts with "New".
	Condition topology.PropertyRef
	Gate      Gate
	// Value is the class appended by a metrics reporter rule.
	Value string
	// Append makes a metrics reporter rule add Value to a non-empty list.
	Append bool
}

func (r *Rule) separator() string {
	if r.Separator == "" {
		return ","
	}
	return r.Separator
}

// Registry maps property names to rules.
type Registry struct {
	exact   map[string]map[string][]*Rule
	dynamic []*Rule
}

func NewRegistry(rules ...*Rule) *Registry {
	r := &Registry{exact: map[string]map[string][]*Rule{}}
	for _, rule := range rules {
		r.Add(rule)
	}
	return r
}

// Add registers a rule. Several rules may share a name when their gates differ;
// the first open one wins.
func (r *Registry) Add(rule *Rule) {
	if rule.Pattern != nil {
		r.dynamic = append(r.dynamic, rule)
		return
	}
	byName, ok := r.exact[rule.ConfigType]
	if !ok {
		byName = map[string][]*Rule{}
		r.exact[rule.ConfigType] = byName
	}
	byName[rule.Name] = append(byName[rule.Name], rule)
}

// Lookup returns the rule applying to the property, or nil when the value is not
// host bearing.
func (r *Registry) Lookup(configType, name string, ctx *Context) *Rule {
	for _, rule := range r.exact[configType][name] {
		if gateOpen(rule, nil, ctx) {
			return rule
		}
	}
	for _, rule := range r.dynamic {
		if rule.ConfigType != configType {
			continue
		}
		match := rule.Pattern.FindStringSubmatch(name)
		if match != nil && gateOpen(rule, match, ctx) {
			return rule
		}
	}
	return nil
}

func gateOpen(rule *Rule, match []string, ctx *Context) bool {
	cluster := ctx.cluster()
	switch rule.Gate {
	case GateNameNodeHA:
		if !topology.IsNameNodeHAEnabled(cluster) || len(match) < 4 {
			return false
		}
		ns, nn := match[2], match[3]
		return util.ContainsString(topology.NameServices(cluster), ns) && util.ContainsString(topology.NameNodes(cluster, ns), nn)
	case GateResourceManagerHA:
		if !topology.IsResourceManagerHAEnabled(cluster) || len(match) < 3 {
			return false
		}
		return util.ContainsString(topology.ResourceManagerIds(cluster), match[len(match)-1])
	case GateOozieHA:
		return topology.IsOozieServerHAEnabled(cluster)
	case GateOozieManagedDB:
		return oozieDatabaseManaged(ctx)
	case GateOozieExternalDB:
		return !oozieDatabaseManaged(ctx)
	default:
		return true
	}
}

func oozieDatabaseManaged(ctx *Context) bool {
	url := ctx.cluster()["oozie-site"]["oozie.service.JPAService.jdbc.url"]
	if url == "" {
		return false
	}
	if hostGroupRegex.MatchString(url) {
		return true
	}
	_, matched := replaceHosts(url, ctx.Topology)
	return matched
}
