// Package topology models the cluster layout a blueprint resolves against:
// host groups, the components placed on them, the hosts assigned to them and
// the stack metadata describing those components.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/configuration"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/util"
)

type HostGroup struct {
	name          string
	components    map[string]bool
	hosts         []string
	configuration *configuration.Configuration
}

// NewHostGroup builds a host group. Hosts keep the order in which they are given.
// A nil configuration is replaced by an empty one when the group joins a topology.
func NewHostGroup(name string, components []string, hosts []string, config *configuration.Configuration) *HostGroup {
	hg := &HostGroup{
		name:          name,
		components:    make(map[string]bool, len(components)),
		configuration: config,
	}
	for _, c := range components {
		hg.components[c] = true
	}
	hg.hosts = util.RemoveDuplicate(hosts)
	return hg
}

func (hg *HostGroup) Name() string {
	return hg.name
}

func (hg *HostGroup) HasComponent(component string) bool {
	return hg.components[component]
}

// Components returns the component names, sorted.
func (hg *HostGroup) Components() []string {
	cs := make([]string, 0, len(hg.components))
	for c := range hg.components {
		cs = append(cs, c)
	}
	sort.Strings(cs)
	return cs
}

// Hosts returns a copy of the assigned hosts in assignment order.
func (hg *HostGroup) Hosts() []string {
	return append([]string(nil), hg.hosts...)
}

// FirstHost is the host picked when a single host of the group is needed.
func (hg *HostGroup) FirstHost() (string, bool) {
	if len(hg.hosts) == 0 {
		return "", false
	}
	return hg.hosts[0], true
}

func (hg *HostGroup) Configuration() *configuration.Configuration {
	return hg.configuration
}

type ClusterTopology struct {
	clusterId     int64
	groups        map[string]*HostGroup
	names         []string
	hostOwner     map[string]string
	stack         Stack
	configuration *configuration.Configuration
}

// New assembles a topology. Host group names must be unique and a host may belong
// to at most one host group.
func New(clusterId int64, config *configuration.Configuration, stack Stack, groups ...*HostGroup) (*ClusterTopology, error) {
	if config == nil {
		config = configuration.New(nil, nil)
	}
	t := &ClusterTopology{
		clusterId:     clusterId,
		groups:        make(map[string]*HostGroup, len(groups)),
		hostOwner:     map[string]string{},
		stack:         stack,
		configuration: config,
	}
	for _, hg := range groups {
		if _, dup := t.groups[hg.name]; dup {
			return nil, fmt.Errorf("duplicate host group %q", hg.name)
		}
		for _, h := range hg.hosts {
			if owner, taken := t.hostOwner[h]; taken {
				return nil, fmt.Errorf("host %q is assigned to host groups %q and %q", h, owner, hg.name)
			}
			t.hostOwner[h] = hg.name
		}
		if hg.configuration == nil {
			hg.configuration = configuration.NewWithParent(nil, nil, config)
		}
		t.groups[hg.name] = hg
		t.names = append(t.names, hg.name)
	}
	sort.Strings(t.names)
	return t, nil
}

func (t *ClusterTopology) ClusterId() int64 {
	return t.clusterId
}

func (t *ClusterTopology) Stack() Stack {
	return t.stack
}

func (t *ClusterTopology) Configuration() *configuration.Configuration {
	return t.configuration
}

func (t *ClusterTopology) HostGroup(name string) (*HostGroup, bool) {
	hg, ok := t.groups[name]
	return hg, ok
}

// HostGroups returns the host groups sorted by name.
func (t *ClusterTopology) HostGroups() []*HostGroup {
	out := make([]*HostGroup, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, t.groups[n])
	}
	return out
}

// HostGroupsForComponent returns the sorted names of the host groups hosting component.
func (t *ClusterTopology) HostGroupsForComponent(component string) []string {
	var out []string
	for _, n := range t.names {
		if t.groups[n].components[component] {
			out = append(out, n)
		}
	}
	return out
}

// HostsForComponent returns the hosts running component: host groups in name order,
// hosts in assignment order.
func (t *ClusterTopology) HostsForComponent(component string) []string {
	var out []string
	for _, n := range t.HostGroupsForComponent(component) {
		out = append(out, t.groups[n].hosts...)
	}
	return out
}

// HostGroupForHost returns the name of the host group owning host.
func (t *ClusterTopology) HostGroupForHost(host string) (string, bool) {
	g, ok := t.hostOwner[host]
	return g, ok
}

// Hosts returns every assigned host, longest first, so that a host name that is a
// prefix of another is tried after it.
func (t *ClusterTopology) Hosts() []string {
	hosts := make([]string, 0, len(t.hostOwner))
	for h := range t.hostOwner {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		if len(hosts[i]) != len(hosts[j]) {
			return len(hosts[i]) > len(hosts[j])
		}
		return hosts[i] < hosts[j]
	})
	return hosts
}

// Services returns the sorted names of the services owning at least one placed component.
// Components unknown to the stack are ignored.
func (t *ClusterTopology) Services() []string {
	seen := map[string]bool{}
	for _, hg := range t.groups {
		for c := range hg.components {
			if t.stack == nil {
				continue
			}
			if s, err := t.stack.ServiceForComponent(c); err == nil {
				seen[s] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (t *ClusterTopology) HasService(service string) bool {
	for _, s := range t.Services() {
		if s == service {
			return true
		}
	}
	return false
}

// Cardinality of component according to the stack. Without a stack every count is valid.
func (t *ClusterTopology) Cardinality(component string) Cardinality {
	if t.stack == nil {
		return Cardinality{}
	}
	return t.stack.Cardinality(component)
}

// IsNameNodeHAEnabled reports whether hdfs-site declares a nameservice.
func IsNameNodeHAEnabled(props map[string]map[string]string) bool {
	hdfs, ok := props[global.CONFIG_HDFS_SITE]
	if !ok {
		return false
	}
	_, ns := hdfs["dfs.nameservices"]
	_, ins := hdfs["dfs.internal.nameservices"]
	return ns || ins
}

func IsResourceManagerHAEnabled(props map[string]map[string]string) bool {
	return props[global.CONFIG_YARN_SITE]["yarn.resourcemanager.ha.enabled"] == "true"
}

func IsOozieServerHAEnabled(props map[string]map[string]string) bool {
	return strings.Contains(props[global.CONFIG_OOZIE_SITE]["oozie.services.ext"], "org.apache.oozie.service.ZKLocksService")
}

// NameServices lists the declared nameservices, preferring dfs.internal.nameservices.
func NameServices(props map[string]map[string]string) []string {
	hdfs := props[global.CONFIG_HDFS_SITE]
	if v, ok := hdfs["dfs.internal.nameservices"]; ok {
		return util.SplitAndTrim(v, ",")
	}
	return util.SplitAndTrim(hdfs["dfs.nameservices"], ",")
}

func NameNodes(props map[string]map[string]string, nameService string) []string {
	return util.SplitAndTrim(props[global.CONFIG_HDFS_SITE]["dfs.ha.namenodes."+nameService], ",")
}

func ResourceManagerIds(props map[string]map[string]string) []string {
	return util.SplitAndTrim(props[global.CONFIG_YARN_SITE]["yarn.resourcemanager.ha.rm-ids"], ",")
}
