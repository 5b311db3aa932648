// Package processor drives blueprint configuration resolution: it walks every
// property of a topology's configurations, applies the matching strategy rule in
// the requested direction and runs the filter chains around it.
package processor

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/configuration"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/filter"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/strategy"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/util"
	"github.com/gzlj/hadoop-blueprint/pkg/logger"
)

const (
	haInitialActive  = "dfs_ha_initial_namenode_active"
	haInitialStandby = "dfs_ha_initial_namenode_standby"
)

type Processor struct {
	topology    *topology.ClusterTopology
	registry    *strategy.Registry
	authToLocal []string
	log         *zap.SugaredLogger
}

type Option func(*Processor)

// WithRegistry replaces the default rule table.
func WithRegistry(r *strategy.Registry) Option {
	return func(p *Processor) {
		p.registry = r
	}
}

// WithAuthToLocal lists "type/name" properties to drop on export in addition to the
// built-in export filters.
func WithAuthToLocal(properties ...string) Option {
	return func(p *Processor) {
		p.authToLocal = append(p.authToLocal, properties...)
	}
}

func New(topo *topology.ClusterTopology, opts ...Option) *Processor {
	p := &Processor{
		topology: topo,
		registry: strategy.DefaultRegistry(),
		log:      logger.For(logger.ComponentProcessor),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// scope is one configuration the processor rewrites together with the number of
// its layers it owns. Layers below belong to the cluster configuration.
type scope struct {
	name   string
	config *configuration.Configuration
	depth  int
}

func (p *Processor) scopes() []scope {
	cluster := p.topology.Configuration()
	out := []scope{{name: "cluster", config: cluster, depth: cluster.Depth()}}
	for _, hg := range p.topology.HostGroups() {
		depth := hg.Configuration().Depth() - cluster.Depth()
		if depth < 1 {
			depth = 1
		}
		out = append(out, scope{name: "hostgroup " + hg.Name(), config: hg.Configuration(), depth: depth})
	}
	return out
}

func (s scope) properties() map[string]map[string]string {
	return s.config.FullPropertiesDepth(s.depth)
}

// RequiredHostGroups returns the sorted names of the host groups referenced by the
// properties that need topology information at create time. Names of placeholders
// that match no host group are included.
func (p *Processor) RequiredHostGroups() []string {
	seen := map[string]bool{}
	cluster := p.topology.Configuration().FullProperties()
	for _, s := range p.scopes() {
		props := s.properties()
		ctx := &strategy.Context{Topology: p.topology, Properties: props, Cluster: cluster}
		_ = p.walk(props, ctx, func(rule *strategy.Rule, configType, name, value string) error {
			for _, g := range strategy.RequiredHostGroups(rule, name, value, ctx) {
				seen[g] = true
			}
			return nil
		})
	}
	return util.SortedKeys(seen)
}

// walk visits every property with a rule, in config type then name order.
func (p *Processor) walk(props map[string]map[string]string, ctx *strategy.Context,
	fn func(rule *strategy.Rule, configType, name, value string) error) error {
	for _, configType := range util.SortedKeys(props) {
		values := props[configType]
		for _, name := range util.SortedKeys(values) {
			rule := p.registry.Lookup(configType, name, ctx)
			if rule == nil {
				continue
			}
			if err := fn(rule, configType, name, values[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateHostGroups fails when a property names a host group the topology lacks.
func (p *Processor) validateHostGroups() error {
	cluster := p.topology.Configuration().FullProperties()
	for _, s := range p.scopes() {
		props := s.properties()
		ctx := &strategy.Context{Topology: p.topology, Properties: props, Cluster: cluster}
		err := p.walk(props, ctx, func(rule *strategy.Rule, configType, name, value string) error {
			for _, g := range strategy.RequiredHostGroups(rule, name, value, ctx) {
				if _, ok := p.topology.HostGroup(g); !ok {
					return &strategy.PlacementError{ConfigType: configType, Property: name, HostGroup: g, Err: strategy.ErrUnknownHostGroup}
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// DoUpdateForClusterCreate resolves every host bearing property of the cluster and
// host group configurations into concrete hosts. On error no configuration is
// modified. It returns the sorted config types whose values changed.
func (p *Processor) DoUpdateForClusterCreate() (updated []string, err error) {
	if err = p.validateHostGroups(); err != nil {
		return nil, err
	}

	scopes := p.scopes()
	before := make([]map[string]map[string]string, len(scopes))
	snapshots := make([]*configuration.Layer, len(scopes))
	for i, s := range scopes {
		before[i] = s.properties()
		if snapshots[i], err = s.config.Snapshot(); err != nil {
			return nil, err
		}
	}
	defer func() {
		if err != nil {
			for i, s := range scopes {
				s.config.Restore(snapshots[i])
			}
			p.log.Infow("Cluster create resolution failed, configuration restored", "error", err)
		}
	}()

	p.filterBeforeUpdate()

	cluster := p.topology.Configuration()
	for _, s := range scopes {
		if err = p.resolveScope(s, cluster); err != nil {
			return nil, err
		}
	}

	if err = p.nameNodeHAUpdate(cluster); err != nil {
		return nil, err
	}
	setRetryConfiguration(cluster)
	p.setupHDFSProxyUsers(cluster)
	for _, s := range scopes {
		p.trimProperties(s)
	}

	changed := map[string]bool{}
	for i, s := range scopes {
		after := s.properties()
		for _, t := range util.SortedKeys(after) {
			if !reflect.DeepEqual(before[i][t], after[t]) {
				changed[t] = true
			}
		}
		for t := range before[i] {
			if _, ok := after[t]; !ok {
				changed[t] = true
			}
		}
	}
	updated = util.SortedKeys(changed)
	p.log.Infow("Resolved configuration for cluster create", "clusterId", p.topology.ClusterId(), "updatedConfigTypes", updated)
	return updated, nil
}

func (p *Processor) filterBeforeUpdate() {
	cluster := p.topology.Configuration()
	props := cluster.FullProperties()
	removed := filter.ClusterUpdate().Apply(props, filter.NewContext(p.topology))
	for _, ref := range removed {
		cluster.Remove(ref.Type, ref.Name)
		p.log.Debugw("Removed property before cluster update", "configType", ref.Type, "property", ref.Name)
	}
}

func (p *Processor) resolveScope(s scope, cluster *configuration.Configuration) error {
	props := s.properties()
	ctx := &strategy.Context{Topology: p.topology, Properties: props, Cluster: cluster.FullProperties()}
	return p.walk(props, ctx, func(rule *strategy.Rule, configType, name, value string) error {
		out, err := strategy.Resolve(strategy.Create, rule, name, value, ctx)
		if err != nil {
			return err
		}
		switch {
		case out.Removed:
			s.config.Remove(configType, name)
			delete(props[configType], name)
		case out.Value != value:
			s.config.Set(configType, name, out.Value)
			props[configType][name] = out.Value
			p.log.Debugw("Resolved property", "scope", s.name, "configType", configType,
				"property", name, "rule", rule.Kind.String(), "from", value, "to", out.Value)
		}
		return nil
	})
}

// nameNodeHAUpdate fills the bookkeeping properties of NameNode HA that the user did
// not provide.
func (p *Processor) nameNodeHAUpdate(cluster *configuration.Configuration) error {
	props := cluster.FullProperties()
	if !topology.IsNameNodeHAEnabled(props) {
		return nil
	}
	if _, ok := cluster.Get(global.CONFIG_HDFS_SITE, "dfs.internal.nameservices"); !ok {
		if ns, ok := cluster.Get(global.CONFIG_HDFS_SITE, "dfs.nameservices"); ok {
			cluster.Set(global.CONFIG_HDFS_SITE, "dfs.internal.nameservices", ns)
		}
	}

	active, hasActive := cluster.Get(global.CONFIG_HADOOP_ENV, haInitialActive)
	standby, hasStandby := cluster.Get(global.CONFIG_HADOOP_ENV, haInitialStandby)
	if hasActive && hasStandby {
		return nil
	}
	hosts := p.topology.HostsForComponent(global.COMPONENT_NAMENODE)
	if len(hosts) < 2 {
		return &strategy.PlacementError{ConfigType: global.CONFIG_HADOOP_ENV, Property: haInitialActive,
			Component: global.COMPONENT_NAMENODE, Count: len(hosts),
			Err: fmt.Errorf("%w: NameNode HA needs at least two NAMENODE hosts", strategy.ErrInvalidHostCount)}
	}
	if !hasActive {
		active = hosts[0]
		if hasStandby && active == standby {
			active = hosts[1]
		}
		cluster.Set(global.CONFIG_HADOOP_ENV, haInitialActive, active)
	}
	if !hasStandby {
		var rest []string
		for _, h := range hosts {
			if h != active {
				rest = append(rest, h)
			}
		}
		cluster.Set(global.CONFIG_HADOOP_ENV, haInitialStandby, strings.Join(rest, ","))
	}
	p.log.Debugw("Assigned initial NameNode roles",
		"active", cluster.Value(global.CONFIG_HADOOP_ENV, haInitialActive),
		"standby", cluster.Value(global.CONFIG_HADOOP_ENV, haInitialStandby))
	return nil
}

var retryDefaults = map[string]string{
	"command_retry_enabled":         "true",
	"commands_to_retry":             "INSTALL,START",
	"command_retry_max_time_in_sec": "600",
}

func setRetryConfiguration(cluster *configuration.Configuration) {
	for _, name := range util.SortedKeys(retryDefaults) {
		if _, ok := cluster.Get(global.CONFIG_CLUSTER_ENV, name); !ok {
			cluster.Set(global.CONFIG_CLUSTER_ENV, name, retryDefaults[name])
		}
	}
}

// proxyUsers maps a service to the property naming the user it runs as.
var proxyUsers = []struct {
	service string
	user    topology.PropertyRef
}{
	{global.SERVICE_OOZIE, topology.PropertyRef{Type: global.CONFIG_OOZIE_ENV, Name: "oozie_user"}},
	{global.SERVICE_HIVE, topology.PropertyRef{Type: global.CONFIG_HIVE_ENV, Name: "hive_user"}},
	{global.SERVICE_HIVE, topology.PropertyRef{Type: global.CONFIG_HIVE_ENV, Name: "webhcat_user"}},
	{global.SERVICE_HBASE, topology.PropertyRef{Type: "hbase-env", Name: "hbase_user"}},
	{global.SERVICE_FALCON, topology.PropertyRef{Type: "falcon-env", Name: "falcon_user"}},
}

func (p *Processor) setupHDFSProxyUsers(cluster *configuration.Configuration) {
	if !p.topology.HasService(global.SERVICE_HDFS) {
		return
	}
	for _, pu := range proxyUsers {
		if !p.topology.HasService(pu.service) {
			continue
		}
		user := cluster.Value(pu.user.Type, pu.user.Name)
		if user == "" {
			continue
		}
		for _, suffix := range []string{"hosts", "groups"} {
			name := fmt.Sprintf("hadoop.proxyuser.%s.%s", user, suffix)
			if _, ok := cluster.Get(global.CONFIG_CORE_SITE, name); !ok {
				cluster.Set(global.CONFIG_CORE_SITE, name, "*")
			}
		}
	}
}

// trimProperties strips surrounding whitespace. Passwords and values made only of
// whitespace are kept as they are.
func (p *Processor) trimProperties(s scope) {
	st := p.topology.Stack()
	props := s.properties()
	for _, configType := range util.SortedKeys(props) {
		for name, value := range props[configType] {
			trimmed := strings.TrimSpace(value)
			if trimmed == value || trimmed == "" {
				continue
			}
			if st != nil {
				if service, err := st.ServiceForConfigType(configType); err == nil && st.IsPasswordProperty(service, configType, name) {
					continue
				}
			}
			s.config.Set(configType, name, trimmed)
		}
	}
}

// DoUpdateForBlueprintExport replaces concrete hosts with host group placeholders in
// the cluster configuration and in the layers each host group owns, then drops the
// properties that must not leave the cluster.
func (p *Processor) DoUpdateForBlueprintExport() {
	cluster := p.topology.Configuration().FullProperties()
	for _, s := range p.scopes() {
		before := s.properties()
		after := s.properties()
		removed := p.ExportProperties(after, cluster)
		for _, ref := range removed {
			s.config.Remove(ref.Type, ref.Name)
		}
		for _, configType := range util.SortedKeys(after) {
			for name, value := range after[configType] {
				if old, ok := before[configType][name]; !ok || old != value {
					s.config.Set(configType, name, value)
				}
			}
		}
		p.log.Debugw("Exported configuration", "scope", s.name, "removed", len(removed))
	}
	p.log.Infow("Prepared configuration for blueprint export", "clusterId", p.topology.ClusterId())
}

// ExportProperties rewrites props in place for export, evaluating HA and database
// conditions against cluster. It returns the properties that were dropped.
func (p *Processor) ExportProperties(props, cluster map[string]map[string]string) []topology.PropertyRef {
	if cluster == nil {
		cluster = p.topology.Configuration().FullProperties()
	}
	ctx := &strategy.Context{Topology: p.topology, Properties: props, Cluster: cluster}
	var removed []topology.PropertyRef
	_ = p.walk(props, ctx, func(rule *strategy.Rule, configType, name, value string) error {
		out, _ := strategy.Resolve(strategy.Export, rule, name, value, ctx)
		if out.Removed {
			delete(props[configType], name)
			removed = append(removed, topology.PropertyRef{Type: configType, Name: name})
			return nil
		}
		props[configType][name] = out.Value
		return nil
	})
	removed = append(removed, filter.Export(p.authToLocal...).Apply(props, &filter.Context{Topology: p.topology, Cluster: cluster})...)
	sort.Slice(removed, func(i, j int) bool {
		return removed[i].String() < removed[j].String()
	})
	return removed
}

// IsPlacementError reports whether err comes from resolving a property against the topology.
func IsPlacementError(err error) bool {
	var pe *strategy.PlacementError
	return errors.As(err, &pe)
}
