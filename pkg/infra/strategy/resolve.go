package strategy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/util"
	"github.com/gzlj/hadoop-blueprint/pkg/logger"
)

const (
	atlasHookClass       = "org.apache.atlas.hive.hook.HiveHook"
	atlasDefaultCluster  = "primary"
	atlasDefaultHTTPPort = "21000"
	atlasDefaultTLSPort  = "21443"
	metastoreURIs        = "hive.metastore.uris"
)

type Direction int

const (
	// Create resolves placeholders and defaults into concrete hosts.
	Create Direction = iota
	// Export replaces concrete hosts with host group placeholders.
	Export
)

func (d Direction) String() string {
	if d == Export {
		return "export"
	}
	return "create"
}

// Context is what a rule sees of the request being resolved.
type Context struct {
	Topology *topology.ClusterTopology
	// Properties is the merged view of the configuration being resolved.
	Properties map[string]map[string]string
	// Cluster is the merged cluster configuration, used to detect HA and managed
	// databases. Properties stands in when it is nil.
	Cluster map[string]map[string]string
}

func (c *Context) cluster() map[string]map[string]string {
	if c.Cluster != nil {
		return c.Cluster
	}
	return c.Properties
}

// Outcome of a rule. Removed asks the caller to drop the property.
type Outcome struct {
	Value   string
	Removed bool
}

// Resolve applies rule to one property value.
// Errors are only returned in the Create direction.
func Resolve(dir Direction, rule *Rule, name, value string, ctx *Context) (Outcome, error) {
	if dir == Export {
		return export(rule, name, value, ctx), nil
	}
	v, err := create(rule, name, value, ctx)
	if err != nil {
		return Outcome{Value: value}, err
	}
	return Outcome{Value: v}, nil
}

func create(rule *Rule, name, value string, ctx *Context) (string, error) {
	topo := ctx.Topology
	switch rule.Kind {
	case KindHostGroup:
		return substitutePlaceholders(rule, name, value, topo)
	case KindSingleHost:
		return createSingleHost(rule, name, value, ctx)
	case KindOptionalSingleHost:
		v, err := createSingleHost(rule, name, value, ctx)
		if err != nil && !errors.Is(err, ErrUnknownHostGroup) {
			return value, nil
		}
		return v, err
	case KindMultiHost:
		return createMultiHost(rule, name, value, ctx)
	case KindDBHost:
		if !databaseManaged(rule, ctx) {
			return value, nil
		}
		pre, host, post := splitDBURL(value)
		resolved, err := createSingleHost(rule, name, host, ctx)
		if err != nil {
			return value, err
		}
		return pre + resolved + post, nil
	case KindTempletonHive:
		return rewriteTempleton(value, func(uris string) (string, error) {
			return createMultiHost(metastoreRule(rule), name, uris, ctx)
		})
	case KindUnit:
		if value != "" && isDigits(value) {
			return value + "m", nil
		}
		return value, nil
	case KindBindAll:
		if value == "" || strings.HasPrefix(value, global.BIND_ALL_IP_ADDRESS) {
			return value, nil
		}
		host := strings.SplitN(value, ":", 2)[0]
		return global.BIND_ALL_IP_ADDRESS + value[len(host):], nil
	case KindAtlasHook:
		return atlasHook(value, ctx), nil
	case KindAtlasClusterName:
		if topo.HasService(global.SERVICE_ATLAS) && (value == "" || value == atlasDefaultCluster) {
			return strconv.FormatInt(topo.ClusterId(), 10), nil
		}
		return value, nil
	case KindAtlasRestAddress:
		return atlasRestAddress(value, ctx), nil
	case KindMetricsReporter:
		if !topo.HasService(global.SERVICE_AMBARI_METRICS) {
			return value, nil
		}
		switch {
		case strings.TrimSpace(value) == "":
			return rule.Value, nil
		case rule.Append && !strings.Contains(value, rule.Value):
			return value + "," + rule.Value, nil
		}
		return value, nil
	default:
		return value, nil
	}
}

func export(rule *Rule, name, value string, ctx *Context) Outcome {
	keep := Outcome{Value: value}
	switch rule.Kind {
	case KindHostGroup, KindSingleHost, KindOptionalSingleHost, KindBindAll, KindAtlasRestAddress:
		return exportSingleHost(name, value, ctx)
	case KindDBHost:
		if strings.TrimSpace(value) == "" {
			return keep
		}
		pre, host, post := splitDBURL(value)
		if out, matched := replaceHosts(host, ctx.Topology); matched {
			return Outcome{Value: pre + out + post}
		}
		if hostGroupRegex.MatchString(value) || templateRegex.MatchString(value) {
			return keep
		}
		return Outcome{Removed: true}
	case KindMultiHost:
		out, _ := replaceHosts(value, ctx.Topology)
		return Outcome{Value: collapseHostGroups(out, rule.separator())}
	case KindTempletonHive:
		v, _ := rewriteTempleton(value, func(uris string) (string, error) {
			out, _ := replaceHosts(uris, ctx.Topology)
			return collapseHostGroups(out, ","), nil
		})
		return Outcome{Value: v}
	case KindAtlasClusterName:
		if ctx.Topology != nil && value == strconv.FormatInt(ctx.Topology.ClusterId(), 10) {
			return Outcome{Value: atlasDefaultCluster}
		}
		return keep
	case KindExternal:
		return Outcome{Removed: true}
	default:
		return keep
	}
}

func exportSingleHost(name, value string, ctx *Context) Outcome {
	if strings.TrimSpace(value) == "" {
		return Outcome{Value: value}
	}
	if IsNameServiceProperty(name) && refersToNameService(value, ctx.cluster()) {
		return Outcome{Value: value}
	}
	if out, matched := replaceHosts(value, ctx.Topology); matched {
		return Outcome{Value: out}
	}
	if IsNameServiceProperty(name) ||
		strings.Contains(value, global.BIND_ALL_IP_ADDRESS) ||
		strings.Contains(value, "undefined") ||
		templateRegex.MatchString(value) ||
		hostGroupRegex.MatchString(value) {
		return Outcome{Value: value}
	}
	return Outcome{Removed: true}
}

// substitutePlaceholders replaces each placeholder with the first host of its group.
func substitutePlaceholders(rule *Rule, name, value string, topo *topology.ClusterTopology) (string, error) {
	var firstErr error
	out := hostGroupRegex.ReplaceAllStringFunc(value, func(token string) string {
		group := hostGroupRegex.FindStringSubmatch(token)[1]
		hg, ok := topo.HostGroup(group)
		if !ok {
			if firstErr == nil {
				firstErr = &PlacementError{ConfigType: rule.ConfigType, Property: name, HostGroup: group, Err: ErrUnknownHostGroup}
			}
			return token
		}
		host, ok := hg.FirstHost()
		if !ok {
			if firstErr == nil {
				firstErr = &PlacementError{ConfigType: rule.ConfigType, Property: name, HostGroup: group, Err: ErrUnsatisfiablePlacement}
			}
			return token
		}
		return host
	})
	if firstErr != nil {
		return value, firstErr
	}
	return out, nil
}

func createSingleHost(rule *Rule, name, value string, ctx *Context) (string, error) {
	topo := ctx.Topology
	if hostGroupRegex.MatchString(value) {
		return substitutePlaceholders(rule, name, value, topo)
	}
	if !strings.Contains(value, global.LOCALHOST) {
		return value, nil
	}
	cluster := ctx.cluster()
	groups := topo.HostGroupsForComponent(rule.Component)
	switch {
	case len(groups) == 1:
		hg, _ := topo.HostGroup(groups[0])
		host, ok := hg.FirstHost()
		if !ok {
			return value, &PlacementError{ConfigType: rule.ConfigType, Property: name, HostGroup: groups[0], Err: ErrUnsatisfiablePlacement}
		}
		return strings.ReplaceAll(value, global.LOCALHOST, host), nil
	case len(groups) == 0:
		if topo.Cardinality(rule.Component).IsValidCount(0) {
			return value, nil
		}
		if rule.Component == global.COMPONENT_SECONDARY_NAMENODE && topology.IsNameNodeHAEnabled(cluster) {
			return value, nil
		}
	default:
		if rule.Component == global.COMPONENT_NAMENODE && topology.IsNameNodeHAEnabled(cluster) {
			return value, nil
		}
		if rule.Component == global.COMPONENT_RESOURCEMANAGER && topology.IsResourceManagerHAEnabled(cluster) {
			return value, nil
		}
		return value, &PlacementError{ConfigType: rule.ConfigType, Property: name, Component: rule.Component,
			Count: len(groups), Err: ErrAmbiguousPlacement}
	}
	return value, &PlacementError{ConfigType: rule.ConfigType, Property: name, Component: rule.Component,
		Count: 0, Err: ErrUnsatisfiablePlacement}
}

func withPort(host, port string) string {
	if port == "" {
		return host
	}
	return host + ":" + port
}

func createMultiHost(rule *Rule, name, value string, ctx *Context) (string, error) {
	if !strings.Contains(value, global.HOSTGROUP_TOKEN_PREFIX) && !strings.Contains(value, global.LOCALHOST) {
		return value, nil
	}
	topo := ctx.Topology

	var hosts []string
	groupMatches := hostGroupPortRegex.FindAllStringSubmatchIndex(value, -1)
	for _, m := range groupMatches {
		group := value[m[2]:m[3]]
		port := ""
		if m[4] >= 0 {
			port = value[m[4]:m[5]]
		}
		hg, ok := topo.HostGroup(group)
		if !ok {
			return value, &PlacementError{ConfigType: rule.ConfigType, Property: name, HostGroup: group, Err: ErrUnknownHostGroup}
		}
		groupHosts := hg.Hosts()
		if len(groupHosts) == 0 {
			return value, &PlacementError{ConfigType: rule.ConfigType, Property: name, HostGroup: group, Err: ErrUnsatisfiablePlacement}
		}
		for _, h := range groupHosts {
			hosts = append(hosts, withPort(h, port))
		}
	}

	localMatches := localhostPortRegex.FindAllStringSubmatchIndex(value, -1)
	if len(localMatches) > 0 {
		port := ""
		if m := localMatches[0]; m[2] >= 0 {
			port = value[m[2]:m[3]]
		}
		for _, h := range topo.HostsForComponent(rule.Component) {
			hosts = append(hosts, withPort(h, port))
		}
	}
	hosts = util.RemoveDuplicate(hosts)
	if len(hosts) == 0 {
		return value, nil
	}

	// The host list spans from the first match of either kind to the last.
	start, end := len(value), 0
	for _, matches := range [][][]int{groupMatches, localMatches} {
		for _, m := range matches {
			if m[0] < start {
				start = m[0]
			}
			if m[1] > end {
				end = m[1]
			}
		}
	}
	prefix := value[:start]
	suffix := value[end:]

	flow := rule.Flow
	if flow == FlowNone {
		flow = detectFlow(value)
	}
	if flow != FlowNone {
		prefix = strings.TrimPrefix(strings.TrimPrefix(prefix, "["), "'")
		suffix = strings.TrimSuffix(strings.TrimSuffix(suffix, "]"), "'")
	}

	port := ""
	if !rule.PortEach {
		hosts, port = removePorts(hosts)
	}
	joiner := rule.separator()
	if rule.SuffixEach {
		joiner = suffix + joiner
	}
	if rule.PrefixEach {
		joiner = joiner + prefix
	}

	result := prefix + strings.Join(hosts, joiner)
	if port != "" {
		result += ":" + port
	}
	result += suffix
	if flow != FlowNone {
		result = formatFlow(result, flow)
	}
	return result, nil
}

// databaseManaged: a missing condition property is treated as managed.
func databaseManaged(rule *Rule, ctx *Context) bool {
	v, ok := ctx.cluster()[rule.Condition.Type][rule.Condition.Name]
	if !ok {
		return true
	}
	return strings.HasPrefix(v, "New")
}

func metastoreRule(rule *Rule) *Rule {
	return &Rule{
		ConfigType: rule.ConfigType,
		Name:       metastoreURIs,
		Kind:       KindMultiHost,
		Component:  global.COMPONENT_HIVE_METASTORE,
		PrefixEach: true,
		PortEach:   true,
	}
}

// rewriteTempleton applies fn to the hive.metastore.uris entry of a key=value list.
// Commas inside that entry are escaped as "\,".
func rewriteTempleton(value string, fn func(string) (string, error)) (string, error) {
	parts := splitUnescaped(value, ',')
	for i, part := range parts {
		key, uris, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(key) != metastoreURIs {
			continue
		}
		out, err := fn(strings.ReplaceAll(uris, `\,`, ","))
		if err != nil {
			return value, err
		}
		parts[i] = key + "=" + strings.ReplaceAll(out, ",", `\,`)
	}
	return strings.Join(parts, ","), nil
}

func atlasHook(value string, ctx *Context) string {
	enabled := ctx.Topology.HasService(global.SERVICE_ATLAS) ||
		ctx.cluster()[global.CONFIG_HIVE_ENV]["hive.atlas.hook"] == "true"
	if enabled {
		switch {
		case strings.TrimSpace(value) == "":
			return atlasHookClass
		case !strings.Contains(value, atlasHookClass):
			return value + "," + atlasHookClass
		}
		return value
	}
	if value == "" {
		return value
	}
	var hooks []string
	for _, h := range util.SplitAndTrim(value, ",") {
		if h != atlasHookClass {
			hooks = append(hooks, h)
		}
	}
	if len(hooks) == 0 {
		return " "
	}
	return strings.Join(hooks, ",")
}

func atlasRestAddress(value string, ctx *Context) string {
	topo := ctx.Topology
	if !topo.HasService(global.SERVICE_ATLAS) {
		return value
	}
	hosts := topo.HostsForComponent(global.COMPONENT_ATLAS_SERVER)
	if len(hosts) == 0 {
		return value
	}
	props := ctx.cluster()["application-properties"]
	scheme, port := "http", atlasDefaultHTTPPort
	if props["atlas.enableTLS"] == "true" {
		scheme, port = "https", atlasDefaultTLSPort
		if p := props["atlas.server.https.port"]; p != "" {
			port = p
		}
	} else if p := props["atlas.server.http.port"]; p != "" {
		port = p
	}
	return fmt.Sprintf("%s://%s:%s", scheme, hosts[0], port)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RequiredHostGroups returns the host groups the value needs at create time. Names
// taken from placeholders are returned as written, even when no such group exists.
func RequiredHostGroups(rule *Rule, name, value string, ctx *Context) []string {
	topo := ctx.Topology
	switch rule.Kind {
	case KindHostGroup, KindSingleHost, KindOptionalSingleHost, KindBindAll, KindMultiHost:
		return componentHostGroups(rule, name, value, topo)
	case KindDBHost:
		if !databaseManaged(rule, ctx) {
			return nil
		}
		_, host, _ := splitDBURL(value)
		return componentHostGroups(rule, name, host, topo)
	case KindTempletonHive:
		var groups []string
		_, _ = rewriteTempleton(value, func(uris string) (string, error) {
			groups = componentHostGroups(metastoreRule(rule), name, uris, topo)
			return uris, nil
		})
		return groups
	case KindAtlasRestAddress:
		if topo.HasService(global.SERVICE_ATLAS) {
			return topo.HostGroupsForComponent(global.COMPONENT_ATLAS_SERVER)
		}
		return nil
	default:
		return nil
	}
}

func componentHostGroups(rule *Rule, name, value string, topo *topology.ClusterTopology) []string {
	if names := HostGroupNames(value); len(names) > 0 {
		return names
	}
	if rule.Kind == KindHostGroup || !strings.Contains(value, global.LOCALHOST) {
		return nil
	}
	groups := topo.HostGroupsForComponent(rule.Component)
	if len(groups) == 0 && !topo.Cardinality(rule.Component).IsValidCount(0) {
		logger.For(logger.ComponentStrategy).Warnw("Component required by property is not mapped to any host group",
			"configType", rule.ConfigType, "property", name, "component", rule.Component)
	}
	return groups
}
