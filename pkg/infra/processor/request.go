package processor

import (
	"errors"
	"fmt"

	"github.com/gzlj/hadoop-blueprint/pkg/infra/configuration"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/module"
)

// ErrInvalidRequest marks a cluster document that cannot be turned into a topology.
var ErrInvalidRequest = errors.New("invalid cluster request")

// BuildTopology assembles the configuration chains and host groups of a request:
// cluster over blueprint for the cluster scope, and host group over blueprint host
// group over cluster for every host group.
func BuildTopology(req *module.ClusterRequest, st topology.Stack) (*topology.ClusterTopology, error) {
	blueprint := configuration.New(req.BlueprintConfigurations, nil)
	cluster := configuration.NewWithParent(req.Configurations, req.Attributes, blueprint)

	groups := make([]*topology.HostGroup, 0, len(req.HostGroups))
	for _, hg := range req.HostGroups {
		if hg.Name == "" {
			return nil, errors.New("host group without a name")
		}
		blueprintGroup := configuration.NewWithParent(hg.BlueprintConfigurations, nil, cluster)
		config := configuration.NewWithParent(hg.Configurations, nil, blueprintGroup)
		groups = append(groups, topology.NewHostGroup(hg.Name, hg.Components, hg.Hosts, config))
	}
	topo, err := topology.New(req.ClusterId, cluster, st, groups...)
	if err != nil {
		return nil, fmt.Errorf("build topology: %w", err)
	}
	return topo, nil
}

// Result collects the merged cluster configuration with its attributes and the
// configuration each host group owns.
func Result(topo *topology.ClusterTopology, updated []string) *module.ClusterResult {
	cluster := topo.Configuration()
	res := &module.ClusterResult{
		Configurations:     cluster.FullProperties(),
		Attributes:         attributes(cluster),
		UpdatedConfigTypes: updated,
	}
	for _, hg := range topo.HostGroups() {
		depth := hg.Configuration().Depth() - cluster.Depth()
		if depth < 1 {
			depth = 1
		}
		props := hg.Configuration().FullPropertiesDepth(depth)
		for t, values := range props {
			if len(values) == 0 {
				delete(props, t)
			}
		}
		res.HostGroups = append(res.HostGroups, module.HostGroupConfiguration{Name: hg.Name(), Configurations: props})
	}
	return res
}

// attributes returns the merged attributes of config, or nil when none are left.
func attributes(config *configuration.Configuration) module.Attributes {
	merged := config.FullAttributes()
	for t, attrs := range merged {
		for a, props := range attrs {
			if len(props) == 0 {
				delete(attrs, a)
			}
		}
		if len(attrs) == 0 {
			delete(merged, t)
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

func buildRequest(req *module.ClusterRequest, st topology.Stack) (*topology.ClusterTopology, error) {
	topo, err := BuildTopology(req, st)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return topo, nil
}

// Export returns the configuration of req with concrete hosts replaced by host group
// placeholders and the non-replayable properties dropped.
func Export(req *module.ClusterRequest, st topology.Stack) (*module.ClusterResult, error) {
	topo, err := buildRequest(req, st)
	if err != nil {
		return nil, err
	}
	New(topo, WithAuthToLocal(req.AuthToLocal...)).DoUpdateForBlueprintExport()
	return Result(topo, nil), nil
}

// Resolve returns the configuration of req with every host bearing property resolved
// against its host groups.
func Resolve(req *module.ClusterRequest, st topology.Stack) (*module.ClusterResult, error) {
	topo, err := buildRequest(req, st)
	if err != nil {
		return nil, err
	}
	updated, err := New(topo).DoUpdateForClusterCreate()
	if err != nil {
		return nil, err
	}
	return Result(topo, updated), nil
}

// RequiredHostGroups lists the host groups the configuration of req depends on.
func RequiredHostGroups(req *module.ClusterRequest, st topology.Stack) (*module.RequiredHostGroupsResult, error) {
	topo, err := buildRequest(req, st)
	if err != nil {
		return nil, err
	}
	return &module.RequiredHostGroupsResult{HostGroups: New(topo).RequiredHostGroups()}, nil
}
