package filter

import (
	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
)

var exportedNames = []Name{
	{"tez-site", "tez.tez-ui.history-url.base"},
	{global.CONFIG_KERBEROS_ENV, "admin_server_host"},
	{global.CONFIG_KERBEROS_ENV, "kdc_hosts"},
	{global.CONFIG_KERBEROS_ENV, "master_kdc"},
	{global.CONFIG_KERBEROS_ENV, "realm"},
	{global.CONFIG_KERBEROS_ENV, "kdc_type"},
	{global.CONFIG_KERBEROS_ENV, "ldap-url"},
	{global.CONFIG_KERBEROS_ENV, "container_dn"},
	{global.CONFIG_KRB5_CONF, "domains"},
	{global.CONFIG_HADOOP_ENV, "dfs_ha_initial_namenode_active"},
	{global.CONFIG_HADOOP_ENV, "dfs_ha_initial_namenode_standby"},
}

// DependencyFilters evaluate the stack declared dependencies on security settings.
func DependencyFilters() []Filter {
	return []Filter{
		DependencyEquals(topology.PropertyRef{Type: global.CONFIG_HBASE_SITE, Name: "hbase.security.authorization"}, "true"),
		DependencyEquals(topology.PropertyRef{Type: global.CONFIG_HBASE_SITE, Name: "hbase.security.authentication"}, "kerberos"),
		DependencyNotEquals(topology.PropertyRef{Type: global.CONFIG_HIVE_SITE, Name: "hive.server2.authentication"}, "NONE"),
		DependencyEquals(topology.PropertyRef{Type: global.CONFIG_CORE_SITE, Name: "hadoop.security.authentication"}, "kerberos"),
	}
}

// Export is the chain applied to properties leaving the cluster in a blueprint.
// authToLocal lists extra "type/name" properties to drop.
func Export(authToLocal ...string) Chain {
	chain := Chain{Password()}
	for _, n := range exportedNames {
		chain = append(chain, n)
	}
	chain = append(chain, StackPropertyType(), AuthToLocal(authToLocal...))
	return append(chain, DependencyFilters()...)
}

var coprocessorClasses = []topology.PropertyRef{
	{Type: global.CONFIG_HBASE_SITE, Name: "hbase.coprocessor.master.classes"},
	{Type: global.CONFIG_HBASE_SITE, Name: "hbase.coprocessor.region.classes"},
}

// ClusterUpdate is the chain applied to the cluster configuration before create time
// resolution. HBase coprocessor classes are never dropped here.
func ClusterUpdate() Chain {
	chain := Chain{}
	for _, f := range DependencyFilters() {
		chain = append(chain, Except(f, coprocessorClasses...))
	}
	return append(chain,
		Conditional{ConfigType: global.CONFIG_HBASE_SITE, Name: "hbase.rpc.controllerfactory.class",
			Value: "org.apache.hadoop.hbase.ipc.controller.ServerRpcControllerFactory"},
		NameNodeHA(),
		ResourceManagerHA(),
		HawqStandby(),
	)
}
