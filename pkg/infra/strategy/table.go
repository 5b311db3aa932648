package strategy

import (
	"regexp"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
)

func single(configType, name, component string) *Rule {
	return &Rule{ConfigType: configType, Name: name, Kind: KindSingleHost, Component: component}
}

func optional(configType, name, component string) *Rule {
	return &Rule{ConfigType: configType, Name: name, Kind: KindOptionalSingleHost, Component: component}
}

func multi(configType, name, component string) *Rule {
	return &Rule{ConfigType: configType, Name: name, Kind: KindMultiHost, Component: component, PortEach: true}
}

func multiWith(configType, name, component, separator string, prefixEach, suffixEach, portEach bool) *Rule {
	return &Rule{
		ConfigType: configType,
		Name:       name,
		Kind:       KindMultiHost,
		Component:  component,
		Separator:  separator,
		PrefixEach: prefixEach,
		SuffixEach: suffixEach,
		PortEach:   portEach,
	}
}

func yamlList(configType, name, component string, flow FlowStyle) *Rule {
	r := multi(configType, name, component)
	r.Flow = flow
	return r
}

func of(kind Kind, configType, name string) *Rule {
	return &Rule{ConfigType: configType, Name: name, Kind: kind}
}

func gated(r *Rule, gate Gate) *Rule {
	r.Gate = gate
	return r
}

var (
	nameNodeHAPattern        = regexp.MustCompile(`^dfs\.namenode\.(http|https|rpc)-address\.([^.]+)\.([^.]+)$`)
	resourceManagerHAPattern = regexp.MustCompile(`^yarn\.resourcemanager\.(hostname|address|admin\.address|resource-tracker\.address|scheduler\.address|webapp\.address|webapp\.https\.address)\.([^.]+)$`)
)

// NameServiceProperties may reference an HDFS nameservice instead of a host.
var NameServiceProperties = map[string]bool{
	"fs.defaultFS":                        true,
	"hbase.rootdir":                       true,
	"instance.volumes":                    true,
	"policymgr_external_url":              true,
	"xasecure.audit.destination.hdfs.dir": true,
}

// DefaultRules is the table of host bearing properties known for the Hadoop stack.
func DefaultRules() []*Rule {
	const (
		nn   = global.COMPONENT_NAMENODE
		snn  = global.COMPONENT_SECONDARY_NAMENODE
		rm   = global.COMPONENT_RESOURCEMANAGER
		hs   = global.COMPONENT_HISTORYSERVER
		ats  = global.COMPONENT_APP_TIMELINE_SERVER
		jt   = global.COMPONENT_JOBTRACKER
		zk   = global.COMPONENT_ZOOKEEPER_SERVER
		kms  = global.COMPONENT_RANGER_KMS_SERVER
		knox = global.COMPONENT_KNOX_GATEWAY
	)

	rules := []*Rule{
		// HDFS
		single("hdfs-site", "dfs.http.address", nn),
		single("hdfs-site", "dfs.https.address", nn),
		single("hdfs-site", "dfs.namenode.http-address", nn),
		single("hdfs-site", "dfs.namenode.https-address", nn),
		single("hdfs-site", "dfs.namenode.rpc-address", nn),
		single("hdfs-site", "dfs.secondary.http.address", snn),
		single("hdfs-site", "dfs.namenode.secondary.http-address", snn),
		single("core-site", "fs.default.name", nn),
		single("core-site", "fs.defaultFS", nn),
		single("hbase-site", "hbase.rootdir", nn),
		single("accumulo-site", "instance.volumes", nn),
		single("hadoop-env", "dfs_ha_initial_namenode_active", nn),
		single("hadoop-env", "dfs_ha_initial_namenode_standby", nn),
		multiWith("hdfs-site", "dfs.namenode.shared.edits.dir", global.COMPONENT_JOURNALNODE, ";", false, false, true),
		multiWith("hdfs-site", "dfs.encryption.key.provider.uri", kms, ";", false, false, false),
		{ConfigType: "hdfs-site", Pattern: nameNodeHAPattern, Kind: KindSingleHost, Component: nn, Gate: GateNameNodeHA},

		// MAPREDUCE
		single("mapred-site", "mapred.job.tracker", jt),
		single("mapred-site", "mapred.job.tracker.http.address", jt),
		single("mapred-site", "mapreduce.history.server.http.address", jt),
		single("mapred-site", "mapreduce.job.hdfs-servers", nn),

		// MAPREDUCE2 / YARN
		single("yarn-site", "yarn.log.server.url", hs),
		single("mapred-site", "mapreduce.jobhistory.webapp.address", hs),
		single("mapred-site", "mapreduce.jobhistory.address", hs),
		single("yarn-site", "yarn.resourcemanager.hostname", rm),
		single("yarn-site", "yarn.resourcemanager.resource-tracker.address", rm),
		single("yarn-site", "yarn.resourcemanager.webapp.address", rm),
		single("yarn-site", "yarn.resourcemanager.scheduler.address", rm),
		single("yarn-site", "yarn.resourcemanager.address", rm),
		single("yarn-site", "yarn.resourcemanager.admin.address", rm),
		single("yarn-site", "yarn.resourcemanager.webapp.https.address", rm),
		single("yarn-site", "yarn.timeline-service.address", ats),
		single("yarn-site", "yarn.timeline-service.webapp.address", ats),
		single("yarn-site", "yarn.timeline-service.webapp.https.address", ats),
		single("yarn-site", "yarn.log.server.web-service.url", ats),
		multi("yarn-site", "hadoop.registry.zk.quorum", zk),
		multi("yarn-site", "yarn.resourcemanager.zk-address", zk),
		{ConfigType: "yarn-site", Pattern: resourceManagerHAPattern, Kind: KindSingleHost, Component: rm, Gate: GateResourceManagerHA},

		// HIVE
		single("hive-site", "hive.server2.authentication.ldap.url", global.COMPONENT_HIVE_SERVER2),
		multiWith("hive-site", "hive.metastore.uris", global.COMPONENT_HIVE_METASTORE, ",", true, true, true),
		multi("hive-site", "hive.zookeeper.quorum", zk),
		multi("hive-site", "hive.cluster.delegation.token.store.zookeeper.connectString", zk),
		{ConfigType: "hive-site", Name: "javax.jdo.option.ConnectionURL", Kind: KindDBHost, Component: global.COMPONENT_MYSQL_SERVER,
			Condition: topology.PropertyRef{Type: global.CONFIG_HIVE_ENV, Name: "hive_database"}},
		of(KindAtlasHook, "hive-site", "hive.exec.post.hooks"),
		of(KindAtlasClusterName, "hive-site", "atlas.cluster.name"),
		{ConfigType: "hive-site", Name: "atlas.rest.address", Kind: KindAtlasRestAddress, Component: global.COMPONENT_ATLAS_SERVER},
		single("hive-interactive-env", "hive_server_interactive_host", global.COMPONENT_HIVE_SERVER_INTERACTIVE),
		multi("hive-interactive-site", "hive.llap.zk.sm.connectionString", zk),
		multi("core-site", "hadoop.proxyuser.hive.hosts", global.COMPONENT_HIVE_SERVER),
		multi("core-site", "hadoop.proxyuser.HTTP.hosts", global.COMPONENT_WEBHCAT_SERVER),
		multi("core-site", "hadoop.proxyuser.hcat.hosts", global.COMPONENT_WEBHCAT_SERVER),
		multi("core-site", "hadoop.proxyuser.yarn.hosts", rm),
		multiWith("core-site", "hadoop.security.key.provider.path", kms, ";", false, false, true),
		of(KindTempletonHive, "webhcat-site", "templeton.hive.properties"),
		multi("webhcat-site", "templeton.zookeeper.hosts", zk),
		of(KindExternal, "hive-env", "hive_existing_oracle_host"),
		of(KindExternal, "hive-env", "hive_existing_mssql_server_2_host"),
		of(KindExternal, "hive-env", "hive_existing_mssql_server_host"),
		of(KindExternal, "hive-env", "hive_existing_postgresql_host"),
		of(KindExternal, "hive-env", "hive_existing_mysql_host"),

		// OOZIE
		single("oozie-site", "oozie.base.url", global.COMPONENT_OOZIE_SERVER),
		multi("core-site", "hadoop.proxyuser.oozie.hosts", global.COMPONENT_OOZIE_SERVER),
		gated(multi("oozie-site", "oozie.zookeeper.connection.string", zk), GateOozieHA),
		multi("oozie-site", "hadoop.proxyuser.knox.hosts", knox),
		multi("oozie-site", "oozie.service.ProxyUserService.proxyuser.knox.hosts", knox),

		// ZOOKEEPER
		multi("hbase-site", "hbase.zookeeper.quorum", zk),
		multi("core-site", "ha.zookeeper.quorum", zk),
		multi("slider-client", "slider.zookeeper.quorum", zk),
		multi("kafka-broker", "zookeeper.connect", zk),
		multi("accumulo-site", "instance.zookeeper.host", zk),

		// STORM
		single("storm-site", "nimbus.host", global.COMPONENT_NIMBUS),
		single("storm-site", "nimbus_hosts", global.COMPONENT_NIMBUS),
		single("storm-site", "drpc_server_host", global.COMPONENT_DRPC_SERVER),
		single("storm-site", "drpc.servers", global.COMPONENT_DRPC_SERVER),
		single("storm-site", "storm_ui_server_host", global.COMPONENT_STORM_UI_SERVER),
		optional("storm-site", "worker.childopts", global.COMPONENT_GANGLIA_SERVER),
		optional("storm-site", "supervisor.childopts", global.COMPONENT_GANGLIA_SERVER),
		optional("storm-site", "nimbus.childopts", global.COMPONENT_GANGLIA_SERVER),
		yamlList("storm-site", "supervisor_hosts", global.COMPONENT_SUPERVISOR, FlowSingleQuoted),
		yamlList("storm-site", "storm.zookeeper.servers", zk, FlowSingleQuoted),
		yamlList("storm-site", "nimbus.seeds", global.COMPONENT_NIMBUS, FlowPlain),
		{ConfigType: "storm-site", Name: "metrics.reporter.register", Kind: KindMetricsReporter,
			Value: "org.apache.hadoop.metrics2.sink.storm.StormTimelineMetricsReporter"},

		// FALCON
		single("falcon-startup.properties", "*.broker.url", global.COMPONENT_FALCON_SERVER),

		// KAFKA
		optional("kafka-broker", "kafka.ganglia.metrics.host", global.COMPONENT_GANGLIA_SERVER),
		{ConfigType: "kafka-broker", Name: "kafka.metrics.reporters", Kind: KindMetricsReporter,
			Value: "org.apache.hadoop.metrics2.sink.kafka.KafkaTimelineMetricsReporter", Append: true},

		// KNOX
		multi("core-site", "hadoop.proxyuser.knox.hosts", knox),
		multi("webhcat-site", "webhcat.proxyuser.knox.hosts", knox),

		// ATLAS
		single("application-properties", "atlas.server.bind.address", global.COMPONENT_ATLAS_SERVER),
		multi("application-properties", "atlas.kafka.bootstrap.servers", global.COMPONENT_KAFKA_BROKER),
		multi("application-properties", "atlas.kafka.zookeeper.connect", zk),
		multiWith("application-properties", "atlas.graph.index.search.solr.zookeeper-url", zk, ",", false, true, true),
		multi("application-properties", "atlas.graph.storage.hostname", zk),
		multi("application-properties", "atlas.audit.hbase.zookeeper.quorum", zk),

		// RANGER
		single("admin-properties", "policymgr_external_url", global.COMPONENT_RANGER_ADMIN),
		multi("kms-site", "hadoop.kms.authentication.signer.secret.provider.zookeeper.connection.string", zk),

		// HAWQ
		single("hawq-site", "hawq_master_address_host", global.COMPONENT_HAWQMASTER),
		single("hawq-site", "hawq_standby_address_host", global.COMPONENT_HAWQSTANDBY),
		single("hawq-site", "hawq_dfs_url", nn),

		// AMBARI_METRICS
		{ConfigType: "ams-site", Name: "timeline.metrics.service.webapp.address", Kind: KindBindAll, Component: global.COMPONENT_METRICS_COLLECTOR},

		// DRUID
		of(KindHostGroup, "druid-common", "metastore_hostname"),
		of(KindHostGroup, "druid-common", "druid.metadata.storage.connector.connectURI"),
		multi("druid-common", "druid.zk.service.host", zk),
	}

	for _, t := range []string{"ranger-env", "ranger-yarn-audit", "ranger-hdfs-audit", "ranger-hbase-audit",
		"ranger-hive-audit", "ranger-knox-audit", "ranger-kafka-audit", "ranger-storm-audit", "ranger-atlas-audit"} {
		rules = append(rules, optional(t, "xasecure.audit.destination.hdfs.dir", nn))
	}

	// The Oozie database is either a cluster host, resolved like any other
	// single host property, or external and dropped on export.
	for _, r := range []struct{ configType, name string }{
		{"oozie-env", "oozie_existing_mysql_host"},
		{"oozie-env", "oozie_existing_oracle_host"},
		{"oozie-env", "oozie_existing_postgresql_host"},
		{"oozie-site", "oozie.service.JPAService.jdbc.url"},
	} {
		rules = append(rules,
			gated(single(r.configType, r.name, global.COMPONENT_OOZIE_SERVER), GateOozieManagedDB),
			gated(of(KindExternal, r.configType, r.name), GateOozieExternalDB))
	}

	for configType, names := range UnitProperties {
		for _, name := range names {
			rules = append(rules, of(KindUnit, configType, name))
		}
	}
	return rules
}

// UnitProperties are memory sizes expected to carry a unit suffix.
var UnitProperties = map[string][]string{
	"hadoop-env":    {"namenode_heapsize", "namenode_opt_newsize", "namenode_opt_maxnewsize", "namenode_opt_permsize", "namenode_opt_maxpermsize", "dtnode_heapsize"},
	"hbase-env":     {"hbase_master_heapsize", "hbase_regionserver_heapsize"},
	"mapred-env":    {"jtnode_heapsize", "jtnode_opt_newsize", "jtnode_opt_maxnewsize"},
	"oozie-env":     {"oozie_heapsize", "oozie_permsize"},
	"zookeeper-env": {"zk_server_heapsize"},
}

// DefaultRegistry returns a registry loaded with DefaultRules.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultRules()...)
}
