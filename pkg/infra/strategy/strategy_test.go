package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gzlj/hadoop-blueprint/pkg/infra/configuration"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/stack"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
)

type props = map[string]map[string]string

func group(name string, components []string, hosts ...string) *topology.HostGroup {
	return topology.NewHostGroup(name, components, hosts, nil)
}

func newContext(t *testing.T, cluster props, groups ...*topology.HostGroup) *Context {
	t.Helper()
	s, err := stack.Default()
	require.NoError(t, err)
	topo, err := topology.New(1, configuration.New(cluster, nil), s, groups...)
	require.NoError(t, err)
	merged := topo.Configuration().FullProperties()
	return &Context{Topology: topo, Properties: merged, Cluster: merged}
}

func ruleFor(t *testing.T, ctx *Context, configType, name string) *Rule {
	t.Helper()
	r := DefaultRegistry().Lookup(configType, name, ctx)
	require.NotNil(t, r, "%s/%s", configType, name)
	return r
}

func mustCreate(t *testing.T, ctx *Context, configType, name, value string) string {
	t.Helper()
	out, err := Resolve(Create, ruleFor(t, ctx, configType, name), name, value, ctx)
	require.NoError(t, err)
	require.False(t, out.Removed)
	return out.Value
}

func createErr(t *testing.T, ctx *Context, configType, name, value string) error {
	t.Helper()
	_, err := Resolve(Create, ruleFor(t, ctx, configType, name), name, value, ctx)
	return err
}

func exportOf(t *testing.T, ctx *Context, configType, name, value string) Outcome {
	t.Helper()
	out, err := Resolve(Export, ruleFor(t, ctx, configType, name), name, value, ctx)
	require.NoError(t, err)
	return out
}

func TestSingleHost_RoundTrip(t *testing.T) {
	ctx := newContext(t, nil, group("group1", []string{"NAMENODE"}, "host1"))

	assert.Equal(t, "host1:50070", mustCreate(t, ctx, "hdfs-site", "dfs.namenode.http-address", "%HOSTGROUP::group1%:50070"))
	assert.Equal(t, Outcome{Value: "%HOSTGROUP::group1%:50070"}, exportOf(t, ctx, "hdfs-site", "dfs.namenode.http-address", "host1:50070"))
	assert.Equal(t, "host1:8020", mustCreate(t, ctx, "hdfs-site", "dfs.namenode.rpc-address", "localhost:8020"))
}

func TestSingleHost_ResourceManagerHostname(t *testing.T) {
	ctx := newContext(t, nil, group("group1", []string{"RESOURCEMANAGER"}, "testhost"))
	exported := exportOf(t, ctx, "yarn-site", "yarn.resourcemanager.hostname", "testhost")
	assert.Equal(t, "%HOSTGROUP::group1%", exported.Value)

	ctx = newContext(t, nil, group("group1", []string{"RESOURCEMANAGER"}, "newhost"))
	assert.Equal(t, "newhost", mustCreate(t, ctx, "yarn-site", "yarn.resourcemanager.hostname", exported.Value))
}

func TestSingleHost_Placement(t *testing.T) {
	ctx := newContext(t, nil,
		group("group1", []string{"RESOURCEMANAGER"}, "host1"),
		group("group2", []string{"RESOURCEMANAGER"}, "host2"))

	err := createErr(t, ctx, "yarn-site", "yarn.resourcemanager.address", "localhost:8050")
	require.ErrorIs(t, err, ErrAmbiguousPlacement)
	var pe *PlacementError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "RESOURCEMANAGER", pe.Component)
	assert.Equal(t, 2, pe.Count)
	assert.Equal(t, "yarn.resourcemanager.address", pe.Property)

	err = createErr(t, ctx, "mapred-site", "mapreduce.jobhistory.address", "localhost:10020")
	assert.ErrorIs(t, err, ErrUnsatisfiablePlacement)

	// APP_TIMELINE_SERVER is 0-1
	assert.Equal(t, "localhost:10200", mustCreate(t, ctx, "yarn-site", "yarn.timeline-service.address", "localhost:10200"))

	// literal external hosts are left alone
	assert.Equal(t, "rm.external.com:8050", mustCreate(t, ctx, "yarn-site", "yarn.resourcemanager.address", "rm.external.com:8050"))

	err = createErr(t, ctx, "yarn-site", "yarn.resourcemanager.address", "%HOSTGROUP::missing%:8050")
	assert.ErrorIs(t, err, ErrUnknownHostGroup)
}

func TestOptionalSingleHost(t *testing.T) {
	ctx := newContext(t, nil, group("group1", []string{"NIMBUS"}, "host1"))

	opts := "-Xmx768m -javaagent:/usr/lib/storm/jmxetric.jar=host=localhost,port=8650"
	assert.Equal(t, opts, mustCreate(t, ctx, "storm-site", "worker.childopts", opts))

	err := createErr(t, ctx, "storm-site", "worker.childopts", "host=%HOSTGROUP::nope%")
	assert.ErrorIs(t, err, ErrUnknownHostGroup)

	ctx = newContext(t, nil, group("group1", []string{"GANGLIA_SERVER"}, "ganglia1"))
	assert.Equal(t, "-javaagent:jmxetric.jar=host=ganglia1,port=8650",
		mustCreate(t, ctx, "storm-site", "worker.childopts", "-javaagent:jmxetric.jar=host=localhost,port=8650"))
}

func TestSingleHost_ExportExternal(t *testing.T) {
	ctx := newContext(t, nil, group("group1", []string{"RESOURCEMANAGER", "NAMENODE"}, "host1"))

	assert.True(t, exportOf(t, ctx, "yarn-site", "yarn.resourcemanager.hostname", "external.example.com").Removed)
	assert.Equal(t, Outcome{Value: "hdfs://external:8020"}, exportOf(t, ctx, "core-site", "fs.defaultFS", "hdfs://external:8020"))
	assert.Equal(t, Outcome{Value: "0.0.0.0:8088"}, exportOf(t, ctx, "yarn-site", "yarn.resourcemanager.webapp.address", "0.0.0.0:8088"))
	assert.Equal(t, Outcome{Value: "{{rm_host}}:8088"}, exportOf(t, ctx, "yarn-site", "yarn.resourcemanager.webapp.address", "{{rm_host}}:8088"))
	assert.Equal(t, Outcome{Value: "%HOSTGROUP::group1%:8088"}, exportOf(t, ctx, "yarn-site", "yarn.resourcemanager.webapp.address", "%HOSTGROUP::group1%:8088"))
}

func TestReplaceHosts_Boundaries(t *testing.T) {
	ctx := newContext(t, nil,
		group("g1", []string{"ZOOKEEPER_SERVER"}, "host1"),
		group("g2", []string{"ZOOKEEPER_SERVER"}, "host10"))

	out, matched := replaceHosts("host10:80,host1:80", ctx.Topology)
	assert.True(t, matched)
	assert.Equal(t, "%HOSTGROUP::g2%:80,%HOSTGROUP::g1%:80", out)

	out, matched = replaceHosts("host1.example.com:80", ctx.Topology)
	assert.False(t, matched)
	assert.Equal(t, "host1.example.com:80", out)

	out, matched = replaceHosts("myhost1:80", ctx.Topology)
	assert.False(t, matched)
	assert.Equal(t, "myhost1:80", out)

	out, _ = replaceHosts("%HOSTGROUP::host1%:80", ctx.Topology)
	assert.Equal(t, "%HOSTGROUP::host1%:80", out)
}

func TestMultiHost_ExportCollapsesPerHostGroup(t *testing.T) {
	ctx := newContext(t, nil,
		group("group1", []string{"ZOOKEEPER_SERVER"}, "zk1", "zk2"),
		group("group2", []string{"ZOOKEEPER_SERVER"}, "zk3"))

	exported := exportOf(t, ctx, "core-site", "ha.zookeeper.quorum", "zk1:2181,zk2:2181,zk3:2181")
	assert.Equal(t, "%HOSTGROUP::group1%:2181,%HOSTGROUP::group2%:2181", exported.Value)

	assert.Equal(t, "zk1:2181,zk2:2181,zk3:2181", mustCreate(t, ctx, "core-site", "ha.zookeeper.quorum", exported.Value))
	assert.Equal(t, "zk1:2181,zk2:2181,zk3:2181", mustCreate(t, ctx, "core-site", "ha.zookeeper.quorum", "localhost:2181"))

	assert.Equal(t, "undefined", exportOf(t, ctx, "core-site", "ha.zookeeper.quorum", "undefined").Value)
}

func TestMultiHost_MixedPlaceholderAndLocalhost(t *testing.T) {
	ctx := newContext(t, nil,
		group("g1", []string{"ZOOKEEPER_SERVER"}, "h1"),
		group("g2", []string{"ZOOKEEPER_SERVER"}, "h2"))

	assert.Equal(t, "h1:2181,h2:2181",
		mustCreate(t, ctx, "core-site", "ha.zookeeper.quorum", "%HOSTGROUP::g1%:2181,localhost:2181"))
	assert.Equal(t, "h2:2181,h1:2181",
		mustCreate(t, ctx, "core-site", "ha.zookeeper.quorum", "localhost:2181,%HOSTGROUP::g2%:2181"))
}

func TestMultiHost_SharedEditsDir(t *testing.T) {
	ctx := newContext(t, nil, group("jn", []string{"JOURNALNODE"}, "jn1", "jn2"))

	exported := exportOf(t, ctx, "hdfs-site", "dfs.namenode.shared.edits.dir", "qjournal://jn1:8485;jn2:8485/mycluster")
	assert.Equal(t, "qjournal://%HOSTGROUP::jn%:8485/mycluster", exported.Value)
	assert.Equal(t, "qjournal://jn1:8485;jn2:8485/mycluster",
		mustCreate(t, ctx, "hdfs-site", "dfs.namenode.shared.edits.dir", exported.Value))
}

func TestMultiHost_PrefixAndPorts(t *testing.T) {
	ctx := newContext(t, nil,
		group("g1", []string{"HIVE_METASTORE"}, "m1"),
		group("g2", []string{"HIVE_METASTORE", "RANGER_KMS_SERVER"}, "m2", "k2"))

	assert.Equal(t, "thrift://m1:9083,thrift://m2:9083,thrift://k2:9083",
		mustCreate(t, ctx, "hive-site", "hive.metastore.uris", "thrift://localhost:9083"))
	assert.Equal(t, "thrift://%HOSTGROUP::g1%:9083,thrift://%HOSTGROUP::g2%:9083",
		exportOf(t, ctx, "hive-site", "hive.metastore.uris", "thrift://m1:9083,thrift://m2:9083,thrift://k2:9083").Value)

	assert.Equal(t, "kms://http@m2;k2:9292/kms",
		mustCreate(t, ctx, "hdfs-site", "dfs.encryption.key.provider.uri", "kms://http@localhost:9292/kms"))
}

func TestMultiHost_YAMLLists(t *testing.T) {
	ctx := newContext(t, nil,
		group("group1", []string{"ZOOKEEPER_SERVER", "NIMBUS"}, "zk1", "zk2"))

	assert.Equal(t, "['zk1','zk2']", mustCreate(t, ctx, "storm-site", "storm.zookeeper.servers", "['localhost']"))
	assert.Equal(t, "[zk1,zk2]", mustCreate(t, ctx, "storm-site", "nimbus.seeds", "localhost"))
	assert.Equal(t, "['%HOSTGROUP::group1%']", exportOf(t, ctx, "storm-site", "storm.zookeeper.servers", "['zk1','zk2']").Value)
	assert.Equal(t, "['zk1','zk2']", mustCreate(t, ctx, "storm-site", "storm.zookeeper.servers", "['%HOSTGROUP::group1%']"))
}

func TestDBHost(t *testing.T) {
	cluster := props{"hive-env": {"hive_database": "New MySQL Database"}}
	ctx := newContext(t, cluster, group("g", []string{"MYSQL_SERVER"}, "dbhost"))

	exported := exportOf(t, ctx, "hive-site", "javax.jdo.option.ConnectionURL", "jdbc:mysql://dbhost/db?opt=true")
	assert.Equal(t, "jdbc:mysql://%HOSTGROUP::g%/db?opt=true", exported.Value)
	assert.Equal(t, "jdbc:mysql://dbhost/db?opt=true", mustCreate(t, ctx, "hive-site", "javax.jdo.option.ConnectionURL", exported.Value))
	assert.Equal(t, []string{"g"}, RequiredHostGroups(ruleFor(t, ctx, "hive-site", "javax.jdo.option.ConnectionURL"),
		"javax.jdo.option.ConnectionURL", "jdbc:mysql://localhost/db", ctx))

	cluster = props{"hive-env": {"hive_database": "Existing MySQL Database"}}
	ctx = newContext(t, cluster, group("g", []string{"HIVE_METASTORE"}, "host1"))
	url := "jdbc:mysql://db.external.com:3306/hive"
	assert.Equal(t, url, mustCreate(t, ctx, "hive-site", "javax.jdo.option.ConnectionURL", url))
	assert.True(t, exportOf(t, ctx, "hive-site", "javax.jdo.option.ConnectionURL", url).Removed)
	assert.Empty(t, RequiredHostGroups(ruleFor(t, ctx, "hive-site", "javax.jdo.option.ConnectionURL"),
		"javax.jdo.option.ConnectionURL", "jdbc:mysql://localhost/hive", ctx))
}

func TestTempletonHiveProperties(t *testing.T) {
	ctx := newContext(t, nil,
		group("g1", []string{"HIVE_METASTORE"}, "m1"),
		group("g2", []string{"HIVE_METASTORE"}, "m2"))

	value := "hive.metastore.local=false,hive.metastore.uris=thrift://localhost:9083,hive.metastore.sasl.enabled=false"
	created := mustCreate(t, ctx, "webhcat-site", "templeton.hive.properties", value)
	assert.Equal(t, `hive.metastore.local=false,hive.metastore.uris=thrift://m1:9083\,thrift://m2:9083,hive.metastore.sasl.enabled=false`, created)

	exported := exportOf(t, ctx, "webhcat-site", "templeton.hive.properties", created)
	assert.Equal(t, `hive.metastore.local=false,hive.metastore.uris=thrift://%HOSTGROUP::g1%:9083\,thrift://%HOSTGROUP::g2%:9083,hive.metastore.sasl.enabled=false`, exported.Value)

	assert.Equal(t, []string{"g1", "g2"}, RequiredHostGroups(ruleFor(t, ctx, "webhcat-site", "templeton.hive.properties"),
		"templeton.hive.properties", value, ctx))
}

func TestUnitAndBindAll(t *testing.T) {
	ctx := newContext(t, nil, group("g", []string{"METRICS_COLLECTOR"}, "ams1"))

	assert.Equal(t, "1024m", mustCreate(t, ctx, "hadoop-env", "namenode_heapsize", "1024"))
	assert.Equal(t, "2048m", mustCreate(t, ctx, "hadoop-env", "namenode_heapsize", "2048m"))
	assert.Equal(t, "", mustCreate(t, ctx, "zookeeper-env", "zk_server_heapsize", ""))

	assert.Equal(t, "0.0.0.0:6188", mustCreate(t, ctx, "ams-site", "timeline.metrics.service.webapp.address", "localhost:6188"))
	assert.Equal(t, "0.0.0.0:6188", mustCreate(t, ctx, "ams-site", "timeline.metrics.service.webapp.address", "0.0.0.0:6188"))
	assert.Equal(t, Outcome{Value: "0.0.0.0:6188"}, exportOf(t, ctx, "ams-site", "timeline.metrics.service.webapp.address", "0.0.0.0:6188"))
}

func TestAtlasAndMetricsReporters(t *testing.T) {
	ctx := newContext(t, props{"application-properties": {"atlas.enableTLS": "true", "atlas.server.https.port": "443"}},
		group("g", []string{"ATLAS_SERVER", "METRICS_COLLECTOR"}, "atlas1"))

	assert.Equal(t, atlasHookClass, mustCreate(t, ctx, "hive-site", "hive.exec.post.hooks", ""))
	assert.Equal(t, "foo,"+atlasHookClass, mustCreate(t, ctx, "hive-site", "hive.exec.post.hooks", "foo"))
	assert.Equal(t, "1", mustCreate(t, ctx, "hive-site", "atlas.cluster.name", "primary"))
	assert.Equal(t, "mine", mustCreate(t, ctx, "hive-site", "atlas.cluster.name", "mine"))
	assert.Equal(t, "primary", exportOf(t, ctx, "hive-site", "atlas.cluster.name", "1").Value)
	assert.Equal(t, "https://atlas1:443", mustCreate(t, ctx, "hive-site", "atlas.rest.address", ""))

	kafka := "org.apache.hadoop.metrics2.sink.kafka.KafkaTimelineMetricsReporter"
	assert.Equal(t, kafka, mustCreate(t, ctx, "kafka-broker", "kafka.metrics.reporters", ""))
	assert.Equal(t, "a,"+kafka, mustCreate(t, ctx, "kafka-broker", "kafka.metrics.reporters", "a"))
	assert.Equal(t, "a,"+kafka, mustCreate(t, ctx, "kafka-broker", "kafka.metrics.reporters", "a,"+kafka))
	assert.Equal(t, "x", mustCreate(t, ctx, "storm-site", "metrics.reporter.register", "x"))

	ctx = newContext(t, nil, group("g", []string{"HIVE_METASTORE"}, "host1"))
	assert.Equal(t, "foo", mustCreate(t, ctx, "hive-site", "hive.exec.post.hooks", "foo,"+atlasHookClass))
	assert.Equal(t, " ", mustCreate(t, ctx, "hive-site", "hive.exec.post.hooks", atlasHookClass))
	assert.Equal(t, "primary", mustCreate(t, ctx, "hive-site", "atlas.cluster.name", "primary"))
	assert.Equal(t, "", mustCreate(t, ctx, "kafka-broker", "kafka.metrics.reporters", ""))
}

func TestNameServicePassThrough(t *testing.T) {
	cluster := props{"hdfs-site": {"dfs.nameservices": "mycluster", "dfs.ha.namenodes.mycluster": "nn1,nn2"}}
	ctx := newContext(t, cluster,
		group("g1", []string{"NAMENODE"}, "host1"),
		group("g2", []string{"NAMENODE", "SECONDARY_NAMENODE"}, "host2"))

	assert.Equal(t, "hdfs://mycluster", mustCreate(t, ctx, "core-site", "fs.defaultFS", "hdfs://mycluster"))
	assert.Equal(t, Outcome{Value: "hdfs://mycluster"}, exportOf(t, ctx, "core-site", "fs.defaultFS", "hdfs://mycluster"))
	assert.Equal(t, "hdfs://localhost:8020", mustCreate(t, ctx, "core-site", "fs.defaultFS", "hdfs://localhost:8020"))
	assert.Equal(t, "%HOSTGROUP::g1%:50070",
		exportOf(t, ctx, "hdfs-site", "dfs.namenode.http-address.mycluster.nn1", "host1:50070").Value)
}

func TestRegistry_DynamicFamilies(t *testing.T) {
	reg := DefaultRegistry()
	plain := newContext(t, nil)
	assert.Nil(t, reg.Lookup("hdfs-site", "dfs.namenode.http-address.mycluster.nn1", plain))
	assert.Nil(t, reg.Lookup("yarn-site", "yarn.resourcemanager.hostname.rm1", plain))
	assert.Nil(t, reg.Lookup("oozie-site", "oozie.zookeeper.connection.string", plain))
	assert.Nil(t, reg.Lookup("hdfs-site", "dfs.replication", plain))

	ha := newContext(t, props{
		"hdfs-site":  {"dfs.nameservices": "mycluster", "dfs.ha.namenodes.mycluster": "nn1,nn2"},
		"yarn-site":  {"yarn.resourcemanager.ha.enabled": "true", "yarn.resourcemanager.ha.rm-ids": "rm1,rm2"},
		"oozie-site": {"oozie.services.ext": "org.apache.oozie.service.ZKLocksService"},
	})
	r := reg.Lookup("hdfs-site", "dfs.namenode.rpc-address.mycluster.nn2", ha)
	require.NotNil(t, r)
	assert.Equal(t, KindSingleHost, r.Kind)
	assert.Equal(t, "NAMENODE", r.Component)
	assert.Nil(t, reg.Lookup("hdfs-site", "dfs.namenode.rpc-address.mycluster.nn3", ha))
	assert.Nil(t, reg.Lookup("hdfs-site", "dfs.namenode.rpc-address.other.nn1", ha))

	r = reg.Lookup("yarn-site", "yarn.resourcemanager.webapp.https.address.rm2", ha)
	require.NotNil(t, r)
	assert.Equal(t, "RESOURCEMANAGER", r.Component)
	assert.Nil(t, reg.Lookup("yarn-site", "yarn.resourcemanager.hostname.rm3", ha))

	r = reg.Lookup("oozie-site", "oozie.zookeeper.connection.string", ha)
	require.NotNil(t, r)
	assert.Equal(t, KindMultiHost, r.Kind)
}

func TestRegistry_OozieDatabase(t *testing.T) {
	reg := DefaultRegistry()
	groups := []*topology.HostGroup{group("g", []string{"OOZIE_SERVER"}, "oozie1")}

	external := newContext(t, props{"oozie-site": {"oozie.service.JPAService.jdbc.url": "jdbc:mysql://db.external.com/oozie"}}, groups...)
	assert.Equal(t, KindExternal, reg.Lookup("oozie-env", "oozie_existing_mysql_host", external).Kind)
	assert.True(t, exportOf(t, external, "oozie-env", "oozie_existing_mysql_host", "db.external.com").Removed)

	managed := newContext(t, props{"oozie-site": {"oozie.service.JPAService.jdbc.url": "jdbc:mysql://oozie1/oozie"}}, groups...)
	assert.Equal(t, KindSingleHost, reg.Lookup("oozie-env", "oozie_existing_mysql_host", managed).Kind)
	assert.Equal(t, "%HOSTGROUP::g%", exportOf(t, managed, "oozie-env", "oozie_existing_mysql_host", "oozie1").Value)

	placeholder := newContext(t, props{"oozie-site": {"oozie.service.JPAService.jdbc.url": "jdbc:mysql://%HOSTGROUP::g%/oozie"}}, groups...)
	assert.Equal(t, KindSingleHost, reg.Lookup("oozie-site", "oozie.service.JPAService.jdbc.url", placeholder).Kind)
}

func TestRequiredHostGroups(t *testing.T) {
	ctx := newContext(t, nil,
		group("g1", []string{"ZOOKEEPER_SERVER"}, "zk1"),
		group("g2", []string{"ZOOKEEPER_SERVER", "RESOURCEMANAGER"}, "zk2"))

	zk := ruleFor(t, ctx, "core-site", "ha.zookeeper.quorum")
	assert.Equal(t, []string{"g1", "g2"}, RequiredHostGroups(zk, "ha.zookeeper.quorum", "localhost:2181", ctx))
	assert.Equal(t, []string{"g2", "other"}, RequiredHostGroups(zk, "ha.zookeeper.quorum", "%HOSTGROUP::g2%:2181,%HOSTGROUP::other%:2181", ctx))
	assert.Empty(t, RequiredHostGroups(zk, "ha.zookeeper.quorum", "zk.external.com:2181", ctx))

	rm := ruleFor(t, ctx, "yarn-site", "yarn.resourcemanager.hostname")
	assert.Equal(t, []string{"g2"}, RequiredHostGroups(rm, "yarn.resourcemanager.hostname", "localhost", ctx))

	unit := ruleFor(t, ctx, "hadoop-env", "namenode_heapsize")
	assert.Empty(t, RequiredHostGroups(unit, "namenode_heapsize", "1024", ctx))
}

func TestPlacementError_Message(t *testing.T) {
	err := &PlacementError{ConfigType: "yarn-site", Property: "yarn.resourcemanager.hostname", Component: "RESOURCEMANAGER", Count: 2, Err: ErrAmbiguousPlacement}
	assert.Contains(t, err.Error(), "yarn-site/yarn.resourcemanager.hostname")
	assert.Contains(t, err.Error(), "'2'")

	err = &PlacementError{ConfigType: "a", Property: "b", HostGroup: "g", Err: ErrUnknownHostGroup}
	assert.Contains(t, err.Error(), "host group 'g'")
}
