package global

const (
	COMPONENT_NAMENODE           = "NAMENODE"
	COMPONENT_SECONDARY_NAMENODE = "SECONDARY_NAMENODE"
	COMPONENT_JOURNALNODE        = "JOURNALNODE"
	COMPONENT_DATANODE           = "DATANODE"

	COMPONENT_RESOURCEMANAGER     = "RESOURCEMANAGER"
	COMPONENT_HISTORYSERVER       = "HISTORYSERVER"
	COMPONENT_APP_TIMELINE_SERVER = "APP_TIMELINE_SERVER"
	COMPONENT_JOBTRACKER          = "JOBTRACKER"

	COMPONENT_ZOOKEEPER_SERVER = "ZOOKEEPER_SERVER"

	COMPONENT_HBASE_MASTER = "HBASE_MASTER"

	COMPONENT_HIVE_SERVER             = "HIVE_SERVER"
	COMPONENT_HIVE_SERVER2            = "HIVE_SERVER2"
	COMPONENT_HIVE_METASTORE          = "HIVE_METASTORE"
	COMPONENT_HIVE_SERVER_INTERACTIVE = "HIVE_SERVER_INTERACTIVE"
	COMPONENT_WEBHCAT_SERVER          = "WEBHCAT_SERVER"
	COMPONENT_MYSQL_SERVER            = "MYSQL_SERVER"

	COMPONENT_OOZIE_SERVER = "OOZIE_SERVER"

	COMPONENT_NIMBUS          = "NIMBUS"
	COMPONENT_SUPERVISOR      = "SUPERVISOR"
	COMPONENT_DRPC_SERVER     = "DRPC_SERVER"
	COMPONENT_STORM_UI_SERVER = "STORM_UI_SERVER"

	COMPONENT_GANGLIA_SERVER    = "GANGLIA_SERVER"
	COMPONENT_METRICS_COLLECTOR = "METRICS_COLLECTOR"
	COMPONENT_FALCON_SERVER     = "FALCON_SERVER"
	COMPONENT_KAFKA_BROKER      = "KAFKA_BROKER"
	COMPONENT_KNOX_GATEWAY      = "KNOX_GATEWAY"
	COMPONENT_ATLAS_SERVER      = "ATLAS_SERVER"
	COMPONENT_RANGER_ADMIN      = "RANGER_ADMIN"
	COMPONENT_RANGER_KMS_SERVER = "RANGER_KMS_SERVER"
	COMPONENT_HAWQMASTER        = "HAWQMASTER"
	COMPONENT_HAWQSTANDBY       = "HAWQSTANDBY"

	SERVICE_HDFS           = "HDFS"
	SERVICE_HIVE           = "HIVE"
	SERVICE_HBASE          = "HBASE"
	SERVICE_OOZIE          = "OOZIE"
	SERVICE_FALCON         = "FALCON"
	SERVICE_ATLAS          = "ATLAS"
	SERVICE_AMBARI_METRICS = "AMBARI_METRICS"

	CONFIG_CLUSTER_ENV  = "cluster-env"
	CONFIG_CORE_SITE    = "core-site"
	CONFIG_HDFS_SITE    = "hdfs-site"
	CONFIG_HADOOP_ENV   = "hadoop-env"
	CONFIG_YARN_SITE    = "yarn-site"
	CONFIG_HBASE_SITE   = "hbase-site"
	CONFIG_HIVE_SITE    = "hive-site"
	CONFIG_HIVE_ENV     = "hive-env"
	CONFIG_OOZIE_SITE   = "oozie-site"
	CONFIG_OOZIE_ENV    = "oozie-env"
	CONFIG_HAWQ_SITE    = "hawq-site"
	CONFIG_KERBEROS_ENV = "kerberos-env"
	CONFIG_KRB5_CONF    = "krb5-conf"

	HOSTGROUP_TOKEN_PREFIX = "%HOSTGROUP::"
	HOSTGROUP_TOKEN_SUFFIX = "%"
	LOCALHOST              = "localhost"
	BIND_ALL_IP_ADDRESS    = "0.0.0.0"
)
