package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeLevels() (*Configuration, *Configuration, *Configuration) {
	cluster := New(map[string]map[string]string{
		"core-site": {"fs.defaultFS": "hdfs://cluster:8020", "io.file.buffer.size": "131072"},
		"hdfs-site": {"dfs.replication": "3"},
	}, nil)
	bpGroup := NewWithParent(map[string]map[string]string{
		"hdfs-site": {"dfs.replication": "2"},
	}, nil, cluster)
	group := NewWithParent(map[string]map[string]string{
		"core-site": {"io.file.buffer.size": "65536"},
	}, nil, bpGroup)
	return cluster, bpGroup, group
}

func TestGet_WalksParents(t *testing.T) {
	_, _, group := threeLevels()

	v, ok := group.Get("core-site", "io.file.buffer.size")
	assert.True(t, ok)
	assert.Equal(t, "65536", v)

	v, ok = group.Get("hdfs-site", "dfs.replication")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	v, ok = group.Get("core-site", "fs.defaultFS")
	assert.True(t, ok)
	assert.Equal(t, "hdfs://cluster:8020", v)
}

func TestGet_UnknownTypeOrKey(t *testing.T) {
	_, _, group := threeLevels()

	_, ok := group.Get("no-such-type", "x")
	assert.False(t, ok)
	_, ok = group.Get("core-site", "missing")
	assert.False(t, ok)
}

func TestGet_PresentButEmpty(t *testing.T) {
	c := New(map[string]map[string]string{"t": {"k": ""}}, nil)
	v, ok := c.Get("t", "k")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestSet_OnlyTouchesOwnLayer(t *testing.T) {
	cluster, _, group := threeLevels()

	group.Set("hdfs-site", "dfs.replication", "1")

	assert.Equal(t, "1", group.Value("hdfs-site", "dfs.replication"))
	assert.Equal(t, "3", cluster.Value("hdfs-site", "dfs.replication"))
	assert.Equal(t, map[string]string{"dfs.replication": "1"}, group.Properties()["hdfs-site"])
}

func TestFullProperties_ChildWins(t *testing.T) {
	_, _, group := threeLevels()

	full := group.FullProperties()
	assert.Equal(t, "65536", full["core-site"]["io.file.buffer.size"])
	assert.Equal(t, "hdfs://cluster:8020", full["core-site"]["fs.defaultFS"])
	assert.Equal(t, "2", full["hdfs-site"]["dfs.replication"])

	full["core-site"]["fs.defaultFS"] = "mutated"
	assert.Equal(t, "hdfs://cluster:8020", group.Value("core-site", "fs.defaultFS"), "snapshot must be a copy")
}

func TestFullPropertiesDepth(t *testing.T) {
	_, _, group := threeLevels()

	two := group.FullPropertiesDepth(2)
	assert.Equal(t, "2", two["hdfs-site"]["dfs.replication"])
	_, ok := two["core-site"]["fs.defaultFS"]
	assert.False(t, ok)
}

func TestRemove_HidesInheritedValue(t *testing.T) {
	cluster, _, group := threeLevels()

	old, ok := group.Remove("core-site", "fs.defaultFS")
	assert.True(t, ok)
	assert.Equal(t, "hdfs://cluster:8020", old)

	_, ok = group.Get("core-site", "fs.defaultFS")
	assert.False(t, ok)
	_, ok = group.FullProperties()["core-site"]["fs.defaultFS"]
	assert.False(t, ok)
	assert.Equal(t, "hdfs://cluster:8020", cluster.Value("core-site", "fs.defaultFS"))

	group.Set("core-site", "fs.defaultFS", "hdfs://again:8020")
	assert.Equal(t, "hdfs://again:8020", group.Value("core-site", "fs.defaultFS"))
}

func TestDepth(t *testing.T) {
	cluster, bpGroup, group := threeLevels()

	assert.Equal(t, 1, cluster.Depth())
	assert.Equal(t, 2, bpGroup.Depth())
	assert.Equal(t, 3, group.Depth())
}

func TestFullAttributes(t *testing.T) {
	blueprint := New(nil, map[string]map[string]map[string]string{
		"hdfs-site": {"final": {"dfs.blocksize": "false"}},
	})
	cluster := NewWithParent(map[string]map[string]string{
		"hdfs-site": {"dfs.replication": "3", "dfs.blocksize": "134217728"},
	}, map[string]map[string]map[string]string{
		"hdfs-site": {"final": {"dfs.replication": "true"}},
	}, blueprint)
	group := NewWithParent(nil, nil, cluster)

	assert.Equal(t, map[string]string{"dfs.replication": "true", "dfs.blocksize": "false"},
		group.FullAttributes()["hdfs-site"]["final"])

	group.Remove("hdfs-site", "dfs.replication")
	assert.Equal(t, map[string]string{"dfs.blocksize": "false"}, group.FullAttributes()["hdfs-site"]["final"])
	assert.Equal(t, "true", cluster.FullAttributes()["hdfs-site"]["final"]["dfs.replication"], "parent keeps its attributes")

	cluster.Remove("hdfs-site", "dfs.replication")
	assert.NotContains(t, cluster.FullAttributes()["hdfs-site"]["final"], "dfs.replication")

	cluster.Set("hdfs-site", "dfs.replication", "2")
	assert.NotContains(t, cluster.FullAttributes()["hdfs-site"]["final"], "dfs.replication", "attributes are not restored by Set")
}

func TestSnapshotRestore(t *testing.T) {
	cluster, _, group := threeLevels()

	snap, err := cluster.Snapshot()
	require.NoError(t, err)

	cluster.Set("core-site", "fs.defaultFS", "hdfs://changed:8020")
	cluster.Remove("hdfs-site", "dfs.replication")
	cluster.Restore(snap)

	assert.Equal(t, "hdfs://cluster:8020", cluster.Value("core-site", "fs.defaultFS"))
	assert.Equal(t, "3", cluster.Value("hdfs-site", "dfs.replication"))
	assert.Equal(t, "hdfs://cluster:8020", group.Value("core-site", "fs.defaultFS"), "children share the restored layer")
}
