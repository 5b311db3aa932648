package strategy

import (
	"regexp"
	"strings"

	"github.com/gzlj/hadoop-blueprint/pkg/global"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/topology"
	"github.com/gzlj/hadoop-blueprint/pkg/infra/util"
)

var (
	hostGroupPortRegex = regexp.MustCompile(`%HOSTGROUP::(\S+?)%:?(\d+)?`)
	hostGroupRegex     = regexp.MustCompile(`%HOSTGROUP::(\S+?)%`)
	localhostPortRegex = regexp.MustCompile(`localhost:?(\d+)?`)
	templateRegex      = regexp.MustCompile(`\{\{.*\}\}`)

	flowListRegex   = regexp.MustCompile(`^\s*\[(.*)\]\s*$`)
	flowQuotedRegex = regexp.MustCompile(`^\s*'(.*)'\s*$`)
)

// Token returns the placeholder standing for a host of the named host group.
func Token(hostGroup string) string {
	return global.HOSTGROUP_TOKEN_PREFIX + hostGroup + global.HOSTGROUP_TOKEN_SUFFIX
}

// HostGroupNames returns the distinct host group names referenced by placeholders in value.
func HostGroupNames(value string) []string {
	var names []string
	for _, m := range hostGroupRegex.FindAllStringSubmatch(value, -1) {
		names = append(names, m[1])
	}
	return util.RemoveDuplicate(names)
}

func isHostChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	c := s[i-1]
	return !isHostChar(c) && c != '.'
}

// A dot followed by a host character continues the name: "h1" does not match
// inside "h1.example.com".
func boundaryAfter(s string, j int) bool {
	if j == len(s) {
		return true
	}
	c := s[j]
	if c == '.' {
		return j+1 == len(s) || !isHostChar(s[j+1])
	}
	return !isHostChar(c)
}

// replaceHosts substitutes every assigned host found in value with the placeholder of
// the host group owning it. Placeholders already present are copied verbatim. The
// boolean reports whether any host was substituted.
func replaceHosts(value string, topo *topology.ClusterTopology) (string, bool) {
	if topo == nil || value == "" {
		return value, false
	}
	hosts := topo.Hosts()
	var (
		b       strings.Builder
		matched bool
	)
	for i := 0; i < len(value); {
		if strings.HasPrefix(value[i:], global.HOSTGROUP_TOKEN_PREFIX) {
			rest := value[i+len(global.HOSTGROUP_TOKEN_PREFIX):]
			if end := strings.Index(rest, global.HOSTGROUP_TOKEN_SUFFIX); end >= 0 {
				n := len(global.HOSTGROUP_TOKEN_PREFIX) + end + len(global.HOSTGROUP_TOKEN_SUFFIX)
				b.WriteString(value[i : i+n])
				i += n
				continue
			}
		}
		found := false
		if boundaryBefore(value, i) {
			for _, h := range hosts {
				if strings.HasPrefix(value[i:], h) && boundaryAfter(value, i+len(h)) {
					group, _ := topo.HostGroupForHost(h)
					b.WriteString(Token(group))
					i += len(h)
					found, matched = true, true
					break
				}
			}
		}
		if !found {
			b.WriteByte(value[i])
			i++
		}
	}
	return b.String(), matched
}

// removePorts strips the port from every host and returns the first port seen.
// Hosts left identical are merged.
func removePorts(hosts []string) ([]string, string) {
	var port string
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if idx := strings.LastIndex(h, ":"); idx >= 0 {
			if port == "" {
				port = h[idx+1:]
			}
			h = h[:idx]
		}
		out = append(out, h)
	}
	return util.RemoveDuplicate(out), port
}

func detectFlow(value string) FlowStyle {
	if !flowListRegex.MatchString(value) {
		return FlowNone
	}
	if strings.Contains(value, "'") {
		return FlowSingleQuoted
	}
	return FlowPlain
}

// formatFlow renders a comma separated list as a YAML flow sequence.
func formatFlow(value string, flow FlowStyle) string {
	if m := flowListRegex.FindStringSubmatch(value); m != nil {
		value = m[1]
	}
	items := strings.Split(value, ",")
	for i, item := range items {
		if m := flowQuotedRegex.FindStringSubmatch(item); m != nil {
			item = m[1]
		}
		item = strings.TrimSpace(item)
		if flow == FlowSingleQuoted {
			item = "'" + item + "'"
		}
		items[i] = item
	}
	return "[" + strings.Join(items, ",") + "]"
}

type listToken struct {
	pre, key, post string
	placeholder    bool
}

// collapseHostGroups keeps one entry per host group placeholder (and port) in a list.
// When the last entry goes, its trailing text moves to the last kept entry so that a
// shared path such as "/mycluster" survives.
func collapseHostGroups(value, sep string) string {
	lead, trail, inner := "", "", value
	if m := flowListRegex.FindStringSubmatchIndex(value); m != nil {
		lead, inner, trail = value[:m[2]], value[m[2]:m[3]], value[m[3]:]
	}
	parts := strings.Split(inner, sep)
	if len(parts) < 2 {
		return value
	}
	seen := map[string]bool{}
	var kept []*listToken
	for i, part := range parts {
		tok := &listToken{key: part}
		if loc := hostGroupPortRegex.FindStringIndex(part); loc != nil {
			tok = &listToken{pre: part[:loc[0]], key: part[loc[0]:loc[1]], post: part[loc[1]:], placeholder: true}
		}
		if tok.placeholder && seen[tok.key] {
			if i == len(parts)-1 && len(kept) > 0 {
				if last := kept[len(kept)-1]; last.post != tok.post {
					last.post = tok.post
				}
			}
			continue
		}
		seen[tok.key] = true
		kept = append(kept, tok)
	}
	out := make([]string, 0, len(kept))
	for _, tok := range kept {
		out = append(out, tok.pre+tok.key+tok.post)
	}
	return lead + strings.Join(out, sep) + trail
}

// splitDBURL isolates the host segment of a URL: everything between "://" and the next
// '/', '?' or ';'. Values without a scheme are entirely host.
func splitDBURL(value string) (pre, host, post string) {
	idx := strings.Index(value, "://")
	if idx < 0 {
		return "", value, ""
	}
	pre, rest := value[:idx+3], value[idx+3:]
	end := strings.IndexAny(rest, "/?;")
	if end < 0 {
		return pre, rest, ""
	}
	return pre, rest[:end], rest[end:]
}

// splitUnescaped splits on sep unless it is preceded by a backslash.
func splitUnescaped(value string, sep byte) []string {
	var (
		parts []string
		start int
	)
	for i := 0; i < len(value); i++ {
		if value[i] == sep && (i == 0 || value[i-1] != '\\') {
			parts = append(parts, value[start:i])
			start = i + 1
		}
	}
	return append(parts, value[start:])
}

// IsNameServiceProperty reports whether the property may hold a nameservice instead of a host.
func IsNameServiceProperty(name string) bool {
	return NameServiceProperties[name]
}

// refersToNameService reports whether the authority of value is a declared nameservice.
func refersToNameService(value string, cluster map[string]map[string]string) bool {
	if !topology.IsNameNodeHAEnabled(cluster) {
		return false
	}
	authority := value
	if idx := strings.Index(authority, "://"); idx >= 0 {
		authority = authority[idx+3:]
	}
	if end := strings.IndexAny(authority, ":/"); end >= 0 {
		authority = authority[:end]
	}
	return util.ContainsString(topology.NameServices(cluster), authority)
}
