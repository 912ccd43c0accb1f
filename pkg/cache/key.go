package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key builds a stable cache key: namespace followed by the non-empty fields in
// lexical key order, e.g. "attendance:stats:classId=c1:to=2024-05-31".
// Names and values are query-escaped, so a separator can only come from Key
// itself and distinct filters never collide.
func Key(namespace string, fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(namespace)
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(escape(name))
		b.WriteByte('=')
		b.WriteString(escape(fields[name]))
	}
	return b.String()
}

// Pattern returns the invalidation pattern covering every key in namespace.
func Pattern(namespace string) string {
	return namespace + "*"
}

// escape encodes ':', '=' and '*' along with '%', so a value cannot forge a
// separator or widen an invalidation pattern.
func escape(s string) string {
	return url.QueryEscape(s)
}
