package core

import "strings"

// Path is a file location, optionally on a remote host.
type Path struct {
	User string
	Host string
	File string
}

// ParsePath parses [user@][host:]path.
// A user without a host is treated as part of the file name.
func ParsePath(s string) Path {
	var p Path
	rest := s
	if i := strings.Index(rest, ":"); i > 0 && !strings.Contains(rest[:i], "/") {
		host := rest[:i]
		rest = rest[i+1:]
		if j := strings.LastIndex(host, "@"); j >= 0 {
			p.User = host[:j]
			host = host[j+1:]
		}
		p.Host = host
	}
	p.File = rest
	return p
}

// Remote reports whether the path lives on another host.
func (p Path) Remote() bool {
	return p.Host != ""
}

func (p Path) String() string {
	var b strings.Builder
	if p.User != "" {
		b.WriteString(p.User)
		b.WriteByte('@')
	}
	if p.Host != "" {
		b.WriteString(p.Host)
		b.WriteByte(':')
	}
	b.WriteString(p.File)
	return b.String()
}
