package http

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Scope decides which URLs the front-end may fetch. A URL must match at
// least one allow pattern and no deny pattern. Patterns are matched part by
// part: the scheme exactly, the host (with port) where "*" never crosses a
// "/", and the path plus query where "*" matches anything.
type Scope struct {
	allow []urlPattern
	deny  []urlPattern
}

type urlPattern struct {
	scheme string
	host   *regexp.Regexp
	path   *regexp.Regexp
}

func NewScope(allow, deny []string) (*Scope, error) {
	s := &Scope{}
	for _, p := range allow {
		up, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		s.allow = append(s.allow, up)
	}
	for _, p := range deny {
		up, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		s.deny = append(s.deny, up)
	}
	return s, nil
}

func (s *Scope) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || u.User != nil {
		return false
	}

	for _, p := range s.deny {
		if p.matches(u) {
			return false
		}
	}
	for _, p := range s.allow {
		if p.matches(u) {
			return true
		}
	}
	return false
}

func (p urlPattern) matches(u *url.URL) bool {
	if !strings.EqualFold(p.scheme, u.Scheme) {
		return false
	}
	if !p.host.MatchString(strings.ToLower(u.Host)) {
		return false
	}

	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return p.path.MatchString(target)
}

func compilePattern(pattern string) (urlPattern, error) {
	scheme, rest, ok := strings.Cut(pattern, "://")
	if !ok || scheme == "" {
		return urlPattern{}, fmt.Errorf("url pattern %q: missing scheme", pattern)
	}

	host, path := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		host, path = rest[:i], rest[i:]
	}
	if host == "" {
		return urlPattern{}, fmt.Errorf("url pattern %q: missing host", pattern)
	}

	hostRe, err := wildcard(strings.ToLower(host), "[^/]*")
	if err != nil {
		return urlPattern{}, err
	}

	// a bare origin matches its root only
	if path == "" {
		path = "/"
	}
	pathRe, err := wildcard(path, ".*")
	if err != nil {
		return urlPattern{}, err
	}
	if path == "/" {
		pathRe = regexp.MustCompile(`^/?$`)
	}

	return urlPattern{scheme: scheme, host: hostRe, path: pathRe}, nil
}

func wildcard(pattern, star string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(parts, star) + "$")
}
