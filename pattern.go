package relay

import (
	"fmt"
	"strings"
)

// Pattern is a compiled path template. A template is a sequence of literal
// segments and ":name" segments; each ":name" matches exactly one non-empty
// path segment and binds it under name. Matching requires the same segment
// count as the template, so there is no implicit wildcard or suffix match.
type Pattern struct {
	raw      string
	segments []patternSegment
	params   []string
}

type patternSegment struct {
	literal string
	param   string // non-empty for ":name" segments
}

// CompilePattern compiles a path template. The template must begin with '/'
// and may not bind the same parameter name twice.
func CompilePattern(pattern string) (*Pattern, error) {
	if len(pattern) == 0 || pattern[0] != '/' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	p := &Pattern{raw: pattern}
	seen := make(map[string]bool)
	for _, seg := range splitPath(pattern) {
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if name == "" {
				return nil, fmt.Errorf("%w: %q", ErrEmptyParam, pattern)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, name, pattern)
			}
			seen[name] = true
			p.segments = append(p.segments, patternSegment{param: name})
			p.params = append(p.params, name)
			continue
		}
		p.segments = append(p.segments, patternSegment{literal: seg})
	}
	return p, nil
}

// Match reports whether path matches the pattern and, on success, returns
// the bound parameters. The returned map is nil for patterns without
// parameters.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	segs := splitPath(path)
	if len(segs) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, want := range p.segments {
		got := segs[i]
		if want.param != "" {
			if got == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, len(p.params))
			}
			params[want.param] = got
			continue
		}
		if got != want.literal {
			return nil, false
		}
	}
	return params, true
}

// String returns the original template text.
func (p *Pattern) String() string { return p.raw }

// ParamNames returns the parameter names in template order.
func (p *Pattern) ParamNames() []string { return p.params }

// splitPath splits a rooted path into its segments. "/" yields no segments;
// a trailing slash yields a final empty segment, which only an identical
// trailing slash in the template can match.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
