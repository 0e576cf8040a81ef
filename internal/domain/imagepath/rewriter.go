package imagepath

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultPrefixes are the directory prefixes legacy paths were stored under.
var DefaultPrefixes = []string{"/images/projects/", "/images/"}

// Rewriter turns legacy "[prj<n>]<name>.<ext>" image paths into "prj<n>-<name>.<ext>".
//
// The prefix is optional, so a bare legacy file name is rewritten too. Query
// strings are kept. Anything that does not match is returned as is, which makes
// Rewrite idempotent: its output always starts with "prj", never with a prefix
// or a bracket.
type Rewriter struct {
	re       *regexp.Regexp
	prefixes []string
}

func NewRewriter(prefixes ...string) (*Rewriter, error) {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}

	cleaned := make([]string, 0, len(prefixes))
	seen := make(map[string]bool, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		if strings.HasPrefix(p, "prj") {
			return nil, fmt.Errorf("prefix %q would collide with rewritten paths", p)
		}
		seen[p] = true
		cleaned = append(cleaned, p)
	}

	// longest first so "/images/projects/" wins over "/images/"
	sort.SliceStable(cleaned, func(i, j int) bool { return len(cleaned[i]) > len(cleaned[j]) })

	alt := make([]string, len(cleaned))
	for i, p := range cleaned {
		alt[i] = regexp.QuoteMeta(p)
	}

	prefix := ""
	if len(alt) > 0 {
		prefix = "(?:" + strings.Join(alt, "|") + ")?"
	}

	re, err := regexp.Compile(`^` + prefix + `\[prj(.*?)\](.*?\..+?)(\?.*)?$`)
	if err != nil {
		return nil, fmt.Errorf("compile legacy path pattern: %w", err)
	}

	return &Rewriter{re: re, prefixes: cleaned}, nil
}

// MustRewriter is NewRewriter for static prefix sets.
func MustRewriter(prefixes ...string) *Rewriter {
	r, err := NewRewriter(prefixes...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rewriter) Prefixes() []string {
	out := make([]string, len(r.prefixes))
	copy(out, r.prefixes)
	return out
}

// IsLegacy reports whether path is in the bracketed legacy form.
func (r *Rewriter) IsLegacy(path string) bool {
	return r.re.MatchString(path)
}

func (r *Rewriter) Rewrite(path string) string {
	m := r.re.FindStringSubmatch(path)
	if m == nil {
		return path
	}
	return "prj" + m[1] + "-" + m[2] + m[3]
}

var defaultRewriter = MustRewriter(DefaultPrefixes...)

// Normalize rewrites path with the default prefix set.
func Normalize(path string) string {
	return defaultRewriter.Rewrite(path)
}
