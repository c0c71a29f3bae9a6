package directory

import (
	"sort"
	"strings"
)

// HeaderSlug carries the resolved slug on the request. Inbound values are
// only honored when the resolver trusts them.
const HeaderSlug = "x-directory-slug"

// Source records which rule produced a slug.
type Source string

const (
	SourceHeader  Source = "header"
	SourceHost    Source = "host"
	SourcePath    Source = "path"
	SourceDefault Source = "default"
)

// RequestInfo is the part of a request the resolver looks at.
type RequestInfo struct {
	Host     string
	Path     string
	Override string // value of HeaderSlug as received
}

// Resolution is the outcome of Resolve. Path is the request path with any
// development prefix removed.
type Resolution struct {
	Slug   string
	Source Source
	Path   string
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Development enables the path-prefix table.
	Development bool
	// TrustOverride honors HeaderSlug on inbound requests.
	TrustOverride bool
	// BaseDomain enables "<slug>.<BaseDomain>" hosts for defined slugs.
	BaseDomain string
	DevPaths   []PathMapping
}

// Resolver maps request metadata to a directory slug.
type Resolver struct {
	registry      *Registry
	development   bool
	trustOverride bool
	baseDomain    string
	devPaths      []PathMapping
}

// NewResolver builds a Resolver. Dev paths are matched longest prefix first.
func NewResolver(reg *Registry, opts ResolverOptions) *Resolver {
	paths := make([]PathMapping, 0, len(opts.DevPaths))
	for _, p := range opts.DevPaths {
		prefix := "/" + strings.Trim(p.Prefix, "/")
		if prefix == "/" || NormalizeSlug(p.Slug) == "" {
			continue
		}
		paths = append(paths, PathMapping{Prefix: prefix, Slug: NormalizeSlug(p.Slug)})
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return len(paths[i].Prefix) > len(paths[j].Prefix)
	})
	return &Resolver{
		registry:      reg,
		development:   opts.Development,
		trustOverride: opts.TrustOverride,
		baseDomain:    NormalizeHost(opts.BaseDomain),
		devPaths:      paths,
	}
}

// Resolve never fails: when no rule matches it returns the default slug.
func (r *Resolver) Resolve(req RequestInfo) Resolution {
	path := req.Path
	if path == "" {
		path = "/"
	}
	if r.trustOverride {
		if slug := NormalizeSlug(req.Override); slug != "" {
			// A development prefix is still stripped so the router sees the
			// same path as without the header.
			if r.development {
				if _, rest, ok := r.pathSlug(path); ok {
					path = rest
				}
			}
			return Resolution{Slug: slug, Source: SourceHeader, Path: path}
		}
	}
	if slug, ok := r.hostSlug(req.Host); ok {
		return Resolution{Slug: slug, Source: SourceHost, Path: path}
	}
	if r.development {
		if slug, rest, ok := r.pathSlug(path); ok {
			return Resolution{Slug: slug, Source: SourcePath, Path: rest}
		}
	}
	return Resolution{Slug: r.registry.DefaultSlug(), Source: SourceDefault, Path: path}
}

func (r *Resolver) hostSlug(host string) (string, bool) {
	if host == "" {
		return "", false
	}
	if slug, ok := r.registry.SlugForHost(host); ok {
		return slug, true
	}
	if r.baseDomain == "" {
		return "", false
	}
	h := NormalizeHost(host)
	sub, ok := strings.CutSuffix(h, "."+r.baseDomain)
	if !ok || sub == "" || strings.Contains(sub, ".") {
		return "", false
	}
	if _, defined := r.registry.Lookup(sub); !defined {
		return "", false
	}
	return sub, true
}

// pathSlug matches whole segments: "/notary" matches "/notary" and
// "/notary/x" but not "/notaryfindernow".
func (r *Resolver) pathSlug(path string) (slug, rest string, ok bool) {
	for _, m := range r.devPaths {
		if path == m.Prefix || path == m.Prefix+"/" {
			return m.Slug, "/", true
		}
		if strings.HasPrefix(path, m.Prefix+"/") {
			return m.Slug, path[len(m.Prefix):], true
		}
	}
	return "", "", false
}
