package directory

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed directories.yaml
var embeddedDefinitions []byte

// PathMapping routes a URL path prefix to a slug in local development.
type PathMapping struct {
	Prefix string `yaml:"prefix"`
	Slug   string `yaml:"slug"`
}

// Definitions is the on-disk shape of the directory definitions file.
type Definitions struct {
	Directories []DirectoryConfig `yaml:"directories"`
	DevPaths    []PathMapping     `yaml:"dev_paths"`
}

// Parse decodes YAML directory definitions. Unknown keys are rejected.
func Parse(r io.Reader) (Definitions, error) {
	var defs Definitions
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		if errors.Is(err, io.EOF) {
			return Definitions{}, nil
		}
		return Definitions{}, fmt.Errorf("parse directory definitions: %w", err)
	}
	return defs, nil
}

// Embedded returns the definitions compiled into the binary.
func Embedded() (Definitions, error) {
	return Parse(strings.NewReader(string(embeddedDefinitions)))
}

// LoadFile reads definitions from path.
func LoadFile(path string) (Definitions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definitions{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Registry is the immutable slug → DirectoryConfig table plus the hostname
// mapping derived from each config's Hosts.
type Registry struct {
	bySlug      map[string]DirectoryConfig
	byHost      map[string]string
	order       []string
	defaultSlug string
	fallback    DirectoryConfig
}

// NewRegistry validates configs and indexes them by slug and host. The
// fallback returned for unknown slugs is the defaultSlug config, or
// GenericConfig(defaultSlug) when that slug is not defined.
func NewRegistry(configs []DirectoryConfig, defaultSlug string) (*Registry, error) {
	defaultSlug = NormalizeSlug(defaultSlug)
	if defaultSlug == "" {
		return nil, errors.New("directory: default slug is required")
	}
	r := &Registry{
		bySlug:      make(map[string]DirectoryConfig, len(configs)),
		byHost:      make(map[string]string),
		defaultSlug: defaultSlug,
	}
	for i, cfg := range configs {
		cfg.Slug = NormalizeSlug(cfg.Slug)
		if cfg.Slug == "" {
			return nil, fmt.Errorf("directory: entry %d has no slug", i)
		}
		if _, dup := r.bySlug[cfg.Slug]; dup {
			return nil, fmt.Errorf("directory: duplicate slug %q", cfg.Slug)
		}
		hosts := make([]string, 0, len(cfg.Hosts))
		for _, h := range cfg.Hosts {
			host := NormalizeHost(h)
			if host == "" {
				continue
			}
			if owner, dup := r.byHost[host]; dup {
				return nil, fmt.Errorf("directory: host %q mapped to both %q and %q", host, owner, cfg.Slug)
			}
			r.byHost[host] = cfg.Slug
			hosts = append(hosts, host)
		}
		cfg.Hosts = hosts
		r.bySlug[cfg.Slug] = cfg.withDefaults()
		r.order = append(r.order, cfg.Slug)
	}
	if cfg, ok := r.bySlug[defaultSlug]; ok {
		r.fallback = cfg
	} else {
		r.fallback = GenericConfig(defaultSlug)
	}
	return r, nil
}

// DefaultSlug returns the slug used when nothing else matches.
func (r *Registry) DefaultSlug() string {
	return r.defaultSlug
}

// Lookup returns the config for an exact slug match.
func (r *Registry) Lookup(slug string) (DirectoryConfig, bool) {
	cfg, ok := r.bySlug[NormalizeSlug(slug)]
	return cfg, ok
}

// Config returns the config for slug, degrading to the fallback config for
// unknown slugs. It never returns a zero value.
func (r *Registry) Config(slug string) DirectoryConfig {
	if cfg, ok := r.Lookup(slug); ok {
		return cfg
	}
	return r.fallback
}

// Fallback returns the config served for unrecognized slugs.
func (r *Registry) Fallback() DirectoryConfig {
	return r.fallback
}

// SlugForHost maps a request host to a slug. Ports and a leading "www." are
// ignored.
func (r *Registry) SlugForHost(host string) (string, bool) {
	slug, ok := r.byHost[NormalizeHost(host)]
	return slug, ok
}

// All returns configs in definition order.
func (r *Registry) All() []DirectoryConfig {
	out := make([]DirectoryConfig, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}

// NormalizeSlug lowercases and trims a slug.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeHost lowercases host, drops any port and a leading "www.".
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if strings.HasPrefix(host, "[") {
		// IPv6 literal
		if end := strings.Index(host, "]"); end > 0 {
			return host[:end+1]
		}
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
