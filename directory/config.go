// Package directory holds the static per-tenant definitions of the platform
// and resolves which directory a request belongs to.
package directory

// DirectoryConfig drives one tenant's branding, metadata and data scope.
type DirectoryConfig struct {
	Slug          string     `yaml:"slug"`
	Title         string     `yaml:"title"`
	Tagline       string     `yaml:"tagline"`
	Description   string     `yaml:"description"`
	ParentSiteURL string     `yaml:"parent_site_url"` // linked from error pages
	Category      string     `yaml:"category"`
	Hosts         []string   `yaml:"hosts"`
	Theme         Theme      `yaml:"theme"`
	Typography    Typography `yaml:"typography"`
	Features      Features   `yaml:"features"`
}

// Theme is a named color palette.
type Theme struct {
	Name   string  `yaml:"name"`
	Colors Palette `yaml:"colors"`
}

// Palette holds CSS color values. The *Text fields are the contrast colors
// used on top of the matching background color.
type Palette struct {
	Primary       string `yaml:"primary"`
	Secondary     string `yaml:"secondary"`
	Accent        string `yaml:"accent"`
	PrimaryText   string `yaml:"primary_text"`
	SecondaryText string `yaml:"secondary_text"`
	AccentText    string `yaml:"accent_text"`
	Background    string `yaml:"background"`
	Text          string `yaml:"text"`
}

type Typography struct {
	FontFamily        string `yaml:"font_family"`
	HeadingFontFamily string `yaml:"heading_font_family"`
	BaseSize          string `yaml:"base_size"`
}

// Features toggles optional page sections.
type Features struct {
	Search  bool `yaml:"search"`
	Reviews bool `yaml:"reviews"`
	Map     bool `yaml:"map"`
	Booking bool `yaml:"booking"`
}

// GenericConfig is used when even the default slug has no definition.
func GenericConfig(slug string) DirectoryConfig {
	return DirectoryConfig{
		Slug:        slug,
		Title:       "Now Directories",
		Tagline:     "Find trusted local services near you",
		Description: "Local service directories.",
		Theme: Theme{
			Name: "default",
			Colors: Palette{
				Primary:       "#1f2937",
				Secondary:     "#4b5563",
				Accent:        "#2563eb",
				PrimaryText:   "#ffffff",
				SecondaryText: "#ffffff",
				AccentText:    "#ffffff",
				Background:    "#ffffff",
				Text:          "#111827",
			},
		},
		Typography: Typography{
			FontFamily:        "system-ui, sans-serif",
			HeadingFontFamily: "system-ui, sans-serif",
			BaseSize:          "16px",
		},
	}
}

// withDefaults fills empty theme and typography fields from GenericConfig so
// templates never render blank CSS values.
func (c DirectoryConfig) withDefaults() DirectoryConfig {
	g := GenericConfig(c.Slug)
	if c.Title == "" {
		c.Title = g.Title
	}
	if c.Theme.Name == "" {
		c.Theme.Name = g.Theme.Name
	}
	p, gp := &c.Theme.Colors, g.Theme.Colors
	fill(&p.Primary, gp.Primary)
	fill(&p.Secondary, gp.Secondary)
	fill(&p.Accent, gp.Accent)
	fill(&p.PrimaryText, gp.PrimaryText)
	fill(&p.SecondaryText, gp.SecondaryText)
	fill(&p.AccentText, gp.AccentText)
	fill(&p.Background, gp.Background)
	fill(&p.Text, gp.Text)
	fill(&c.Typography.FontFamily, g.Typography.FontFamily)
	fill(&c.Typography.HeadingFontFamily, c.Typography.FontFamily)
	fill(&c.Typography.BaseSize, g.Typography.BaseSize)
	return c
}

func fill(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
