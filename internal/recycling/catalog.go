package recycling

import (
	"sort"
	"strings"
)

// DefaultReminderMonths is the lead time after the reference date before a reminder fires.
const DefaultReminderMonths = 12

// PeriodKind distinguishes a fixed recycling period from "never" and from unknown certifications.
type PeriodKind int

const (
	PeriodUnknown PeriodKind = iota
	PeriodNone
	PeriodYears
)

// Period is the recycling period of a certification.
type Period struct {
	Kind  PeriodKind
	Years int
}

// CertificationType describes a canonical certification and its recycling period.
type CertificationType struct {
	Name              string `json:"name"`
	PeriodYears       *int   `json:"recycling_period_years"`
	RequiresRecycling bool   `json:"requires_recycling"`
}

// CatalogConfig is the raw reference data used to build a Catalog.
type CatalogConfig struct {
	// Periods maps canonical names to years; a nil value means no recycling is required.
	Periods        map[string]*int
	Aliases        map[string]string
	Order          []string
	ReminderMonths int
}

// Catalog is immutable certification reference data.
type Catalog struct {
	periods        map[string]Period
	aliases        map[string]string
	order          []string
	reminderMonths int
}

// NewCatalog copies cfg into an immutable catalog.
func NewCatalog(cfg CatalogConfig) *Catalog {
	c := &Catalog{
		periods:        make(map[string]Period, len(cfg.Periods)),
		aliases:        make(map[string]string, len(cfg.Aliases)),
		reminderMonths: cfg.ReminderMonths,
	}
	if c.reminderMonths <= 0 {
		c.reminderMonths = DefaultReminderMonths
	}
	for name, y := range cfg.Periods {
		if y == nil {
			c.periods[name] = Period{Kind: PeriodNone}
			continue
		}
		c.periods[name] = Period{Kind: PeriodYears, Years: *y}
	}
	for alias, canonical := range cfg.Aliases {
		c.aliases[alias] = canonical
	}
	seen := make(map[string]struct{}, len(cfg.Order))
	for _, name := range cfg.Order {
		if _, ok := c.periods[name]; !ok {
			continue
		}
		seen[name] = struct{}{}
		c.order = append(c.order, name)
	}
	var rest []string
	for name := range c.periods {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	c.order = append(c.order, rest...)
	return c
}

func years(n int) *int { return &n }

// DefaultCatalog returns the lifesaving certification catalog.
func DefaultCatalog() *Catalog {
	return DefaultCatalogWithReminder(DefaultReminderMonths)
}

// DefaultCatalogWithReminder returns the default catalog with a custom reminder lead time.
func DefaultCatalogWithReminder(reminderMonths int) *Catalog {
	return NewCatalog(CatalogConfig{
		Periods: map[string]*int{
			"Base Pool":      nil,
			"BLS-AED":        years(4),
			"Plus Pool":      years(2),
			"Pro Pool":       years(2),
			"Module Lac":     years(4),
			"Module Rivière": years(4),
			"Expert BLS-AED": years(2),
			"Expert Pool":    years(2),
			"Expert Lac":     years(4),
			"Expert Rivière": years(4),
		},
		Aliases: map[string]string{
			"BLS AED":        "BLS-AED",
			"Expert BLS AED": "Expert BLS-AED",
		},
		Order: []string{
			"Base Pool", "Plus Pool", "Pro Pool", "BLS-AED", "Module Lac", "Module Rivière",
			"Expert Pool", "Expert BLS-AED", "Expert Lac", "Expert Rivière",
		},
		ReminderMonths: reminderMonths,
	})
}

// Canonical resolves aliases on the trimmed title; used for period lookups.
func (c *Catalog) Canonical(title string) string {
	return strings.TrimSpace(c.ResolveName(title))
}

// ResolveName applies the alias table, returning title unchanged when no alias matches.
func (c *Catalog) ResolveName(title string) string {
	if canonical, ok := c.aliases[title]; ok {
		return canonical
	}
	if canonical, ok := c.aliases[strings.TrimSpace(title)]; ok {
		return canonical
	}
	return title
}

// Normalize returns the matching key used to compare certification titles across records.
func (c *Catalog) Normalize(title string) string {
	return strings.ToLower(strings.TrimSpace(c.ResolveName(title)))
}

// PeriodFor looks up the recycling period of a canonical name.
func (c *Catalog) PeriodFor(canonical string) Period {
	if p, ok := c.periods[canonical]; ok {
		return p
	}
	return Period{Kind: PeriodUnknown}
}

// ReminderMonths returns the reminder lead time.
func (c *Catalog) ReminderMonths() int {
	return c.reminderMonths
}

// Certifications lists the catalog in display order.
func (c *Catalog) Certifications() []CertificationType {
	out := make([]CertificationType, 0, len(c.order))
	for _, name := range c.order {
		p := c.periods[name]
		item := CertificationType{Name: name}
		if p.Kind == PeriodYears {
			item.PeriodYears = years(p.Years)
			item.RequiresRecycling = true
		}
		out = append(out, item)
	}
	return out
}
