package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/textsim"
)

// DatasetSource configures the workbook backing one domain.
type DatasetSource struct {
	File       string
	NameColumn string
	Cities     map[string]string // city key -> sheet name
}

// Entry is one resolvable domain/city/sheet triple.
type Entry struct {
	Domain profile.Domain
	City   string
	Ref    record.DatasetRef
}

type catalogEntry struct {
	profile profile.Profile
	file    string
	cities  map[string]string
}

// Catalog maps (domain, city) onto a workbook sheet and the domain profile.
type Catalog struct {
	entries map[profile.Domain]catalogEntry
}

// NewCatalog validates sources and builds a Catalog. City keys are matched
// case-insensitively.
func NewCatalog(sources map[profile.Domain]DatasetSource) (*Catalog, error) {
	c := &Catalog{entries: make(map[profile.Domain]catalogEntry, len(sources))}
	for d, src := range sources {
		p, err := profile.For(d)
		if err != nil {
			return nil, err
		}
		if src.File == "" {
			return nil, fmt.Errorf("dataset %s: file is required", d)
		}
		cities := make(map[string]string, len(src.Cities))
		for city, sheet := range src.Cities {
			cities[strings.ToLower(strings.TrimSpace(city))] = sheet
		}
		c.entries[d] = catalogEntry{
			profile: p.WithNameColumn(src.NameColumn),
			file:    src.File,
			cities:  cities,
		}
	}
	return c, nil
}

// Profile returns the profile configured for a domain.
func (c *Catalog) Profile(d profile.Domain) (profile.Profile, bool) {
	e, ok := c.entries[d]
	return e.profile, ok
}

// Resolve returns the sheet holding a city's records for a domain.
func (c *Catalog) Resolve(d profile.Domain, city string) (record.DatasetRef, error) {
	e, ok := c.entries[d]
	if ok {
		if sheet, found := e.cities[strings.ToLower(strings.TrimSpace(city))]; found {
			return record.DatasetRef{File: e.file, Sheet: sheet}, nil
		}
	}
	return record.DatasetRef{}, domain.NewInputError(domain.ErrUnknownCity,
		fmt.Sprintf("No data available for %s %s.", textsim.Title(city), d))
}

// Files lists every configured workbook once.
func (c *Catalog) Files() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range c.entries {
		if !seen[e.file] {
			seen[e.file] = true
			out = append(out, e.file)
		}
	}
	sort.Strings(out)
	return out
}

// Entries lists every configured domain/city pair, sorted.
func (c *Catalog) Entries() []Entry {
	var out []Entry
	for d, e := range c.entries {
		for city, sheet := range e.cities {
			out = append(out, Entry{Domain: d, City: city, Ref: record.DatasetRef{File: e.file, Sheet: sheet}})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].City < out[j].City
	})
	return out
}
