// Package profile describes how each point-of-interest domain is read,
// normalized, matched and presented. One engine serves all domains; the
// differences live here as data.
package profile

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tripmate/internal/domain"
)

// Domain is a point-of-interest category served by the engine.
type Domain string

const (
	// Attractions covers sights and activities.
	Attractions Domain = "attractions"
	// Hotels covers accommodation.
	Hotels Domain = "hotels"
	// Restaurants covers places to eat.
	Restaurants Domain = "restaurants"
)

// Domains lists every supported domain in a fixed order.
func Domains() []Domain {
	return []Domain{Attractions, Hotels, Restaurants}
}

// ParseDomain maps a request category onto a Domain.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Attractions, Hotels, Restaurants:
		return d, nil
	default:
		return "", domain.NewInputError(domain.ErrUnsupportedDomain, "Unsupported category: "+s)
	}
}

// Stage names one step of the match cascade.
type Stage string

// Match cascade stages.
const (
	StageExact     Stage = "exact"
	StageAttribute Stage = "attribute"
	StageName      Stage = "name"
	StageKeyword   Stage = "keyword"
	StageLocation  Stage = "location"
	StageCategory  Stage = "category"
	StageSemantic  Stage = "semantic"
	StageFuzzy     Stage = "fuzzy"
)

// Common sheet columns.
const (
	ColumnAddress     = "Address"
	ColumnState       = "State"
	ColumnCountry     = "Country"
	ColumnDescription = "Description"
	ColumnCategory    = "Category"
	ColumnReviews     = "Reviews"
	ColumnWebsite     = "Website"
)

// Family names.
const (
	FamilyCuisines      = "cuisines"
	FamilyDietary       = "dietary"
	FamilySubcategories = "subcategories"
)

// Placeholder texts for absent attributes.
const (
	NoDescription = "No description available"
	NotAvailable  = "Not available"
	NotSpecified  = "Not specified"
	NoResults     = "No results found"
)

// TextField is one component of a record's search text: either a plain
// column or every present column of a family.
type TextField struct {
	Column string
	Family string
}

// FamilySpec declares a numbered column family and its maximum width.
type FamilySpec struct {
	Name     string
	Prefix   string
	MaxWidth int
}

// Extra is a domain-specific suggestion field, read from a column or a family.
type Extra struct {
	Key    string
	Column string
	Family string
}

// Vocabulary holds the curated keyword lists used by the keyword filter stage.
type Vocabulary struct {
	CuisineFamily    string
	DietFamily       string
	NegativeCuisines []string
	Diets            []string
	Cuisines         []string
}

// Profile is the complete per-domain configuration.
type Profile struct {
	Domain     Domain
	NameColumn string
	TextFields []TextField
	Separator  string
	Families   []FamilySpec

	AttributeColumns  []string
	AttributeFamilies []string
	LocationPhrases   []string
	LocationColumns   []string
	Vocabulary        Vocabulary
	Stages            []Stage

	Extras   []Extra
	Greeting string
	Farewell string
}

// WithNameColumn returns a copy using a different name column. Datasets
// exported by other tools sometimes rename it.
func (p Profile) WithNameColumn(col string) Profile {
	if col == "" {
		return p
	}
	if len(p.TextFields) > 0 && p.TextFields[0].Column == p.NameColumn {
		fields := append([]TextField(nil), p.TextFields...)
		fields[0].Column = col
		p.TextFields = fields
	}
	p.NameColumn = col
	return p
}

// For returns the built-in profile of a domain.
func For(d Domain) (Profile, error) {
	switch d {
	case Restaurants:
		return restaurants(), nil
	case Hotels:
		return hotels(), nil
	case Attractions:
		return attractions(), nil
	default:
		return Profile{}, fmt.Errorf("profile for %q: %w", d, domain.ErrUnsupportedDomain)
	}
}

func restaurants() Profile {
	return Profile{
		Domain:     Restaurants,
		NameColumn: "Restaurant Name",
		TextFields: []TextField{
			{Column: "Restaurant Name"},
			{Column: ColumnDescription},
			{Column: ColumnCategory},
			{Family: FamilyCuisines},
			{Family: FamilyDietary},
		},
		Separator: " | ",
		Families: []FamilySpec{
			{Name: FamilyCuisines, Prefix: "Cuisines", MaxWidth: 9},
			{Name: FamilyDietary, Prefix: "Dietary Restrictions", MaxWidth: 4},
		},
		LocationPhrases: []string{
			"restaurants in", "restaurants near", "places to eat in",
			"restaurants around", "eateries in",
		},
		LocationColumns: []string{ColumnAddress, ColumnState},
		Vocabulary: Vocabulary{
			CuisineFamily: FamilyCuisines,
			DietFamily:    FamilyDietary,
			// Scanned in this order; the first "non-<cuisine>" hit wins.
			NegativeCuisines: []string{"chinese", "indian", "malay", "western", "arabic", "japanese", "thai"},
			// Longest first so "vegetarian-friendly" is preferred over "vegetarian".
			Diets: []string{"vegetarian-friendly", "gluten-free", "vegetarian", "kosher", "halal", "vegan"},
			Cuisines: []string{
				"sri lankan", "pakistani", "japanese", "european", "american", "mexican",
				"italian", "chinese", "spanish", "western", "arabic", "indian", "german",
				"malay", "asian", "thai",
			},
		},
		Stages: []Stage{
			StageExact, StageKeyword, StageLocation, StageCategory, StageSemantic, StageFuzzy,
		},
		Extras: []Extra{
			{Key: "cuisines", Family: FamilyCuisines},
			{Key: "dietary", Family: FamilyDietary},
		},
		Greeting: "Hello! How can I help you find restaurants?",
		Farewell: "Goodbye! Enjoy your food adventure!",
	}
}

func hotels() Profile {
	return Profile{
		Domain:     Hotels,
		NameColumn: "Hotel Name",
		TextFields: []TextField{
			{Column: "Hotel Name"},
			{Column: ColumnDescription},
			{Column: ColumnCategory},
			{Column: ColumnAddress},
		},
		Separator:        " | ",
		AttributeColumns: []string{ColumnAddress, ColumnState},
		Stages: []Stage{
			StageExact, StageAttribute, StageName, StageSemantic, StageFuzzy,
		},
		Extras:   []Extra{{Key: "category", Column: ColumnCategory}},
		Greeting: "Hello! How can I help you find hotels?",
		Farewell: "Goodbye! Hope you enjoy your trip!",
	}
}

func attractions() Profile {
	return Profile{
		Domain:     Attractions,
		NameColumn: "Attraction Name",
		TextFields: []TextField{
			{Column: ColumnCategory},
			{Family: FamilySubcategories},
			{Column: ColumnDescription},
		},
		Separator: " ",
		Families: []FamilySpec{
			{Name: FamilySubcategories, Prefix: "Subcategories", MaxWidth: 4},
		},
		AttributeColumns:  []string{ColumnCategory},
		AttributeFamilies: []string{FamilySubcategories},
		Stages: []Stage{
			StageExact, StageAttribute, StageSemantic, StageFuzzy,
		},
		Extras:   []Extra{{Key: "category", Column: ColumnCategory}},
		Greeting: "Hello! How can I help you find attractions?",
		Farewell: "Goodbye! Thank you for using the attractions guide! Have a great trip.",
	}
}
