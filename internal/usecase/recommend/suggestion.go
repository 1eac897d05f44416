package recommend

import (
	"strings"

	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/textsim"
)

// Suggestion is one presented record.
type Suggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Reviews     string `json:"reviews"`
	Website     string `json:"website"`
	// Extras holds domain-specific fields: "category", or "cuisines" and "dietary".
	Extras    map[string]string `json:"extras"`
	Likes     int               `json:"likes"`
	Relevance float64           `json:"relevance"`
}

// Payload is the wire shape of a Response shared by /chat and tripmatectl:
// extras are flattened into each suggestion and the stage is left out.
type Payload struct {
	Response     string           `json:"response,omitempty"`
	Suggestions  []map[string]any `json:"suggestions"`
	TotalResults int              `json:"total_results"`
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
}

// Payload converts the response into its wire shape.
func (r Response) Payload() Payload {
	items := make([]map[string]any, len(r.Suggestions))
	for i, sg := range r.Suggestions {
		items[i] = sg.Flatten()
	}
	return Payload{
		Response:     r.Reply,
		Suggestions:  items,
		TotalResults: r.TotalResults,
		Offset:       r.Offset,
		Limit:        r.Limit,
	}
}

// Flatten returns the suggestion as one flat object with extras inlined.
func (s Suggestion) Flatten() map[string]any {
	item := map[string]any{
		"name":        s.Name,
		"description": s.Description,
		"address":     s.Address,
		"reviews":     s.Reviews,
		"website":     s.Website,
		"likes":       s.Likes,
		"relevance":   s.Relevance,
	}
	for k, v := range s.Extras {
		item[k] = v
	}
	return item
}

func shapeSuggestion(p profile.Profile, r *record.Record, rel float64) Suggestion {
	extras := make(map[string]string, len(p.Extras))
	for _, x := range p.Extras {
		var v string
		if x.Family != "" {
			v = strings.Join(r.Families[x.Family], ", ")
		} else {
			v = r.Attr(x.Column)
		}
		extras[x.Key] = orDefault(v, profile.NotSpecified)
	}

	return Suggestion{
		Name:        textsim.Title(r.Name),
		Description: orDefault(r.Attr(profile.ColumnDescription), profile.NoDescription),
		Address:     orDefault(composeAddress(r), profile.NotAvailable),
		Reviews:     orDefault(r.Attr(profile.ColumnReviews), profile.NotAvailable),
		Website:     orDefault(r.Attr(profile.ColumnWebsite), profile.NotAvailable),
		Extras:      extras,
		Likes:       r.Popularity,
		Relevance:   rel,
	}
}

func composeAddress(r *record.Record) string {
	parts := make([]string, 0, 3)
	for _, c := range []string{profile.ColumnAddress, profile.ColumnState, profile.ColumnCountry} {
		if v := r.Attr(c); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
