// Package details models the metadata payload returned by the details API
// and the query that selects it.
package details

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

type Site struct {
	ID   int    `json:"siteID"`
	Code string `json:"site"`
}

type Currency struct {
	Code        string `json:"currency"`
	Description string `json:"description,omitempty"`
}

type Country struct {
	Code        string `json:"country"`
	Description string `json:"description,omitempty"`
}

type ShippingLocation struct {
	Code        string `json:"shippingLocation"`
	Description string `json:"description,omitempty"`
}

type ShippingService struct {
	ID            int    `json:"shippingServiceID"`
	Name          string `json:"shippingService"`
	Description   string `json:"description,omitempty"`
	Carrier       string `json:"shippingCarrier,omitempty"`
	International bool   `json:"internationalService,omitempty"`
}

type PolicyOption struct {
	Value       string `json:"option"`
	Description string `json:"description,omitempty"`
}

type ReturnPolicy struct {
	ReturnsAccepted    []PolicyOption `json:"returnsAccepted,omitempty"`
	ReturnsWithin      []PolicyOption `json:"returnsWithin,omitempty"`
	Refund             []PolicyOption `json:"refund,omitempty"`
	ShippingCostPaidBy []PolicyOption `json:"shippingCostPaidBy,omitempty"`
}

// Details is one details API response. Sections without a dedicated field
// are kept verbatim in Extra, keyed by their JSON name.
type Details struct {
	UpdateTime        time.Time          `json:"updateTime"`
	Version           string             `json:"version,omitempty"`
	Sites             []Site             `json:"siteDetails,omitempty"`
	Currencies        []Currency         `json:"currencyDetails,omitempty"`
	Countries         []Country          `json:"countryDetails,omitempty"`
	ShippingLocations []ShippingLocation `json:"shippingLocationDetails,omitempty"`
	ShippingServices  []ShippingService  `json:"shippingServiceDetails,omitempty"`
	ReturnPolicy      *ReturnPolicy      `json:"returnPolicyDetails,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownKeys = map[string]struct{}{
	"updateTime":              {},
	"version":                 {},
	"siteDetails":             {},
	"currencyDetails":         {},
	"countryDetails":          {},
	"shippingLocationDetails": {},
	"shippingServiceDetails":  {},
	"returnPolicyDetails":     {},
}

// UpdatedAt is the server-side last update time of the payload.
func (d Details) UpdatedAt() time.Time { return d.UpdateTime }

type detailsAlias Details

func (d *Details) UnmarshalJSON(b []byte) error {
	var a detailsAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for k, v := range all {
		if _, known := knownKeys[k]; known || !strings.HasSuffix(k, "Details") {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[k] = v
	}
	*d = Details(a)
	return nil
}

func (d Details) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(detailsAlias(d))
	if err != nil || len(d.Extra) == 0 {
		return base, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, known := knownKeys[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// SectionCount is one row of Summary.
type SectionCount struct {
	Section string
	Count   int
}

// Summary counts the entries of every non-empty section.
func (d Details) Summary() []SectionCount {
	var out []SectionCount
	add := func(name string, n int) {
		if n > 0 {
			out = append(out, SectionCount{Section: name, Count: n})
		}
	}
	add(string(SiteDetails), len(d.Sites))
	add(string(CurrencyDetails), len(d.Currencies))
	add(string(CountryDetails), len(d.Countries))
	add(string(ShippingLocationDetails), len(d.ShippingLocations))
	add(string(ShippingServiceDetails), len(d.ShippingServices))
	if rp := d.ReturnPolicy; rp != nil {
		add(string(ReturnPolicyDetails), len(rp.ReturnsAccepted)+len(rp.ReturnsWithin)+len(rp.Refund)+len(rp.ShippingCostPaidBy))
	}
	for _, k := range sortedKeys(d.Extra) {
		var items []json.RawMessage
		if err := json.Unmarshal(d.Extra[k], &items); err == nil {
			add(exportName(k), len(items))
		} else {
			add(exportName(k), 1)
		}
	}
	return out
}

func exportName(jsonKey string) string {
	if jsonKey == "" {
		return jsonKey
	}
	return strings.ToUpper(jsonKey[:1]) + jsonKey[1:]
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
