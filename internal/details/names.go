package details

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

// Name selects one metadata section of the details API.
type Name string

const (
	SiteDetails             Name = "SiteDetails"
	CurrencyDetails         Name = "CurrencyDetails"
	CountryDetails          Name = "CountryDetails"
	ShippingLocationDetails Name = "ShippingLocationDetails"
	ShippingServiceDetails  Name = "ShippingServiceDetails"
	ReturnPolicyDetails     Name = "ReturnPolicyDetails"
	DispatchTimeMaxDetails  Name = "DispatchTimeMaxDetails"
	TimeZoneDetails         Name = "TimeZoneDetails"
	RegionDetails           Name = "RegionDetails"
	URLDetails              Name = "URLDetails"
)

var AllNames = []Name{
	SiteDetails,
	CurrencyDetails,
	CountryDetails,
	ShippingLocationDetails,
	ShippingServiceDetails,
	ReturnPolicyDetails,
	DispatchTimeMaxDetails,
	TimeZoneDetails,
	RegionDetails,
	URLDetails,
}

// DefaultNames is requested when a query names no section.
var DefaultNames = []Name{
	ShippingLocationDetails,
	ShippingServiceDetails,
	ReturnPolicyDetails,
}

var ErrUnknownName = errors.New("unknown detail name")

// ParseName accepts the canonical code in any case, with or without the
// "Details" suffix.
func ParseName(s string) (Name, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownName)
	}
	for _, n := range AllNames {
		canon := strings.ToLower(string(n))
		if want == canon || want+"details" == canon {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownName, s)
}

// ParseNames parses every item, each of which may itself hold a ';' or ','
// separated list. Duplicates are dropped.
func ParseNames(items ...string) ([]Name, error) {
	var out []Name
	seen := make(map[Name]struct{})
	for _, item := range items {
		for _, tok := range utils.SplitList(strings.ReplaceAll(item, ",", ";"), ";") {
			n, err := ParseName(tok)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out, nil
}

func sortedNames(names []Name) []Name {
	out := append([]Name(nil), names...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
