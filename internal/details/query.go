package details

import (
	"slices"
	"strings"

	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

// Query identifies one cached details payload: a site and the sections
// requested for it.
type Query struct {
	Site  string
	Names []Name
}

func NewQuery(site string, names ...Name) Query {
	return Query{Site: strings.ToUpper(strings.TrimSpace(site)), Names: names}
}

// EffectiveNames returns the requested sections, sorted and deduplicated,
// or DefaultNames when none were given.
func (q Query) EffectiveNames() []Name {
	if len(q.Names) == 0 {
		return sortedNames(DefaultNames)
	}
	return slices.Compact(sortedNames(q.Names))
}

// CacheKey is "details-<SITE>" for the default sections and
// "details-<SITE>-<A>+<B>..." otherwise. Order and duplicates of Names do
// not change the key.
func (q Query) CacheKey() string {
	site := strings.ToUpper(strings.TrimSpace(q.Site))
	names := q.EffectiveNames()
	if slices.Equal(names, sortedNames(DefaultNames)) {
		return "details-" + site
	}
	return "details-" + site + "-" + strings.Join(utils.Map(names, func(n Name) string { return string(n) }), "+")
}

func (q Query) String() string { return q.CacheKey() }
