// Package geo holds the static geography used to rank agents by closeness:
// a symmetric continent adjacency table and a country to continent membership map.
package geo

import (
	"sort"
	"strings"
)

const (
	Europe       = "europe"
	NorthAmerica = "north-america"
	SouthAmerica = "south-america"
	Africa       = "africa"
	Asia         = "asia"
	Oceania      = "oceania"
)

// Unreachable is the distance reported when either side cannot be placed on the graph.
const Unreachable = 999.0

// SameContinent is the distance between two different entities of one continent.
const SameContinent = 0.5

// Topology is immutable after construction; all methods are safe for concurrent use.
type Topology struct {
	distances map[string]map[string]float64
	countries map[string]string
}

// Default returns the built-in topology.
func Default() *Topology {
	return New(defaultDistances(), defaultCountries())
}

// New copies the given tables. Distances are made symmetric: a pair missing in one
// direction takes the value of the other.
func New(distances map[string]map[string]float64, countries map[string]string) *Topology {
	t := &Topology{
		distances: make(map[string]map[string]float64, len(distances)),
		countries: make(map[string]string, len(countries)),
	}
	for from, row := range distances {
		for to, d := range row {
			t.set(from, to, d)
			if _, ok := distances[to][from]; !ok {
				t.set(to, from, d)
			}
		}
	}
	for cc, continent := range countries {
		t.countries[strings.ToUpper(cc)] = continent
	}
	return t
}

func (t *Topology) set(from, to string, d float64) {
	row, ok := t.distances[from]
	if !ok {
		row = make(map[string]float64)
		t.distances[from] = row
	}
	row[to] = d
}

// IsContinent reports whether code names a continent of the adjacency table.
func (t *Topology) IsContinent(code string) bool {
	_, ok := t.distances[code]
	return ok
}

// ContinentOf returns the continent of a 2-letter country code, case-insensitive.
func (t *Topology) ContinentOf(countryCode string) (string, bool) {
	c, ok := t.countries[strings.ToUpper(countryCode)]
	return c, ok
}

// IsCountryCode reports whether code has the shape of an ISO 3166 alpha-2 code.
func IsCountryCode(code string) bool {
	return len(code) == 2
}

// continentFor places a location code on the graph: continents map to themselves,
// country codes to their continent.
func (t *Topology) continentFor(code string) (string, bool) {
	if t.IsContinent(code) {
		return code, true
	}
	if IsCountryCode(code) {
		return t.ContinentOf(code)
	}
	return "", false
}

// Distance returns the closeness score between two location codes (continent or
// country). Identical codes are 0, distinct codes of one continent are 0.5,
// everything else is read from the adjacency table; unplaceable codes are Unreachable.
func (t *Topology) Distance(from, to string) float64 {
	if strings.EqualFold(from, to) {
		return 0
	}
	fc, ok := t.continentFor(from)
	if !ok {
		return Unreachable
	}
	tc, ok := t.continentFor(to)
	if !ok {
		return Unreachable
	}
	if fc == tc {
		return SameContinent
	}
	if d, ok := t.distances[fc][tc]; ok {
		return d
	}
	return Unreachable
}

// Continents lists the continents known to the adjacency table, sorted.
func (t *Topology) Continents() []string {
	out := make([]string, 0, len(t.distances))
	for c := range t.distances {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func defaultDistances() map[string]map[string]float64 {
	return map[string]map[string]float64{
		Europe:       {Europe: 0, NorthAmerica: 2, SouthAmerica: 3, Africa: 1, Asia: 2, Oceania: 4},
		NorthAmerica: {NorthAmerica: 0, Europe: 2, SouthAmerica: 1, Africa: 3, Asia: 3, Oceania: 4},
		SouthAmerica: {SouthAmerica: 0, NorthAmerica: 1, Europe: 3, Africa: 2, Asia: 4, Oceania: 4},
		Africa:       {Africa: 0, Europe: 1, Asia: 2, NorthAmerica: 3, SouthAmerica: 2, Oceania: 4},
		Asia:         {Asia: 0, Oceania: 1, Europe: 2, Africa: 2, NorthAmerica: 3, SouthAmerica: 4},
		Oceania:      {Oceania: 0, Asia: 1, SouthAmerica: 4, NorthAmerica: 4, Europe: 4, Africa: 4},
	}
}

func defaultCountries() map[string]string {
	return map[string]string{
		"US": NorthAmerica, "CA": NorthAmerica, "MX": NorthAmerica,

		"RU": Europe, "TR": Europe, "FR": Europe, "DE": Europe, "GB": Europe, "IT": Europe,
		"ES": Europe, "PL": Europe, "UA": Europe, "NL": Europe, "BE": Europe, "SE": Europe,
		"NO": Europe, "FI": Europe, "DK": Europe, "CH": Europe, "AT": Europe, "CZ": Europe,
		"PT": Europe, "GR": Europe, "RO": Europe, "HU": Europe, "IE": Europe,

		"CN": Asia, "JP": Asia, "KZ": Asia, "IR": Asia, "AE": Asia, "IN": Asia, "KR": Asia, "SG": Asia,

		"AU": Oceania, "NZ": Oceania,

		"BR": SouthAmerica, "AR": SouthAmerica,

		"ZA": Africa, "EG": Africa,
	}
}
