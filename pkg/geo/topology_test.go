package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	topo := Default()

	tests := []struct {
		name     string
		from, to string
		want     float64
	}{
		{"identical continent", Europe, Europe, 0},
		{"identical country", "us", "US", 0},
		{"country within its continent", "us", NorthAmerica, SameContinent},
		{"two countries one continent", "de", "fr", SameContinent},
		{"adjacent continents", Europe, Africa, 1},
		{"country to far continent", "us", Europe, 2},
		{"symmetric", Africa, Europe, 1},
		{"oceania is far", Oceania, SouthAmerica, 4},
		{"unmapped country", "th", Europe, Unreachable},
		{"custom location", "moscow-dc", Europe, Unreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topo.Distance(tt.from, tt.to))
		})
	}
}

func TestContinentOf(t *testing.T) {
	topo := Default()

	c, ok := topo.ContinentOf("ca")
	assert.True(t, ok)
	assert.Equal(t, NorthAmerica, c)

	_, ok = topo.ContinentOf("XX")
	assert.False(t, ok)
}

func TestNewFillsMissingDirection(t *testing.T) {
	topo := New(map[string]map[string]float64{
		"a": {"a": 0, "b": 3},
		"b": {"b": 0},
	}, map[string]string{"aa": "a", "bb": "b"})

	assert.Equal(t, 3.0, topo.Distance("b", "a"))
	assert.Equal(t, 3.0, topo.Distance("AA", "BB"))
	assert.True(t, topo.IsContinent("b"))
}

func TestDefaultDistancesAreSymmetric(t *testing.T) {
	topo := Default()
	continents := topo.Continents()
	assert.Len(t, continents, 6)

	for _, a := range continents {
		assert.Zero(t, topo.Distance(a, a), a)
		for _, b := range continents {
			d := topo.Distance(a, b)
			assert.Equal(t, d, topo.Distance(b, a), "%s <-> %s", a, b)
			assert.Less(t, d, Unreachable, "%s <-> %s", a, b)
		}
	}
}
