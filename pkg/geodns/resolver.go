// Package geodns picks, for a GeoDNS location, the live agent that should answer
// its traffic: a direct geographic match when one exists, otherwise the agent
// closest on the continent graph. Everything here is pure and recomputed from
// the snapshot passed in on every call.
package geodns

import (
	"strings"

	"github.com/Alwanly/service-edge-controller/pkg/geo"
)

// Agent is the resolver's view of a registry entry.
type Agent struct {
	ID          string
	Name        string
	IP          string
	CountryCode string
	Active      bool
}

func (a Agent) eligible() bool {
	return a.Active && a.IP != ""
}

func (a Agent) country() (string, bool) {
	cc := strings.ToUpper(strings.TrimSpace(a.CountryCode))
	if cc == "" || cc == "XX" {
		return "", false
	}
	return cc, true
}

// Result is the outcome for one location. Found is false when no agent is eligible;
// in that case the agent fields are empty.
type Result struct {
	LocationCode string
	Found        bool
	AgentID      string
	AgentName    string
	AgentIP      string
	Distance     float64
	IsDirect     bool
}

// Observer receives every decision. It must not influence the result.
type Observer interface {
	Resolved(res Result, eligible int)
}

type nopObserver struct{}

func (nopObserver) Resolved(Result, int) {}

type Option func(*Resolver)

func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		if o != nil {
			r.obs = o
		}
	}
}

type Resolver struct {
	topo *geo.Topology
	obs  Observer
}

func NewResolver(topo *geo.Topology, opts ...Option) *Resolver {
	r := &Resolver{topo: topo, obs: nopObserver{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve selects the agent for locationCode. Ties are broken by the order of agents.
func (r *Resolver) Resolve(locationCode string, agents []Agent) Result {
	code := strings.ToLower(strings.TrimSpace(locationCode))

	eligible := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if a.eligible() {
			eligible = append(eligible, a)
		}
	}

	res := r.resolve(code, eligible)
	res.LocationCode = locationCode
	r.obs.Resolved(res, len(eligible))
	return res
}

func (r *Resolver) resolve(code string, eligible []Agent) Result {
	if len(eligible) == 0 {
		return Result{}
	}

	for _, a := range eligible {
		if r.directHit(code, a) {
			return found(a, 0, true)
		}
	}

	best, bestDist := -1, 0.0
	for i, a := range eligible {
		d := r.distance(code, a)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return found(eligible[best], bestDist, false)
}

func (r *Resolver) directHit(code string, a Agent) bool {
	cc, ok := a.country()
	if !ok {
		return false
	}
	if geo.IsCountryCode(code) {
		return strings.EqualFold(cc, code)
	}
	continent, ok := r.topo.ContinentOf(cc)
	return ok && continent == code
}

func (r *Resolver) distance(code string, a Agent) float64 {
	cc, ok := a.country()
	if !ok {
		return geo.Unreachable
	}
	loc, ok := r.topo.ContinentOf(cc)
	if !ok {
		loc = strings.ToLower(cc)
	}
	return r.topo.Distance(code, loc)
}

func found(a Agent, distance float64, direct bool) Result {
	return Result{
		Found:     true,
		AgentID:   a.ID,
		AgentName: a.Name,
		AgentIP:   a.IP,
		Distance:  distance,
		IsDirect:  direct,
	}
}
