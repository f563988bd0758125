// Package quote interprets quote payloads: it resolves the route list and
// the selected route across payload shapes, computes the savings against
// mid-market and ranks routes against the best one.
package quote

import "github.com/Checker-Finance/warp/pkg/model"

// Normalized is the shape-independent view of a quote's routing data.
type Normalized struct {
	Routes    []model.RouteOption
	BestRoute *model.RouteOption
}

// Normalize resolves the displayed routes and the selected route.
//
// Routes: route_options when non-empty, else crypto_path.routes, else empty.
// BestRoute: crypto_path.best_path, else crypto_path itself when it carries
// final_amount, else nil.
func Normalize(q *model.Quote) Normalized {
	var n Normalized
	if q == nil {
		return n
	}

	cp := q.CryptoPath
	switch {
	case len(q.RouteOptions) > 0:
		n.Routes = q.RouteOptions
	case cp != nil && cp.Routes != nil:
		n.Routes = cp.Routes
	}

	switch {
	case cp == nil:
	case cp.BestPath != nil:
		n.BestRoute = cp.BestPath
	case cp.FinalAmount != nil:
		best := cp.RouteOption
		n.BestRoute = &best
	}
	return n
}
