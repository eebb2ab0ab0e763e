// apps/go-server/internal/httpserver/routes_bags.go
//
// Tile sets per language, for the create-game form (public):
//   - GET /bags             every supported language
//   - GET /bags/{language}  one language

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/scrabble/apps/go-server/internal/bag"
)

type bagRes struct {
	bag.Distribution
	Size int `json:"size"`
}

func newBagRes(d bag.Distribution) bagRes {
	return bagRes{Distribution: d, Size: d.Size()}
}

func mountBags(r chi.Router) {
	r.Get("/bags", handleBags)
	r.Get("/bags/{language}", handleBag)
}

func handleBags(w http.ResponseWriter, r *http.Request) {
	out := make([]bagRes, 0, len(bag.Languages))
	for _, lang := range bag.Languages {
		if d, ok := bag.ForLanguage(lang); ok {
			out = append(out, newBagRes(d))
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}

func handleBag(w http.ResponseWriter, r *http.Request) {
	d, ok := bag.ForLanguage(chi.URLParam(r, "language"))
	if !ok {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(newBagRes(d))
}
