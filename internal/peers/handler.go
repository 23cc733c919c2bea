package peers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"verinode/pkg/platform/httputil"
)

// Handler serves this node's view of the peer mesh.
type Handler struct {
	prober *Prober
}

func NewHandler(prober *Prober) *Handler {
	return &Handler{prober: prober}
}

// Register registers the peer routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/peers", h.handlePeers)
}

type peersResponse struct {
	Peers []Status `json:"peers"`
}

func (h *Handler) handlePeers(w http.ResponseWriter, r *http.Request) {
	statuses := h.prober.Probe(r.Context())
	if statuses == nil {
		statuses = []Status{}
	}
	httputil.WriteJSON(w, http.StatusOK, peersResponse{Peers: statuses})
}
