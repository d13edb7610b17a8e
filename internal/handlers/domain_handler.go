package handlers

import (
	"net/http"

	"autobahn/internal/config"
)

type DomainHandler struct {
	domains []config.DomainConfig
}

func NewDomainHandler(domains []config.DomainConfig) *DomainHandler {
	return &DomainHandler{domains: domains}
}

type domainListRequest struct {
	TraceID    string `json:"trace_id,omitempty"`
	OnlyActive *bool  `json:"only_active,omitempty"`
}

type domainListResponseData struct {
	Total int                   `json:"total"`
	Items []config.DomainConfig `json:"items"`
}

// List returns the configured vertical domain integrations, by default
// only the active ones.
func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	var body domainListRequest
	if !decodeBody(w, r, &body) {
		return
	}

	onlyActive := true
	if body.OnlyActive != nil {
		onlyActive = *body.OnlyActive
	}

	items := make([]config.DomainConfig, 0, len(h.domains))
	for _, d := range h.domains {
		if onlyActive && !d.Active {
			continue
		}
		items = append(items, d)
	}

	writeSuccess(w, r, domainListResponseData{Total: len(items), Items: items})
}
