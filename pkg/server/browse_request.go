package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
	"github.com/gorilla/schema"
)

// BrowseRequest is the addressable browse state: filter criteria plus sort
// and group modes. Omitted controls fall back to the stored preferences.
type BrowseRequest struct {
	catalog.Criteria
	Sort  string `json:"sort" schema:"sort"`
	Group string `json:"group" schema:"group"`
}

// DeepLinkRequest carries the deep-link parameters: a single drop id, a
// comma separated ordered id list and an optional catalog source override.
type DeepLinkRequest struct {
	Id         string `schema:"id"`
	Ids        string `schema:"ids"`
	Collection string `schema:"collection"`
}

func (d *DeepLinkRequest) IdList() []string {
	if d.Ids == "" {
		return nil
	}
	parts := strings.Split(d.Ids, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func decodeQuery(query url.Values, out interface{}) error {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder.Decode(out, query)
}

func browseRequestFromRequest(r *http.Request, base BrowseRequest) (BrowseRequest, error) {
	result := base
	err := decodeQuery(r.URL.Query(), &result)
	return result, err
}

func deepLinkFromRequest(r *http.Request) (DeepLinkRequest, error) {
	var result DeepLinkRequest
	err := decodeQuery(r.URL.Query(), &result)
	return result, err
}
