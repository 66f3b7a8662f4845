package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/browser"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/identity"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/prefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noBrowses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffeedrops_browses_total",
		Help: "The total number of processed browse renders",
	})
	noPageLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffeedrops_page_loads_total",
		Help: "The total number of catalog pages fetched",
	})
	noToggles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffeedrops_toggles_total",
		Help: "The total number of tried/purchased toggles",
	})
	noToggleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffeedrops_toggle_failures_total",
		Help: "The total number of failed tried/purchased toggles",
	})
)

const browseCacheKey = "browse_render"

// WebServer exposes the browser session over HTTP.
type WebServer struct {
	App       *browser.App
	PrefStore *prefs.Store
	Cache     *Cache
	Sessions  *Sessions
}

type browseResponse struct {
	catalog.Rendered
	Total   int `json:"total"`
	Visible int `json:"visible"`
}

// InvalidateRender drops the cached browse response after anything that can
// change rendered output, including feed fold-ins.
func (ws *WebServer) InvalidateRender() {
	if ws.Cache != nil {
		ws.Cache.Invalidate(browseCacheKey)
	}
}

// requireSession verifies the session cookie before an identity-requiring
// operation runs. Writes the 401 itself when the token is missing or bad.
func (ws *WebServer) requireSession(w http.ResponseWriter, r *http.Request) *identity.Identity {
	id := ws.Sessions.FromRequest(r)
	if id == nil {
		common.JsonError(w, http.StatusUnauthorized, "sign in to mark drops")
	}
	return id
}

func (ws *WebServer) Browse(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	noBrowses.Inc()
	base := BrowseRequest{Criteria: ws.App.Criteria()}
	base.Sort, base.Group = ws.App.Modes()
	req, err := browseRequestFromRequest(r, base)
	if err != nil {
		common.JsonError(w, http.StatusBadRequest, "invalid browse query")
		return err
	}
	changed := req.Criteria != base.Criteria || req.Sort != base.Sort || req.Group != base.Group
	if changed {
		ws.App.SetCriteria(req.Criteria)
		ws.App.SetModes(req.Sort, req.Group)
		ws.InvalidateRender()
	} else if ws.Cache != nil {
		var cached browseResponse
		if err := ws.Cache.Get(browseCacheKey, &cached); err == nil {
			return enc.Encode(cached)
		}
	}

	response := browseResponse{
		Rendered: ws.App.Render(),
		Total:    ws.App.Loaded(),
		Visible:  ws.App.Catalog.VisibleCount(),
	}
	if ws.Cache != nil && !changed {
		if err := ws.Cache.Set(browseCacheKey, response, time.Minute); err != nil {
			// Cache trouble should never fail a render.
			_ = err
		}
	}
	return enc.Encode(response)
}

func (ws *WebServer) LoadMore(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	noPageLoads.Inc()
	added, err := ws.App.LoadNextPage(r.Context())
	if err != nil {
		common.JsonError(w, http.StatusBadGateway, "catalog fetch failed")
		return err
	}
	ws.InvalidateRender()
	return enc.Encode(map[string]int{
		"added": added,
		"total": ws.App.Loaded(),
	})
}

func (ws *WebServer) GetDrop(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	id := r.PathValue("id")
	item, ok := ws.App.Catalog.Get(id)
	if !ok {
		common.JsonError(w, http.StatusNotFound, "unknown drop")
		return nil
	}
	// Opening a detail view moves the deep-link pointer when the id is part
	// of the sequence.
	nav, _ := ws.App.JumpTo(id)
	return enc.Encode(map[string]interface{}{
		"item": item,
		"nav":  nav,
	})
}

func (ws *WebServer) ResolveNav(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	link, err := deepLinkFromRequest(r)
	if err != nil {
		common.JsonError(w, http.StatusBadRequest, "invalid deep link")
		return err
	}
	if ws.App.SetCollection(link.Collection) {
		if _, err := ws.App.LoadNextPage(r.Context()); err != nil {
			common.JsonError(w, http.StatusBadGateway, "catalog fetch failed")
			return err
		}
		ws.InvalidateRender()
	}
	ws.App.ResolveNavigation(link.IdList(), link.Id)
	if link.Id != "" {
		nav, _ := ws.App.JumpTo(link.Id)
		return enc.Encode(nav)
	}
	return enc.Encode(ws.App.NavState())
}

func (ws *WebServer) NavStep(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	var nav *browser.NavState
	switch r.PathValue("dir") {
	case "prev":
		nav = ws.App.StepPrev()
	case "next":
		nav = ws.App.StepNext()
	case "jump":
		nav, _ = ws.App.JumpTo(r.URL.Query().Get("id"))
	default:
		common.JsonError(w, http.StatusNotFound, "unknown step direction")
		return nil
	}
	return enc.Encode(nav)
}

type toggleRequest struct {
	Notes  string `json:"notes"`
	Rating int    `json:"rating"`
}

func (ws *WebServer) toggleResponse(w http.ResponseWriter, enc *json.Encoder, marked bool, err error) error {
	if err != nil {
		noToggleFailures.Inc()
		switch {
		case errors.Is(err, browser.ErrPermissionDenied):
			common.JsonError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, browser.ErrToggleInFlight):
			common.JsonError(w, http.StatusConflict, err.Error())
		default:
			common.JsonError(w, http.StatusBadGateway, "could not update, try again")
		}
		return err
	}
	ws.InvalidateRender()
	return enc.Encode(map[string]bool{"marked": marked})
}

func (ws *WebServer) ToggleTried(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	if ws.requireSession(w, r) == nil {
		return nil
	}
	noToggles.Inc()
	var body toggleRequest
	if r.Body != nil {
		// Body is optional, a bare toggle has no notes or rating.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	marked, err := ws.App.ToggleTried(r.Context(), r.PathValue("id"), browser.ToggleOptions{
		Notes:  body.Notes,
		Rating: body.Rating,
	})
	return ws.toggleResponse(w, enc, marked, err)
}

func (ws *WebServer) TogglePurchased(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	if ws.requireSession(w, r) == nil {
		return nil
	}
	noToggles.Inc()
	marked, err := ws.App.TogglePurchased(r.Context(), r.PathValue("id"))
	return ws.toggleResponse(w, enc, marked, err)
}

func (ws *WebServer) TriedList(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	if ws.requireSession(w, r) == nil {
		return nil
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := ws.App.TriedList(r.Context())
	if err != nil {
		if errors.Is(err, browser.ErrPermissionDenied) {
			common.JsonError(w, http.StatusUnauthorized, err.Error())
			return nil
		}
		common.JsonError(w, http.StatusBadGateway, "listing failed")
		return err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return enc.Encode(entries)
}

func (ws *WebServer) GetPrefs(_ http.ResponseWriter, _ *http.Request, _ int, enc *json.Encoder) error {
	if ws.PrefStore == nil {
		return enc.Encode(prefs.Defaults())
	}
	return enc.Encode(ws.PrefStore.Load())
}

func (ws *WebServer) PutPrefs(w http.ResponseWriter, r *http.Request, _ int, enc *json.Encoder) error {
	var p prefs.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		common.JsonError(w, http.StatusBadRequest, "invalid preferences")
		return err
	}
	ws.App.SetCriteria(catalog.Criteria{
		Query:       p.Query,
		Roaster:     p.Roaster,
		Country:     p.Country,
		Stock:       p.Stock,
		OnlyTried:   p.OnlyTried,
		HideSoldOut: p.HideSoldOut,
	})
	ws.App.SetModes(p.Sort, p.Group)
	ws.InvalidateRender()
	return enc.Encode(p)
}

// ClientHandler wires the public api routes.
func (ws *WebServer) ClientHandler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/drops", common.JsonHandler(ws.Browse))
	mux.HandleFunc("/drops/more", common.JsonHandler(ws.LoadMore))
	mux.HandleFunc("/drop/{id}", common.JsonHandler(ws.GetDrop))
	mux.HandleFunc("/drop/{id}/tried", common.JsonHandler(ws.ToggleTried))
	mux.HandleFunc("/drop/{id}/purchased", common.JsonHandler(ws.TogglePurchased))
	mux.HandleFunc("/tried", common.JsonHandler(ws.TriedList))
	mux.HandleFunc("/nav", common.JsonHandler(ws.ResolveNav))
	mux.HandleFunc("POST /nav/{dir}", common.JsonHandler(ws.NavStep))
	mux.HandleFunc("GET /prefs", common.JsonHandler(ws.GetPrefs))
	mux.HandleFunc("PUT /prefs", common.JsonHandler(ws.PutPrefs))
	return mux
}

func fmtIdentity(id *identity.Identity) string {
	if id == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s (%s)", id.Email, id.Uid)
}
