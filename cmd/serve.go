package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/flockmap/flock-cli/internal/config"
	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/region"
	"github.com/flockmap/flock-cli/internal/render"
	"github.com/flockmap/flock-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the map server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		d, renderer := newDispatcher(st)
		if err := d.RecomputeAll(ctx, cfg.Region.BatchConcurrency); err != nil {
			return err
		}

		srv := newMapServer(st, d, renderer)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.routes(cfg.Server),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			httpSrv.Shutdown(ctx)
		}()

		zap.L().Info("starting map server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// mapServer serves the map overlay and the entity CRUD API. Every mutation
// dispatches the matching region event so overlays stay current.
type mapServer struct {
	store      store.Store
	dispatcher *region.Dispatcher
	renderer   *render.GeoJSONRenderer
}

func newMapServer(st store.Store, d *region.Dispatcher, r *render.GeoJSONRenderer) *mapServer {
	return &mapServer{store: st, dispatcher: d, renderer: r}
}

func (s *mapServer) routes(sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(sc.RatePerSecond), sc.RateBurst))

	r.Get("/health", s.handleHealth)
	r.Get("/map/features", s.handleMapFeatures)

	r.Route("/regions", func(r chi.Router) {
		r.Get("/", s.handleListRegions)
		r.Post("/recompute", s.handleRecompute)
		r.Put("/visibility", s.handleVisibility)
	})

	r.Route("/persons", func(r chi.Router) {
		r.Get("/", s.handleListPersons)
		r.Post("/", s.handleCreatePerson)
		r.Put("/{id}/location", s.handleMovePerson)
		r.Put("/{id}/group", s.handleAssignPerson)
	})

	r.Route("/meetings", func(r chi.Router) {
		r.Get("/", s.handleListMeetings)
		r.Post("/", s.handleCreateMeeting)
	})

	r.Route("/groups", func(r chi.Router) {
		r.Get("/", s.handleListGroups)
		r.Post("/", s.handleCreateGroup)
		r.Put("/{id}", s.handleUpdateGroup)
		r.Delete("/{id}", s.handleDeleteGroup)
	})

	r.Route("/families", func(r chi.Router) {
		r.Get("/", s.handleListFamilies)
		r.Post("/", s.handleCreateFamily)
	})

	return r
}

// rateLimit applies a shared token bucket across all clients. The server
// fronts a single map UI, so per-client buckets would be overkill.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, eris.New("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *mapServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMapFeatures returns one FeatureCollection holding the visible region
// overlays plus a marker per person, meeting point, and family.
func (s *mapServer) handleMapFeatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fc := struct {
		Type     string `json:"type"`
		Features []any  `json:"features"`
	}{Type: "FeatureCollection", Features: []any{}}

	for _, rec := range s.dispatcher.Store().GetAll() {
		if !rec.Visible {
			continue
		}
		if f := s.renderer.Feature(rec.Handle); f != nil {
			fc.Features = append(fc.Features, f)
		}
	}

	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, p := range persons {
		fc.Features = append(fc.Features, render.MarkerFeature(p.ID, "person", p.Name, p.Location, map[string]any{
			"group_id":  p.GroupID,
			"family_id": p.FamilyID,
		}))
	}

	meetings, err := s.store.ListMeetings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, m := range meetings {
		fc.Features = append(fc.Features, render.MarkerFeature(m.ID, "meeting", m.Name, m.Location, map[string]any{
			"group_id": m.GroupID,
		}))
	}

	families, err := s.store.ListFamilies(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, f := range families {
		fc.Features = append(fc.Features, render.MarkerFeature(f.ID, "family", f.Name, f.Location, nil))
	}

	writeJSON(w, http.StatusOK, fc)
}

// regionResponse is the wire form of a region record. Exactly one of
// vertices or center/radius_m is set, per the shape kind.
type regionResponse struct {
	GroupID      string           `json:"group_id"`
	Kind         string           `json:"kind"`
	Color        string           `json:"color"`
	Visible      bool             `json:"visible"`
	Vertices     []geometry.Point `json:"vertices,omitempty"`
	Center       *geometry.Point  `json:"center,omitempty"`
	RadiusMeters float64          `json:"radius_m,omitempty"`
}

func toRegionResponse(rec region.Record) regionResponse {
	resp := regionResponse{
		GroupID: rec.GroupID,
		Color:   rec.Color,
		Visible: rec.Visible,
	}
	switch sh := rec.Shape.(type) {
	case region.Polygon:
		resp.Kind = "polygon"
		resp.Vertices = sh.Vertices
	case region.Circle:
		resp.Kind = "circle"
		c := sh.Center
		resp.Center = &c
		resp.RadiusMeters = sh.RadiusMeters
	}
	return resp
}

func (s *mapServer) handleListRegions(w http.ResponseWriter, r *http.Request) {
	records := s.dispatcher.Store().GetAll()
	out := make([]regionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRegionResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *mapServer) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if err := s.dispatcher.RecomputeAll(r.Context(), cfg.Region.BatchConcurrency); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.handleListRegions(w, r)
}

func (s *mapServer) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	s.dispatcher.Handle(r.Context(), region.Event{Type: region.VisibilityChanged, Visible: req.Visible})
	writeJSON(w, http.StatusOK, map[string]bool{"visible": req.Visible})
}

type personRequest struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	GroupID  string  `json:"group_id"`
	FamilyID string  `json:"family_id"`
}

func (s *mapServer) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, eris.New("name is required"))
		return
	}

	p := &model.Person{
		Name:     req.Name,
		Location: geometry.Point{Lat: req.Lat, Lng: req.Lng},
		GroupID:  req.GroupID,
		FamilyID: req.FamilyID,
	}
	if err := s.store.CreatePerson(r.Context(), p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if p.GroupID != "" {
		s.dispatcher.Handle(r.Context(), region.Event{Type: region.MemberCreated, GroupID: p.GroupID})
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *mapServer) handleListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := s.store.ListPersons(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sortByName(persons, func(p model.Person) string { return p.Name })
	writeJSON(w, http.StatusOK, persons)
}

func (s *mapServer) handleMovePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}

	if err := s.store.UpdatePersonLocation(r.Context(), id, geometry.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.store.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if p.GroupID != "" {
		s.dispatcher.Handle(r.Context(), region.Event{Type: region.MemberUpdated, GroupID: p.GroupID})
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *mapServer) handleAssignPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}

	p, err := s.store.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	priorGroup := p.GroupID

	if err := s.store.AssignPersonGroup(r.Context(), id, req.GroupID); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if priorGroup != "" && priorGroup != req.GroupID {
		s.dispatcher.Handle(r.Context(), region.Event{Type: region.MemberUpdated, GroupID: priorGroup})
	}
	if req.GroupID != "" {
		s.dispatcher.Handle(r.Context(), region.Event{Type: region.MemberUpdated, GroupID: req.GroupID})
	}
	p, err = s.store.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *mapServer) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, eris.New("name is required"))
		return
	}

	m := &model.MeetingPoint{
		Name:     req.Name,
		Location: geometry.Point{Lat: req.Lat, Lng: req.Lng},
		GroupID:  req.GroupID,
	}
	if err := s.store.CreateMeeting(r.Context(), m); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if m.GroupID != "" {
		s.dispatcher.Handle(r.Context(), region.Event{Type: region.MemberCreated, GroupID: m.GroupID})
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *mapServer) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := s.store.ListMeetings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sortByName(meetings, func(m model.MeetingPoint) string { return m.Name })
	writeJSON(w, http.StatusOK, meetings)
}

type groupRequest struct {
	Name         string `json:"name"`
	Color        string `json:"color"`
	Requirements string `json:"requirements"`
}

func (s *mapServer) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, eris.New("name is required"))
		return
	}

	g := &model.Group{Name: req.Name, Color: req.Color, Requirements: req.Requirements}
	if err := s.store.CreateGroup(r.Context(), g); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.dispatcher.Handle(r.Context(), region.Event{Type: region.GroupCreated, GroupID: g.ID})
	writeJSON(w, http.StatusCreated, g)
}

func (s *mapServer) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sortByName(groups, func(g model.Group) string { return g.Name })
	writeJSON(w, http.StatusOK, groups)
}

func (s *mapServer) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}

	g, err := s.store.GetGroup(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if req.Name != "" {
		g.Name = req.Name
	}
	if req.Color != "" {
		g.Color = req.Color
	}
	if req.Requirements != "" {
		g.Requirements = req.Requirements
	}
	if err := s.store.UpdateGroup(r.Context(), g); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.dispatcher.Handle(r.Context(), region.Event{Type: region.GroupUpdated, GroupID: g.ID})
	writeJSON(w, http.StatusOK, g)
}

func (s *mapServer) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteGroup(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.dispatcher.Handle(r.Context(), region.Event{Type: region.GroupDeleted, GroupID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *mapServer) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, eris.New("name is required"))
		return
	}

	f := &model.Family{Name: req.Name, Location: geometry.Point{Lat: req.Lat, Lng: req.Lng}}
	if err := s.store.CreateFamily(r.Context(), f); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *mapServer) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	families, err := s.store.ListFamilies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sortByName(families, func(f model.Family) string { return f.Name })
	writeJSON(w, http.StatusOK, families)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
