// Package api exposes the analysis pipeline over HTTP: JSON endpoints for
// summaries, locations and comparisons, plus an inline go-echarts chart
// page.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hivelab-data/soma.report/internal/chart"
	"github.com/hivelab-data/soma.report/internal/config"
	"github.com/hivelab-data/soma.report/internal/httputil"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/soma"
)

// Server serves analysis results for one loaded sheet.
type Server struct {
	an       *soma.Analyzer
	cfg      *config.Config
	renderer *chart.Renderer
}

// NewServer wraps an analyzer.
func NewServer(an *soma.Analyzer, cfg *config.Config) *Server {
	return &Server{
		an:       an,
		cfg:      cfg,
		renderer: chart.NewRenderer(cfg.OutputDir, cfg.MaxSamplesDisplay, cfg.ChartWidth, cfg.ChartHeight),
	}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/locations", s.handleLocations)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/compare", s.handleCompare)
	mux.HandleFunc("/api/chart", s.handleChart)
	mux.HandleFunc("/", s.handleHome)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("soma.report analysis server\n"))
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.an.AvailableLocations())
}

// analyzeParams reads the shared query parameters for analyze and chart.
func analyzeParams(r *http.Request) (location string, hive bool) {
	location = r.URL.Query().Get("location")
	if location == "" {
		location = soma.LocationAll
	}
	hive, _ = strconv.ParseBool(r.URL.Query().Get("hive"))
	return location, hive
}

type analyzeResponse struct {
	Location     string            `json:"location"`
	HiveFilter   bool              `json:"hive_filter"`
	NoHiveColumn bool              `json:"no_hive_column,omitempty"`
	TotalSamples int               `json:"total_samples"`
	TotalNeurons int               `json:"total_neurons"`
	Summary      []soma.SummaryRow `json:"summary"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	reqID := uuid.NewString()[:8]
	location, hive := analyzeParams(r)
	monitoring.Logf("api[%s]: analyze location=%q hive=%v", reqID, location, hive)

	result, err := s.an.Analyze(location, soma.Options{HiveFilter: hive})
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analyzeResponse{
		Location:     result.Location,
		HiveFilter:   result.HiveFilter,
		NoHiveColumn: result.NoHiveColumn,
		TotalSamples: len(result.Summary),
		TotalNeurons: result.TotalNeurons(),
		Summary:      result.Summary,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	raw := r.URL.Query().Get("locations")
	if raw == "" {
		httputil.WriteJSONError(w, http.StatusBadRequest, "locations parameter is required (comma-separated)")
		return
	}
	reqID := uuid.NewString()[:8]
	locations := strings.Split(raw, ",")
	monitoring.Logf("api[%s]: compare locations=%v", reqID, locations)
	httputil.WriteJSON(w, http.StatusOK, s.an.Compare(locations))
}

// handleChart streams an inline stacked bar chart as a self-contained HTML
// page rendered with go-echarts.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	location, hive := analyzeParams(r)

	result, err := s.an.Analyze(location, soma.Options{HiveFilter: hive})
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if result.Empty() {
		httputil.WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("no data for location %q", location))
		return
	}

	page, err := s.renderer.HTML(s.an.ChartData(result))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
