package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pollenpaw/pollenpaw/internal/analysis"
	"github.com/pollenpaw/pollenpaw/internal/api/middleware"
	"github.com/pollenpaw/pollenpaw/internal/api/models"
	"github.com/pollenpaw/pollenpaw/internal/api/response"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AnalysisService runs symptom/pollen correlation for an owner's pet.
type AnalysisService interface {
	Correlation(ctx context.Context, ownerID, petID string) (*analysis.Result, error)
	Export(ctx context.Context, ownerID, petID string, w io.Writer) error
}

// AnalysisHandler handles analysis endpoints.
type AnalysisHandler struct {
	service AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(service AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// GetCorrelation handles GET /v1/pets/{petId}/analysis/correlation.
// Insufficient data is a 200 with status "insufficient_data".
func (h *AnalysisHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Correlation(r.Context(), ownerID(r), chi.URLParam(r, "petId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toCorrelationAnalysis(result))
}

// ExportCorrelation handles GET /v1/pets/{petId}/analysis/export.xlsx.
func (h *AnalysisHandler) ExportCorrelation(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petId")

	// Buffer so a failure still yields a Problem response.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), ownerID(r), petID, &buf); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis-%s.xlsx"`, petID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if requestID := middleware.RequestIDFrom(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func toCorrelationAnalysis(result *analysis.Result) models.CorrelationAnalysis {
	out := models.CorrelationAnalysis{
		Status:     string(result.Status),
		PetName:    result.PetName,
		DaysLogged: result.DaysLogged,
		Message:    result.Message,
	}

	if result.Status == analysis.StatusInsufficientData {
		needed := result.DaysNeeded
		out.DaysNeeded = &needed
		return out
	}

	if c := result.Correlations; c != nil {
		out.Correlations = &models.Correlations{
			TreeCorr:        c.Tree,
			GrassCorr:       c.Grass,
			WeedCorr:        c.Weed,
			TopTrigger:      c.TopTrigger.Key(),
			TopTriggerValue: c.TopTriggerValue,
		}
	}

	out.ChartData = make([]models.CorrelationPoint, len(result.ChartData))
	for i, p := range result.ChartData {
		out.ChartData[i] = models.CorrelationPoint{
			Date:            p.Date,
			SymptomSeverity: p.SymptomSeverity,
			TreePollen:      p.TreePollen,
			GrassPollen:     p.GrassPollen,
			WeedPollen:      p.WeedPollen,
		}
	}

	if ins := result.Insights; ins != nil {
		out.Insights = &models.Insights{
			TopTriggerInsight:    ins.TopTrigger,
			ThresholdInsight:     ins.Threshold,
			ActionRecommendation: ins.Action,
		}
	}
	return out
}
