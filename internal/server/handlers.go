package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tabemono/internal/catalog"
	"github.com/hyperjump/tabemono/internal/embedding"
	"github.com/hyperjump/tabemono/internal/models"
	"github.com/hyperjump/tabemono/internal/tracker"
	"github.com/hyperjump/tabemono/internal/vision"
)

const maxImageUploadBytes = 20 << 20

func (s *Server) topK(r *http.Request) int {
	topK := s.recognition.DefaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			topK = n
		}
	}
	if s.recognition.MaxTopK > 0 && topK > s.recognition.MaxTopK {
		topK = s.recognition.MaxTopK
	}
	return topK
}

// day parses an optional ?day=YYYY-MM-DD query parameter, defaulting to today.
func (s *Server) day(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func (s *Server) handleFoodSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	candidates := s.tracker.ScanDescription(query, s.topK(r))
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

func (s *Server) handleFoodLibrary(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"foods": s.tracker.KnownFoods()})
}

func (s *Server) handleAddFood(w http.ResponseWriter, r *http.Request) {
	var item models.FoodItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("add food request", zap.String("name", item.Name))
	added, err := s.tracker.RegisterCustomFood(item)
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicateItem) {
			s.respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, added)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	var entries []models.FoodEntry
	if r.URL.Query().Get("day") != "" {
		day, err := s.day(r)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid day, expected YYYY-MM-DD")
			return
		}
		entries = s.tracker.EntriesForDay(day)
	} else {
		entries = s.tracker.Entries()
	}
	if entries == nil {
		entries = []models.FoodEntry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

type logEntryRequest struct {
	Name     string           `json:"name"`
	Quantity float64          `json:"quantity"`
	Food     *models.FoodItem `json:"food,omitempty"`
}

func (s *Server) handleLogEntry(w http.ResponseWriter, r *http.Request) {
	var req logEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	var (
		entry models.FoodEntry
		err   error
	)
	if req.Food != nil {
		entry, err = s.tracker.ManualEntry(r.Context(), *req.Food, req.Quantity)
	} else {
		entry, err = s.tracker.LogFood(r.Context(), req.Name, req.Quantity)
	}
	if err != nil {
		s.logger.Error("log entry failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, err := s.tracker.EditEntry(r.Context(), id, req.Quantity)
	if err != nil {
		if errors.Is(err, tracker.ErrEntryNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete entry request", zap.String("id", id))
	if err := s.tracker.RemoveEntry(r.Context(), id); err != nil {
		if errors.Is(err, tracker.ErrEntryNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleScanImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "image field is required")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	candidates, err := s.tracker.ScanImage(r.Context(), image, s.topK(r))
	if err != nil {
		if errors.Is(err, vision.ErrUnavailable) {
			s.logger.Warn("image scan degraded", zap.Error(err))
			s.respondJSON(w, http.StatusOK, map[string]interface{}{
				"candidates": []models.Candidate{},
				"degraded":   true,
			})
			return
		}
		if errors.Is(err, embedding.ErrInvalidImage) {
			s.respondError(w, http.StatusBadRequest, "unreadable image data")
			return
		}
		s.logger.Error("image scan failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	day, err := s.day(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid day, expected YYYY-MM-DD")
		return
	}
	log := s.tracker.DailySummary(day)
	if log.Entries == nil {
		log.Entries = []models.FoodEntry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"day":            log.Day.Format("2006-01-02"),
		"entries":        log.Entries,
		"calories":       log.TotalCalories(),
		"macronutrients": log.TotalMacros(),
	})
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.tracker.Goals())
}

type updateGoalsRequest struct {
	Calories       *float64           `json:"calories"`
	Macronutrients map[string]float64 `json:"macronutrients"`
	Clear          bool               `json:"clear"`
}

func (s *Server) handleUpdateGoals(w http.ResponseWriter, r *http.Request) {
	var req updateGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Clear {
		if err := s.tracker.ClearGoals(r.Context()); err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, models.NutritionGoals{})
		return
	}
	goals, err := s.tracker.UpdateGoals(r.Context(), req.Calories, req.Macronutrients)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, goals)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	day, err := s.day(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid day, expected YYYY-MM-DD")
		return
	}
	s.respondJSON(w, http.StatusOK, s.tracker.ProgressForDay(day))
}

func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.tracker.WeeklyOverview())
}

func (s *Server) handleLifetimeStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.tracker.LifetimeStats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
