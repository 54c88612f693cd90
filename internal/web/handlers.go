package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/faceapi"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

const maxUploadBytes = 32 << 20

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// faceResponse is one detection in the recognize response.
type faceResponse struct {
	Box        faceapi.Box     `json:"box"`
	Name       string          `json:"name"`
	Label      string          `json:"label"`
	Category   report.Category `json:"category"`
	Distance   float64         `json:"distance"`
	Confidence float64         `json:"confidence"`
	Accepted   bool            `json:"accepted"`
}

// markResponse is one ledger interaction in the recognize response.
type markResponse struct {
	Name       string  `json:"name"`
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
}

type recognizeResponse struct {
	RunID      string         `json:"run_id"`
	Faces      []faceResponse `json:"faces"`
	Recognized []string       `json:"recognized"`
	Marks      []markResponse `json:"marks"`
	Threshold  float64        `json:"threshold"`
}

// handleRecognize accepts a multipart photo upload, runs recognition, and
// marks attendance for accepted matches.
func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing 'photo' file field")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read uploaded photo")
		return
	}

	result, err := s.recognizer.ProcessPhoto(r.Context(), imageData, time.Now())
	if err != nil {
		if errors.Is(err, roster.ErrNoIdentities) {
			respondError(w, http.StatusConflict, "no known identities loaded; enroll reference photos first")
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := recognizeResponse{
		RunID:      uuid.NewString(),
		Faces:      make([]faceResponse, 0, len(result.Results)),
		Recognized: report.RecognizedNames(result.Results),
		Marks:      make([]markResponse, 0, len(result.Marks)),
		Threshold:  s.recognizer.Threshold(),
	}
	for _, m := range result.Results {
		resp.Faces = append(resp.Faces, faceResponse{
			Box:        m.Box,
			Name:       m.Name,
			Label:      report.Label(m),
			Category:   report.CategoryOf(m),
			Distance:   m.Distance,
			Confidence: m.Confidence,
			Accepted:   m.Accepted,
		})
	}
	for _, m := range result.Marks {
		resp.Marks = append(resp.Marks, markResponse{
			Name:       m.Name,
			Outcome:    m.Outcome.String(),
			Confidence: m.Confidence,
		})
	}
	if resp.Recognized == nil {
		resp.Recognized = []string{}
	}

	respondJSON(w, http.StatusOK, resp)
}

type attendanceResponse struct {
	Records []ledger.Record `json:"records"`
	Count   int             `json:"count"`
}

// handleAttendance lists attendance records, optionally filtered by the
// `date` (YYYY-MM-DD) and `name` query parameters. Name matching is
// diacritic- and case-insensitive.
func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.Records(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	date := r.URL.Query().Get("date")
	name := r.URL.Query().Get("name")

	filtered := make([]ledger.Record, 0, len(records))
	for _, rec := range records {
		if date != "" && rec.Date != date {
			continue
		}
		if name != "" && roster.NormalizeName(rec.Name) != roster.NormalizeName(name) {
			continue
		}
		filtered = append(filtered, rec)
	}

	respondJSON(w, http.StatusOK, attendanceResponse{
		Records: filtered,
		Count:   len(filtered),
	})
}

type rosterResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
	Dim   int      `json:"dim"`
}

// handleRoster lists the known identities loaded at startup.
func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, s.roster.Len())
	for _, id := range s.roster.Identities() {
		names = append(names, id.Name)
	}

	respondJSON(w, http.StatusOK, rosterResponse{
		Names: names,
		Count: s.roster.Len(),
		Dim:   s.roster.Dim(),
	})
}
