package tally

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"tally-service/tally/application"
	"tally-service/tally/domain"
	"tally-service/tally/infra"

	"github.com/google/uuid"
)

const (
	GruePath     = "/grue"
	GrueDataPath = "/grue/{grue_id}"
	VehiclePath  = "/vehicle"
	HealthPath   = "/health"
	ResetPath    = "/reset"
	VersionPath  = "/version"
	StatsPath    = "/stats"
)

type GrueRequest struct {
	GrueID              *int `json:"grue_id"`
	NumberOfMerchandise *int `json:"number_of_merchandise"`
}

type GrueResponse struct {
	GrueID              string `json:"grue_id"`
	NumberOfMerchandise uint8  `json:"number_of_merchandise"`
}

type VehicleResponse struct {
	VehicleData map[string]uint8 `json:"vehicle_data"`
}

type ResetRequest struct {
	UUID *uuid.UUID `json:"uuid"`
}

type statsReporter interface {
	Report() infra.StatsReport
}

// API liga as rotas ao TallyService. Stats é opcional; /stats só responde
// quando a implementação sabe gerar relatório (MemoryStatsStore).
type API struct {
	Service application.TallyService
	Stats   domain.StatsStore
	Version string
}

func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+GruePath, a.PostGrueData)
	mux.HandleFunc("GET "+GrueDataPath, a.GetGrueData)
	mux.HandleFunc("GET "+VehiclePath, a.GetVehicleData)
	mux.HandleFunc("GET "+HealthPath, a.GetHealth)
	mux.HandleFunc("POST "+ResetPath, a.Reset)
	mux.HandleFunc("GET "+VersionPath, a.GetVersion)
	mux.HandleFunc("GET "+StatsPath, a.GetStats)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 64<<10))
}

// statusFor traduz erros do domínio para status HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidIdentifier),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) PostGrueData(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	var req GrueRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.GrueID == nil || req.NumberOfMerchandise == nil {
		writeError(w, http.StatusBadRequest, "grue_id and number_of_merchandise are required")
		return
	}

	if err := a.Service.Submit(r.Context(), *req.GrueID, *req.NumberOfMerchandise); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *API) GetVehicleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VehicleResponse{VehicleData: a.Service.Tallies(r.Context())})
}

func (a *API) GetGrueData(w http.ResponseWriter, r *http.Request) {
	raw, err := strconv.Atoi(r.PathValue("grue_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "grue_id must be an integer")
		return
	}
	id, v, err := a.Service.Lookup(r.Context(), raw)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GrueResponse{GrueID: id.String(), NumberOfMerchandise: v})
}

// Reset aceita corpo vazio (sem token). Corpo presente precisa ser um JSON
// válido com "uuid".
func (a *API) Reset(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.Reset(r.Context(), resetToken(r)); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}

// resetToken lê o uuid opcional do corpo. Corpo vazio, JSON inválido ou sem
// uuid contam como token ausente: quem decide é o store (sem lock, reseta;
// com lock, Unauthorized).
func resetToken(r *http.Request) uuid.NullUUID {
	body, err := readBody(r)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return uuid.NullUUID{}
	}
	var req ResetRequest
	if err := json.Unmarshal(body, &req); err != nil || req.UUID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *req.UUID, Valid: true}
}

func (a *API) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (a *API) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, a.Version)
}

func (a *API) GetStats(w http.ResponseWriter, r *http.Request) {
	rep, ok := a.Stats.(statsReporter)
	if !ok {
		writeError(w, http.StatusNotFound, "stats not available")
		return
	}
	writeJSON(w, http.StatusOK, rep.Report())
}
