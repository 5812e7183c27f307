// Package httpapi exposes the REST API: the experiment, postcard and
// token façades behind a gorilla/mux router, plus static serving of the
// upload directory.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/spacenexus/platform/internal/app"
	"github.com/spacenexus/platform/internal/app/metrics"
	"github.com/spacenexus/platform/internal/app/query"
	"github.com/spacenexus/platform/internal/app/services/experiments"
	"github.com/spacenexus/platform/internal/app/services/postcards"
	tokensvc "github.com/spacenexus/platform/internal/app/services/token"
	"github.com/spacenexus/platform/internal/app/storage"
	"github.com/spacenexus/platform/internal/app/upload"
	"github.com/spacenexus/platform/pkg/logger"
)

// Version is reported by the root status document.
const Version = "1.0.0"

// multipartMemory caps the in-memory portion of multipart parsing;
// larger bodies spill to temp files.
const multipartMemory = 4 << 20

// handler bundles the HTTP endpoints over the application services.
type handler struct {
	app             *app.Application
	experimentFiles upload.Policy
	postcardImages  upload.Policy
	log             *logger.Logger
}

// NewHandler returns the router exposing the REST API. uploadDir is both
// the staging target for attachments and the directory served read-only
// under /uploads/.
func NewHandler(application *app.Application, uploadDir string, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{
		app:             application,
		experimentFiles: upload.ExperimentPolicy(uploadDir),
		postcardImages:  upload.PostcardPolicy(uploadDir),
		log:             log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/experiments", h.listExperiments).Methods(http.MethodGet)
	api.HandleFunc("/experiments", h.createExperiment).Methods(http.MethodPost)
	api.HandleFunc("/experiments/verified/all", h.verifiedExperiments).Methods(http.MethodGet)
	api.HandleFunc("/experiments/stats/types", h.experimentTypeStats).Methods(http.MethodGet)
	api.HandleFunc("/experiments/type/{experimentType}", h.experimentsByType).Methods(http.MethodGet)
	api.HandleFunc("/experiments/scientist/{address}", h.experimentsByScientist).Methods(http.MethodGet)
	api.HandleFunc("/experiments/{id:[0-9]+}", h.getExperiment).Methods(http.MethodGet)
	api.HandleFunc("/experiments/{id:[0-9]+}/verify", h.verifyExperiment).Methods(http.MethodPut)

	api.HandleFunc("/postcards", h.listPostcards).Methods(http.MethodGet)
	api.HandleFunc("/postcards", h.createPostcard).Methods(http.MethodPost)
	api.HandleFunc("/postcards/stats/status", h.postcardStatusStats).Methods(http.MethodGet)
	api.HandleFunc("/postcards/user/{walletAddress}", h.postcardsByWallet).Methods(http.MethodGet)
	api.HandleFunc("/postcards/batch/{batchId:[0-9]+}", h.postcardsByBatch).Methods(http.MethodGet)
	api.HandleFunc("/postcards/{id:[0-9]+}", h.getPostcard).Methods(http.MethodGet)

	api.HandleFunc("/token/info", h.tokenInfo).Methods(http.MethodGet)
	api.HandleFunc("/token/price", h.tokenPrice).Methods(http.MethodGet)
	api.HandleFunc("/token/holders", h.tokenHolders).Methods(http.MethodGet)
	api.HandleFunc("/token/transactions", h.tokenTransactions).Methods(http.MethodGet)

	return r
}

func (h *handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "SpaceNexus API Service",
		"version": Version,
		"status":  "running",
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Experiments -------------------------------------------------------------------

func (h *handler) listExperiments(w http.ResponseWriter, r *http.Request) {
	limit, offset := query.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	page, total, err := h.app.Experiments.List(r.Context(), limit, offset)
	if err != nil {
		h.serverError(w, "Failed to get experiments", err)
		return
	}
	writeList(w, page, total)
}

func (h *handler) getExperiment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	exp, err := h.app.Experiments.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Experiment does not exist")
			return
		}
		h.serverError(w, "Failed to get experiment", err)
		return
	}
	writeData(w, http.StatusOK, exp)
}

func (h *handler) createExperiment(w http.ResponseWriter, r *http.Request) {
	var in experiments.CreateInput
	var staged *upload.Staged

	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeFailure(w, http.StatusBadRequest, "Malformed multipart request")
			return
		}
		in = experiments.CreateInput{
			Name:           r.FormValue("name"),
			Description:    r.FormValue("description"),
			ExperimentType: r.FormValue("experimentType"),
			Scientist:      r.FormValue("scientist"),
		}
		var ok bool
		staged, ok = h.stageFile(w, r, "dataFile", h.experimentFiles, "experiments")
		if !ok {
			return
		}
	} else {
		var payload struct {
			Name           string `json:"name"`
			Description    string `json:"description"`
			ExperimentType string `json:"experimentType"`
			Scientist      string `json:"scientist"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeFailure(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		in = experiments.CreateInput(payload)
	}

	exp, err := h.app.Experiments.Create(r.Context(), in, staged)
	if err != nil {
		if errors.Is(err, experiments.ErrInvalid) {
			writeFailure(w, http.StatusBadRequest, clientMessage(err))
			return
		}
		h.serverError(w, "Failed to create experiment", err)
		return
	}

	metrics.RecordCreated("experiments")
	writeCreated(w, "Experiment created successfully", exp)
}

func (h *handler) experimentsByType(w http.ResponseWriter, r *http.Request) {
	exps, err := h.app.Experiments.ListByType(r.Context(), mux.Vars(r)["experimentType"])
	if err != nil {
		if errors.Is(err, experiments.ErrInvalid) {
			writeFailure(w, http.StatusBadRequest, "Invalid experiment type")
			return
		}
		h.serverError(w, "Failed to get experiments by type", err)
		return
	}
	writeList(w, exps, len(exps))
}

func (h *handler) experimentsByScientist(w http.ResponseWriter, r *http.Request) {
	exps, err := h.app.Experiments.ListByScientist(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		h.serverError(w, "Failed to get scientist experiments", err)
		return
	}
	writeList(w, exps, len(exps))
}

func (h *handler) verifyExperiment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var payload struct {
		Verified bool `json:"verified"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeFailure(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	exp, err := h.app.Experiments.SetVerified(r.Context(), id, payload.Verified)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Experiment does not exist")
			return
		}
		h.serverError(w, "Failed to verify experiment", err)
		return
	}

	message := "Experiment unverified"
	if payload.Verified {
		message = "Experiment verified"
	}
	writeMessage(w, http.StatusOK, message, exp)
}

func (h *handler) verifiedExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := h.app.Experiments.ListVerified(r.Context())
	if err != nil {
		h.serverError(w, "Failed to get verified experiments", err)
		return
	}
	writeList(w, exps, len(exps))
}

func (h *handler) experimentTypeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Experiments.TypeStats(r.Context())
	if err != nil {
		h.serverError(w, "Failed to get experiment type statistics", err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// Postcards ---------------------------------------------------------------------

func (h *handler) listPostcards(w http.ResponseWriter, r *http.Request) {
	limit, offset := query.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	page, total, err := h.app.Postcards.List(r.Context(), limit, offset)
	if err != nil {
		h.serverError(w, "Failed to get postcards", err)
		return
	}
	writeList(w, page, total)
}

func (h *handler) getPostcard(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	card, err := h.app.Postcards.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Postcard does not exist")
			return
		}
		h.serverError(w, "Failed to get postcard", err)
		return
	}
	writeData(w, http.StatusOK, card)
}

func (h *handler) createPostcard(w http.ResponseWriter, r *http.Request) {
	var in postcards.CreateInput
	var staged *upload.Staged

	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeFailure(w, http.StatusBadRequest, "Malformed multipart request")
			return
		}
		in = postcards.CreateInput{
			Name:          r.FormValue("name"),
			Email:         r.FormValue("email"),
			Content:       r.FormValue("content"),
			WalletAddress: r.FormValue("walletAddress"),
		}
		var ok bool
		staged, ok = h.stageFile(w, r, "image", h.postcardImages, "postcards")
		if !ok {
			return
		}
	} else {
		var payload struct {
			Name          string `json:"name"`
			Email         string `json:"email"`
			Content       string `json:"content"`
			WalletAddress string `json:"walletAddress"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeFailure(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		in = postcards.CreateInput(payload)
	}

	card, err := h.app.Postcards.Create(r.Context(), in, staged)
	if err != nil {
		if errors.Is(err, postcards.ErrInvalid) {
			writeFailure(w, http.StatusBadRequest, clientMessage(err))
			return
		}
		h.serverError(w, "Failed to create postcard", err)
		return
	}

	metrics.RecordCreated("postcards")
	writeCreated(w, "Postcard created successfully", card)
}

func (h *handler) postcardsByWallet(w http.ResponseWriter, r *http.Request) {
	cards, err := h.app.Postcards.ListByWallet(r.Context(), mux.Vars(r)["walletAddress"])
	if err != nil {
		h.serverError(w, "Failed to get user postcards", err)
		return
	}
	writeList(w, cards, len(cards))
}

func (h *handler) postcardsByBatch(w http.ResponseWriter, r *http.Request) {
	batchID, _ := strconv.Atoi(mux.Vars(r)["batchId"])
	cards, err := h.app.Postcards.ListByBatch(r.Context(), batchID)
	if err != nil {
		h.serverError(w, "Failed to get batch postcards", err)
		return
	}
	writeList(w, cards, len(cards))
}

func (h *handler) postcardStatusStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Postcards.StatusStats(r.Context())
	if err != nil {
		h.serverError(w, "Failed to get status statistics", err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// Token -------------------------------------------------------------------------

func (h *handler) tokenInfo(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, h.app.Token.Info())
}

func (h *handler) tokenPrice(w http.ResponseWriter, r *http.Request) {
	current, history := h.app.Token.Price(r.URL.Query().Get("timeRange"))
	writeData(w, http.StatusOK, map[string]any{
		"current": current,
		"history": history,
	})
}

func (h *handler) tokenHolders(w http.ResponseWriter, _ *http.Request) {
	total, distribution := h.app.Token.Holders()
	writeData(w, http.StatusOK, map[string]any{
		"total":        total,
		"distribution": distribution,
	})
}

func (h *handler) tokenTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := query.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	txs, total, err := h.app.Token.Transactions(r.URL.Query().Get("type"), limit, offset)
	if err != nil {
		if errors.Is(err, tokensvc.ErrInvalid) {
			writeFailure(w, http.StatusBadRequest, "Invalid transaction type")
			return
		}
		h.serverError(w, "Failed to get transaction history", err)
		return
	}
	writeList(w, txs, total)
}

// Helpers -----------------------------------------------------------------------

// stageFile pulls the named multipart file, if any, through the upload
// policy. The bool result reports whether the request may proceed; on
// rejection the response has already been written.
func (h *handler) stageFile(w http.ResponseWriter, r *http.Request, field string, policy upload.Policy, resource string) (*upload.Staged, bool) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Malformed file upload")
		return nil, false
	}
	defer file.Close()

	staged, err := policy.Stage(file, header)
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedType) || errors.Is(err, upload.ErrTooLarge) {
			metrics.RecordUploadRejected(resource)
			writeFailure(w, http.StatusBadRequest, clientMessage(err))
			return nil, false
		}
		h.serverError(w, "Failed to store uploaded file", err)
		return nil, false
	}

	metrics.RecordUploadStaged(resource)
	return staged, true
}

func (h *handler) serverError(w http.ResponseWriter, message string, err error) {
	h.log.WithError(err).Error(message)
	writeJSON(w, http.StatusInternalServerError, response{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// clientMessage strips the sentinel prefix so the client sees the plain
// validation message.
func clientMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

// response is the uniform JSON envelope.
type response struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, data any, count int) {
	writeJSON(w, http.StatusOK, response{Success: true, Count: &count, Data: data})
}

func writeCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, response{Success: true, Message: message, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}
