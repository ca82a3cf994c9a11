package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/core"
	"apshelper.com/job-helper/internal/model"
	"apshelper.com/job-helper/internal/store"
)

type APIHandler struct {
	dbStore           *store.SQLiteStore
	chatService       *core.ChatService
	entryService      *core.EntryService
	assessmentService *core.AssessmentService
	validate          *validator.Validate
	aiKeyEnv          string
	logger            *zap.Logger
}

// NewAPIHandler wires the services into HTTP handlers. aiKeyEnv names the
// variable reported when an AI route is called without a provider key.
func NewAPIHandler(db *store.SQLiteStore, cs *core.ChatService, es *core.EntryService, as *core.AssessmentService, aiKeyEnv string, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		dbStore:           db,
		chatService:       cs,
		entryService:      es,
		assessmentService: as,
		validate:          newValidator(),
		aiKeyEnv:          aiKeyEnv,
		logger:            logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names, which is what clients send.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("apslevel", func(fl validator.FieldLevel) bool {
		return model.ValidAPSLevel(fl.Field().String())
	})
	return v
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// It writes the 400 response itself and reports whether the caller may go on.
func (h *APIHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "apslevel":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(model.APSLevels, ", ")))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeAIError reports a failed AI-backed operation. prefix is the
// operation's error label, e.g. "Chat error".
func (h *APIHandler) writeAIError(w http.ResponseWriter, prefix string, err error) {
	if errors.Is(err, core.ErrAIUnavailable) {
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("API key not configured. Please add %s to .env", h.aiKeyEnv))
		return
	}
	h.logger.Error(prefix, zap.Error(err))
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", prefix, err))
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "APS Job Helper API"})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.dbStore.Ping(r.Context()); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Entries

type StoreRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *APIHandler) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entryService.List(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		h.logger.Error("Error listing entries", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := h.entryService.Tags(r.Context())
	if err != nil {
		h.logger.Error("Error listing tags", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list tags")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *APIHandler) StoreEntryHandler(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	entry, err := h.entryService.Store(r.Context(), req.Content)
	if err != nil {
		h.writeAIError(w, "Store error", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *APIHandler) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.entryService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		h.logger.Error("Error deleting entry", zap.String("entry_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete entry")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Entry deleted successfully"})
}

// Chat

type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	reply, sessionID, err := h.chatService.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.writeAIError(w, "Chat error", err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply, SessionID: sessionID})
}

func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	messages, err := h.chatService.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Error loading chat history", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// Work examples

func (h *APIHandler) ListWorkExamplesHandler(w http.ResponseWriter, r *http.Request) {
	examples, err := h.assessmentService.ListWorkExamples(r.Context())
	if err != nil {
		h.logger.Error("Error listing work examples", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list work examples")
		return
	}
	writeJSON(w, http.StatusOK, examples)
}

func (h *APIHandler) CreateWorkExampleHandler(w http.ResponseWriter, r *http.Request) {
	var in model.WorkExampleInput
	if !h.decodeAndValidate(w, r, &in) {
		return
	}
	ex, err := h.assessmentService.CreateWorkExample(r.Context(), in)
	if err != nil {
		h.logger.Error("Error creating work example", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create work example")
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (h *APIHandler) UpdateWorkExampleHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in model.WorkExampleInput
	if !h.decodeAndValidate(w, r, &in) {
		return
	}
	ex, err := h.assessmentService.UpdateWorkExample(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Work example not found")
			return
		}
		h.logger.Error("Error updating work example", zap.String("work_example_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update work example")
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (h *APIHandler) DeleteWorkExampleHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.assessmentService.DeleteWorkExample(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Work example not found")
			return
		}
		h.logger.Error("Error deleting work example", zap.String("work_example_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete work example")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Work example deleted successfully"})
}

func (h *APIHandler) FiltersHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := h.assessmentService.FilterOptions(r.Context())
	if err != nil {
		h.logger.Error("Error loading filter options", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load filter options")
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// Assessments

type AssessRequest struct {
	ExampleText string `json:"example_text" validate:"required"`
	APSLevel    string `json:"aps_level" validate:"required,apslevel"`
}

type AssessResponse struct {
	Assessment string `json:"assessment"`
}

type SaveAssessmentRequest struct {
	WorkExampleID string `json:"work_example_id,omitempty"`
	ExampleText   string `json:"example_text" validate:"required"`
	APSLevel      string `json:"aps_level" validate:"required,apslevel"`
	Assessment    string `json:"assessment" validate:"required"`
}

func (h *APIHandler) AssessHandler(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	out, err := h.assessmentService.Assess(r.Context(), req.ExampleText, req.APSLevel)
	if err != nil {
		h.writeAIError(w, "Assessment error", err)
		return
	}
	writeJSON(w, http.StatusOK, AssessResponse{Assessment: out})
}

func (h *APIHandler) SaveAssessmentHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveAssessmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	a := model.Assessment{
		WorkExampleID: req.WorkExampleID,
		ExampleText:   req.ExampleText,
		APSLevel:      req.APSLevel,
		Assessment:    req.Assessment,
	}
	if err := h.assessmentService.SaveAssessment(r.Context(), &a); err != nil {
		h.logger.Error("Error saving assessment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save assessment")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *APIHandler) ListAssessmentsHandler(w http.ResponseWriter, r *http.Request) {
	assessments, err := h.assessmentService.ListAssessments(r.Context(), r.URL.Query().Get("work_example_id"))
	if err != nil {
		h.logger.Error("Error listing assessments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list assessments")
		return
	}
	writeJSON(w, http.StatusOK, assessments)
}
