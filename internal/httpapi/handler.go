package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/textpilot/bulksms-backend/internal/dispatch"
	appErrors "github.com/textpilot/bulksms-backend/internal/errors"
	"github.com/textpilot/bulksms-backend/internal/model"
	"github.com/textpilot/bulksms-backend/internal/store"
)

// Handler holds the dependencies for campaign-related HTTP handlers.
type Handler struct {
	Dispatcher *dispatch.Dispatcher
	Store      store.CampaignStore
	Contacts   store.ContactStore
	Templates  store.TemplateStore
	Log        *zap.Logger
}

type createCampaignRequest struct {
	Name            string                  `json:"name"`
	Provider        model.Provider          `json:"provider"`
	Compliance      model.ComplianceMode    `json:"compliance"`
	TemplateID      string                  `json:"template_id,omitempty"`
	RawMessage      string                  `json:"raw_message,omitempty"`
	RegulatoryID    string                  `json:"regulatory_id,omitempty"`
	Mappings        []model.VariableMapping `json:"mappings,omitempty"`
	Recipients      []model.Recipient       `json:"recipients,omitempty"`
	RecipientListID string                  `json:"recipient_list_id,omitempty"`
	ScheduledAt     *time.Time              `json:"scheduled_at,omitempty"`
}

// CreateCampaign compiles and dispatches a campaign in one pass and returns
// the dispatch summary.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := model.CampaignRequest{
		Name:         body.Name,
		Provider:     body.Provider,
		Compliance:   body.Compliance,
		RawMessage:   body.RawMessage,
		RegulatoryID: body.RegulatoryID,
		Mappings:     body.Mappings,
		Recipients:   body.Recipients,
		ScheduledAt:  body.ScheduledAt,
	}

	if body.TemplateID != "" {
		tpl, err := h.Templates.GetTemplate(r.Context(), body.TemplateID)
		if err != nil {
			http.Error(w, "failed to fetch template: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Template = tpl
	}

	if len(req.Recipients) == 0 && body.RecipientListID != "" {
		recipients, err := h.Contacts.GetRecipients(r.Context(), body.RecipientListID)
		if err != nil {
			http.Error(w, "failed to fetch recipients: "+err.Error(), http.StatusInternalServerError)
			return
		}
		req.Recipients = recipients
	}

	summary, err := h.Dispatcher.CreateAndDispatch(r.Context(), req, optionsFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// ListCampaigns returns a paginated list of campaigns.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := h.Store.List(r.Context(), offset, pageSize,
		r.URL.Query().Get("provider"), r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "failed to fetch campaigns: "+err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": campaigns,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}

// GetCampaign returns one campaign with its per-recipient outcomes.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	campaign, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// DeleteCampaign removes a campaign record and its outcomes.
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewRequest struct {
	Provider   model.Provider          `json:"provider"`
	TemplateID string                  `json:"template_id,omitempty"`
	RawMessage string                  `json:"raw_message,omitempty"`
	Mappings   []model.VariableMapping `json:"mappings,omitempty"`
	Recipient  model.Recipient         `json:"recipient"`
}

// Preview renders the message for one recipient without dispatching. The
// rendered text is exactly what dispatch would send.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var body previewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	text := body.RawMessage
	if body.TemplateID != "" {
		tpl, err := h.Templates.GetTemplate(r.Context(), body.TemplateID)
		if err != nil {
			http.Error(w, "failed to fetch template: "+err.Error(), http.StatusBadRequest)
			return
		}
		text = tpl.RawText
	}

	rendered, unknown := h.Dispatcher.Preview(body.Provider, text, body.Mappings, body.Recipient)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rendered_message":     rendered,
		"unknown_placeholders": unknown,
		"segments":             h.Dispatcher.EstimateSegments(rendered),
	})
}

type testSendRequest struct {
	Provider  model.Provider  `json:"provider"`
	Message   string          `json:"message"`
	Recipient model.Recipient `json:"recipient"`
}

// TestSend sends one rendered message to one recipient without creating a
// campaign record.
func (h *Handler) TestSend(w http.ResponseWriter, r *http.Request) {
	var body testSendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := h.Dispatcher.TestSend(r.Context(), body.Provider, body.Message, body.Recipient, optionsFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// EstimateSegments computes the segment count for a rendered message.
func (h *Handler) EstimateSegments(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Dispatcher.EstimateSegments(body.Message))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var validationErr *appErrors.ValidationError
	var alreadyErr *appErrors.AlreadyDispatchedError
	var notFoundErr *appErrors.ErrCampaignNotFound

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":    validationErr.Error(),
			"code":     validationErr.Code,
			"variable": validationErr.Variable,
		})
	case errors.As(err, &alreadyErr):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &notFoundErr):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.Log.Error("request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
