package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"service-meetings/internal/domain"
	"service-meetings/internal/filter"
	"service-meetings/internal/flat"
	"service-meetings/internal/service"
	"service-meetings/internal/timeparse"
)

type RecordsHandler struct {
	service *service.MeetingService
}

func NewRecordsHandler(svc *service.MeetingService) *RecordsHandler {
	return &RecordsHandler{service: svc}
}

func (h *RecordsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/records", h.handleRecords)
	mux.HandleFunc("/records/import", h.handleImport)
	mux.HandleFunc("/records/export", h.handleExport)
	mux.HandleFunc("/records/refresh", h.handleRefresh)
	mux.HandleFunc("/records/", h.handleRecordByID)
	mux.HandleFunc("/health", h.handleHealth)
}

type recordPayload struct {
	ID                 int64  `json:"id,omitempty"`
	Title              string `json:"title"`
	Organization       string `json:"organization"`
	Client             string `json:"client,omitempty"`
	Stakeholder        string `json:"stakeholder,omitempty"`
	Purpose            string `json:"purpose,omitempty"`
	Agenda             string `json:"agenda,omitempty"`
	MeetingDate        string `json:"meeting_date,omitempty"`
	StartTime          string `json:"start_time,omitempty"`
	TimeZone           string `json:"time_zone,omitempty"`
	MeetingType        string `json:"meeting_type,omitempty"`
	MeetingLink        string `json:"meeting_link,omitempty"`
	Location           string `json:"location,omitempty"`
	Status             string `json:"status,omitempty"`
	Priority           string `json:"priority,omitempty"`
	Attendees          string `json:"attendees,omitempty"`
	Guests             string `json:"guests,omitempty"`
	Notes              string `json:"notes,omitempty"`
	NextAction         string `json:"next_action,omitempty"`
	FollowUpDate       string `json:"follow_up_date,omitempty"`
	ReminderSent       string `json:"reminder_sent,omitempty"`
	CalendarSync       string `json:"calendar_sync,omitempty"`
	CalendarEventTitle string `json:"calendar_event_title,omitempty"`
	ManualStatus       bool   `json:"manual_status,omitempty"`
}

func (p recordPayload) toRecord() domain.Record {
	return domain.Record{
		ID:                 p.ID,
		Title:              strings.TrimSpace(p.Title),
		Organization:       strings.TrimSpace(p.Organization),
		Client:             strings.TrimSpace(p.Client),
		Stakeholder:        strings.TrimSpace(p.Stakeholder),
		Purpose:            strings.TrimSpace(p.Purpose),
		Agenda:             strings.TrimSpace(p.Agenda),
		MeetingDate:        timeparse.ParseDate(p.MeetingDate),
		StartTime:          strings.TrimSpace(p.StartTime),
		TimeZone:           strings.TrimSpace(p.TimeZone),
		MeetingType:        strings.TrimSpace(p.MeetingType),
		MeetingLink:        strings.TrimSpace(p.MeetingLink),
		Location:           strings.TrimSpace(p.Location),
		Status:             domain.Status(strings.TrimSpace(p.Status)),
		Priority:           strings.TrimSpace(p.Priority),
		Attendees:          strings.TrimSpace(p.Attendees),
		Guests:             strings.TrimSpace(p.Guests),
		Notes:              strings.TrimSpace(p.Notes),
		NextAction:         strings.TrimSpace(p.NextAction),
		FollowUpDate:       timeparse.ParseDate(p.FollowUpDate),
		ReminderSent:       strings.TrimSpace(p.ReminderSent),
		CalendarSync:       strings.TrimSpace(p.CalendarSync),
		CalendarEventTitle: strings.TrimSpace(p.CalendarEventTitle),
	}
}

func payloadFromRecord(rec domain.Record) recordPayload {
	return recordPayload{
		ID:                 rec.ID,
		Title:              rec.Title,
		Organization:       rec.Organization,
		Client:             rec.Client,
		Stakeholder:        rec.Stakeholder,
		Purpose:            rec.Purpose,
		Agenda:             rec.Agenda,
		MeetingDate:        rec.Value(domain.FieldMeetingDate),
		StartTime:          rec.StartTime,
		TimeZone:           rec.TimeZone,
		MeetingType:        rec.MeetingType,
		MeetingLink:        rec.MeetingLink,
		Location:           rec.Location,
		Status:             string(rec.Status),
		Priority:           rec.Priority,
		Attendees:          rec.Attendees,
		Guests:             rec.Guests,
		Notes:              rec.Notes,
		NextAction:         rec.NextAction,
		FollowUpDate:       rec.Value(domain.FieldFollowUpDate),
		ReminderSent:       rec.ReminderSent,
		CalendarSync:       rec.CalendarSync,
		CalendarEventTitle: rec.CalendarEventTitle,
		ManualStatus:       rec.ManualStatus,
	}
}

func (h *RecordsHandler) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *RecordsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := filter.Query{
		Status:    r.URL.Query().Get("status"),
		DateStart: timeparse.ParseDate(r.URL.Query().Get("date_start")),
		DateEnd:   timeparse.ParseDate(r.URL.Query().Get("date_end")),
		Search:    r.URL.Query().Get("q"),
	}

	records, err := h.service.List(requestKind(r), query)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	payloads := make([]recordPayload, 0, len(records))
	for _, rec := range records {
		payloads = append(payloads, payloadFromRecord(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": payloads, "count": len(payloads)})
}

func (h *RecordsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req recordPayload
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != "" && !domain.Status(req.Status).Valid() {
		writeError(w, http.StatusBadRequest, "unknown status "+req.Status)
		return
	}

	created, err := h.service.Create(r.Context(), requestKind(r), req.toRecord())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payloadFromRecord(created))
}

func (h *RecordsHandler) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	idText := strings.TrimPrefix(r.URL.Path, "/records/")
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := h.service.Get(requestKind(r), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payloadFromRecord(rec))
	case http.MethodPut:
		var req recordPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Status != "" && !domain.Status(req.Status).Valid() {
			writeError(w, http.StatusBadRequest, "unknown status "+req.Status)
			return
		}
		updated, err := h.service.Update(r.Context(), requestKind(r), id, req.toRecord())
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payloadFromRecord(updated))
	case http.MethodDelete:
		if err := h.service.Delete(r.Context(), requestKind(r), id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleImport accepts the raw tabular file as the request body. Merge
// mode and status overwriting come from query parameters.
func (h *RecordsHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	mode, err := domain.ParseMergeMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy := domain.MergePolicy{
		Mode:            mode,
		OverwriteStatus: r.URL.Query().Get("overwrite_status") == "true",
	}

	added, updated, err := h.service.Import(r.Context(), requestKind(r), r.Body, policy)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "updated": updated})
}

func (h *RecordsHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path, err := h.service.Export(requestKind(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path})
}

func (h *RecordsHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	changed, err := h.service.RefreshStatuses(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

func (h *RecordsHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"degraded": h.service.Degraded()})
}

func (h *RecordsHandler) writeServiceError(w http.ResponseWriter, err error) {
	var missing *flat.MissingColumnsError
	var validation *service.ValidationError
	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, missing.Error())
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "problems": validation.Problems})
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, service.ErrPersist):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func requestKind(r *http.Request) domain.Kind {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		return domain.KindMeeting
	}
	return domain.Kind(kind)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
