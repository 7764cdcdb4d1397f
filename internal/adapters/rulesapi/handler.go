// Package rulesapi exposes the rule governance service over HTTP/JSON.
package rulesapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rulecore/internal/core"
	"rulecore/pkg/domain"
)

// Handler provides HTTP access to rule lifecycle, precedence,
// classification, auto-mode, evaluation, and archive operations.
type Handler struct {
	Service *core.Service
}

// NewHandler constructs a rules HTTP handler.
func NewHandler(service *core.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "rule service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/rules/grouped":
		h.handleGrouped(w, r)
	case path == "/api/v1/rules/global":
		h.handleGlobal(w, r)
	case path == "/api/v1/rules/reorder":
		h.handleReorder(w, r, false)
	case path == "/api/v1/rules/reorder_global":
		h.handleReorder(w, r, true)
	case path == "/api/v1/rules":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleCreate(w, r)
	case strings.HasPrefix(path, "/api/v1/rules/"):
		h.handleRule(w, r, strings.TrimPrefix(path, "/api/v1/rules/"))
	case strings.HasPrefix(path, "/api/v1/sectors/"):
		h.handleSector(w, r, strings.TrimPrefix(path, "/api/v1/sectors/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleGrouped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	ruleType := domain.RuleType(r.URL.Query().Get("type"))
	if !ruleType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown rule type %q", ruleType))
		return
	}
	grouped, err := h.Service.GroupedRules(r.Context(), scope, ruleType, r.URL.Query().Get("active_only") == "true")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": grouped})
}

func (h *Handler) handleGlobal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ruleType := domain.RuleType(r.URL.Query().Get("type"))
	if !ruleType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown rule type %q", ruleType))
		return
	}
	rules, err := h.Service.GlobalRules(r.Context(), ruleType, r.URL.Query().Get("active_only") == "true")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

// rulePayload is the wire shape for create and update requests. Priority is
// never client-assigned: inserts append, reorders renumber.
type rulePayload struct {
	Scope     domain.Scope      `json:"scope"`
	Type      domain.RuleType   `json:"type"`
	Rigidity  domain.Rigidity   `json:"rigidity"`
	Title     string            `json:"title"`
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Active    *bool             `json:"active"`
	Validity  *domain.Window    `json:"validity"`
	Condition *domain.Condition `json:"condition"`
	Action    *domain.Action    `json:"action"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req rulePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule payload")
		return
	}
	rule := domain.Rule{
		Scope:     req.Scope,
		Type:      req.Type,
		Rigidity:  req.Rigidity,
		Title:     req.Title,
		Question:  req.Question,
		Answer:    req.Answer,
		Active:    req.Active == nil || *req.Active,
		Validity:  req.Validity,
		Condition: req.Condition,
		Action:    req.Action,
	}
	created, err := h.Service.CreateRule(r.Context(), rule)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"rule": created})
}

func (h *Handler) handleRule(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			rule, err := h.Service.GetRule(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"rule": rule})
		case http.MethodPut:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			if err := h.Service.DeleteRule(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if len(segments) != 2 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	switch segments[1] {
	case "toggle":
		rule, err := h.Service.ToggleRule(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rule": rule})
	case "deactivate":
		rule, err := h.Service.DeactivateRule(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rule": rule})
	case "clone":
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "invalid clone payload")
			return
		}
		clone, err := h.Service.CloneRule(r.Context(), id, req.Title)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"rule": clone})
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req rulePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule payload")
		return
	}
	updated, err := h.Service.UpdateRule(r.Context(), id, func(rule *domain.Rule) error {
		if req.Scope.Kind != "" {
			rule.Scope = req.Scope
		}
		if req.Type != "" {
			rule.Type = req.Type
		}
		if req.Rigidity != "" {
			rule.Rigidity = req.Rigidity
		}
		rule.Title = req.Title
		rule.Question = req.Question
		rule.Answer = req.Answer
		if req.Active != nil {
			rule.Active = *req.Active
		}
		rule.Validity = req.Validity
		rule.Condition = req.Condition
		rule.Action = req.Action
		return nil
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rule": updated})
}

type reorderRequest struct {
	SectorID string          `json:"sector_id,omitempty"`
	Type     domain.RuleType `json:"type"`
	Rigidity domain.Rigidity `json:"rigidity"`
	RuleIDs  []string        `json:"rule_ids"`
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request, global bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid reorder payload")
		return
	}
	scope := domain.GlobalScope()
	if !global {
		if req.SectorID == "" {
			writeError(w, http.StatusBadRequest, "sector_id is required")
			return
		}
		scope = domain.SectorScope(req.SectorID)
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown rule type %q", req.Type))
		return
	}
	if !req.Rigidity.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown rigidity %q", req.Rigidity))
		return
	}
	partition := domain.PartitionKey{Scope: scope, Type: req.Type, Rigidity: req.Rigidity}
	reordered, err := h.Service.Reorder(r.Context(), partition, req.RuleIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": reordered})
}

func (h *Handler) handleSector(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	if len(segments) < 2 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}
	sectorID := segments[0]

	switch {
	case len(segments) == 2 && segments[1] == "auto_mode":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		report, err := h.Service.ValidateAutoMode(r.Context(), sectorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case len(segments) == 2 && segments[1] == "evaluate":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleEvaluate(w, r, sectorID)
	case len(segments) == 2 && segments[1] == "archives":
		switch r.Method {
		case http.MethodPost:
			info, err := h.Service.ArchiveRuleSet(r.Context(), sectorID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"archive": info})
		case http.MethodGet:
			infos, err := h.Service.ListArchives(r.Context(), sectorID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"archives": infos})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case len(segments) == 3 && segments[1] == "archives":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		// The segment is the key basename from the list response; the bare
		// archive id (without the .json extension) is accepted too.
		name := segments[2]
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		key := fmt.Sprintf("archives/%s/%s", sectorID, name)
		archive, err := h.Service.GetArchive(r.Context(), key)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"archive": archive})
	default:
		http.NotFound(w, r)
	}
}

type evaluateRequest struct {
	Values  map[string]decimal.Decimal `json:"values"`
	Weekday json.RawMessage            `json:"weekday"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request, sectorID string) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid evaluation payload")
		return
	}
	weekday, err := parseWeekday(req.Weekday)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snapshot := domain.DriverSnapshot{Values: req.Values, Weekday: weekday}
	effects, err := h.Service.Evaluate(r.Context(), sectorID, snapshot)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(effects))
	for _, effect := range effects {
		out = append(out, effectEnvelope(effect))
	}
	writeJSON(w, http.StatusOK, map[string]any{"effects": out})
}

// effectEnvelope tags each effect with its kind so clients can decode the
// closed union without reflection.
func effectEnvelope(effect domain.Effect) map[string]any {
	return map[string]any{
		"kind":   effect.Kind(),
		"effect": effect,
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseWeekday accepts both a lowercase day name and the numeric weekday
// (0=Sunday), matching how conditions serialize.
func parseWeekday(raw json.RawMessage) (time.Weekday, error) {
	if len(raw) == 0 {
		return 0, errors.New("weekday is required")
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		if wd, ok := weekdayNames[strings.ToLower(name)]; ok {
			return wd, nil
		}
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	var num int
	if err := json.Unmarshal(raw, &num); err == nil {
		if num < int(time.Sunday) || num > int(time.Saturday) {
			return 0, fmt.Errorf("weekday out of range: %d", num)
		}
		return time.Weekday(num), nil
	}
	return 0, errors.New("weekday must be a name or 0-6")
}

func scopeFromQuery(w http.ResponseWriter, r *http.Request) (domain.Scope, bool) {
	switch r.URL.Query().Get("scope") {
	case "global":
		return domain.GlobalScope(), true
	case "sector":
		sectorID := r.URL.Query().Get("sector_id")
		if sectorID == "" {
			writeError(w, http.StatusBadRequest, "sector_id is required for sector scope")
			return domain.Scope{}, false
		}
		return domain.SectorScope(sectorID), true
	default:
		writeError(w, http.StatusBadRequest, "scope must be global or sector")
		return domain.Scope{}, false
	}
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		notFound    domain.NotFoundError
		validation  domain.ValidationError
		mismatch    domain.PartitionMismatchError
		conflict    domain.ConflictError
		unavailable domain.UnavailableError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      mismatch.Error(),
			"partition":  mismatch.Partition,
			"missing":    mismatch.Missing,
			"unexpected": mismatch.Unexpected,
			"cross_tier": mismatch.CrossTier,
		})
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusServiceUnavailable, unavailable.Error())
	case errors.Is(err, core.ErrNoArchiveStore):
		writeError(w, http.StatusNotImplemented, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
