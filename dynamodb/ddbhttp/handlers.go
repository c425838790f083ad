package ddbhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// maxBodyBytes bounds request bodies; a full 100 item transaction fits easily.
const maxBodyBytes = 4 << 20

// APIHandler provides the JSON endpoints for one table.
type APIHandler struct {
	db ddbiface.Database
}

func NewAPIHandler(db ddbiface.Database) *APIHandler {
	return &APIHandler{db: db}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/table", h.describeTable)
	mux.HandleFunc("POST /api/table", h.createTable)
	mux.HandleFunc("DELETE /api/table", h.deleteTable)
	mux.HandleFunc("GET /api/items", h.scanItems)
	mux.HandleFunc("PUT /api/items", h.putItem)
	mux.HandleFunc("GET /api/items/{pk}/{sk}", h.getItem)
	mux.HandleFunc("POST /api/query", h.queryItems)
	mux.HandleFunc("POST /api/transact", h.transactWrite)
}

func (h *APIHandler) describeTable(w http.ResponseWriter, r *http.Request) {
	desc, err := h.db.DescribeTable(r.Context())
	if err != nil {
		writeDBError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (h *APIHandler) createTable(w http.ResponseWriter, r *http.Request) {
	desc, err := h.db.CreateTable(r.Context())
	if err != nil {
		writeDBError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, desc)
}

func (h *APIHandler) deleteTable(w http.ResponseWriter, r *http.Request) {
	desc, err := h.db.DeleteTable(r.Context())
	if err != nil {
		writeDBError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

// scanItems scans the table, or the index named by ?index=. ?limit= bounds
// the result; without it every item is returned.
func (h *APIHandler) scanItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var limit *int32
	if s := q.Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit: "+err.Error())
			return
		}
		l := int32(n)
		limit = &l
	}

	out, err := h.db.Scan(r.Context(), optional(q.Get("index")), limit)
	if err != nil {
		writeDBError(w, err)
		return
	}
	writeItems(w, out.Items, out.Count)
}

func (h *APIHandler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.db.GetItem(r.Context(), r.PathValue("pk"), r.PathValue("sk"))
	if err != nil {
		writeDBError(w, err)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	body, err := recordToJSON(item)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": body})
}

func (h *APIHandler) putItem(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decodeBody(w, r, &body) {
		return
	}
	item, err := jsonToRecord(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.db.PutItem(r.Context(), item); err != nil {
		writeDBError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": body})
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Index    string `json:"index,omitempty"`
	PK       string `json:"pk"`
	SKPrefix string `json:"skPrefix,omitempty"`
}

func (h *APIHandler) queryItems(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.db.Query(r.Context(), optional(req.Index), req.PK, req.SKPrefix)
	if err != nil {
		writeDBError(w, err)
		return
	}
	writeItems(w, out.Items, out.Count)
}

// TransactRequest is the body of POST /api/transact. Each action sets
// exactly one of ConditionCheck and Put.
type TransactRequest struct {
	Items []TransactAction `json:"items"`
}

type TransactAction struct {
	ConditionCheck *ConditionCheckAction `json:"conditionCheck,omitempty"`
	Put            map[string]any        `json:"put,omitempty"`
}

// ConditionCheckAction asserts that an item exists at (PK, SK) with the given model.
type ConditionCheckAction struct {
	PK    string `json:"pk"`
	SK    string `json:"sk"`
	Model string `json:"model"`
}

func (h *APIHandler) transactWrite(w http.ResponseWriter, r *http.Request) {
	var req TransactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]ddbiface.TransactItem, 0, len(req.Items))
	for i, action := range req.Items {
		var item ddbiface.TransactItem
		if c := action.ConditionCheck; c != nil {
			item.ConditionCheck = &ddbiface.ConditionCheck{
				Key:   table.PrimaryKey{PK: c.PK, SK: c.SK},
				Model: c.Model,
			}
		}
		if action.Put != nil {
			rec, err := jsonToRecord(action.Put)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("item %d: %v", i, err))
				return
			}
			item.Put = &ddbiface.PutAction{Item: rec}
		}
		items = append(items, item)
	}

	if err := h.db.TransactWriteItems(r.Context(), items); err != nil {
		writeDBError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"written": len(items)})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func recordToJSON(rec table.Record) (map[string]any, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(rec, &m); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return m, nil
}

func jsonToRecord(m map[string]any) (table.Record, error) {
	rec, err := attributevalue.MarshalMap(m)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return rec, nil
}

func writeItems(w http.ResponseWriter, items []table.Record, count int32) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, err := recordToJSON(item)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": count})
}

// writeDBError maps Database errors onto HTTP status codes.
func writeDBError(w http.ResponseWriter, err error) {
	var canceled *ddbiface.TransactionCanceledError
	switch {
	case errors.As(err, &canceled):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  err.Error(),
			"index":  canceled.Index,
			"reason": canceled.Reason,
		})
	case errors.Is(err, ddbiface.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ddbiface.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ddbiface.ErrValidation), errors.Is(err, ddbiface.ErrUnsupportedIndex):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
