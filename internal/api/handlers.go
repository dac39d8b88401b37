package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/cassiap/servers/internal/analysis"
	"github.com/cassiap/servers/internal/dataset"
	"github.com/cassiap/servers/internal/models"
	"github.com/cassiap/servers/internal/service"
	"github.com/cassiap/servers/internal/state"
)

const MaxFileSize = 100 * 1024 * 1024 // 100MB

// Handler wires the engine to HTTP. Each request runs one synchronous
// pass over the session's dataset; nothing here mutates a loaded dataset.
type Handler struct {
	Sessions      *state.Store
	ExportService *service.ExportService
	DataDir       string // default-file discovery directory

	dbMu      sync.Mutex
	currentDB service.DataSource // active DB connection, if any
}

func NewHandler(sessions *state.Store, export *service.ExportService, dataDir string) *Handler {
	return &Handler{
		Sessions:      sessions,
		ExportService: export,
		DataDir:       dataDir,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Post("/upload", h.Upload)
	r.Post("/load-local", h.LoadLocal)

	r.Post("/db/connect", h.ConnectDB)
	r.Get("/db/tables", h.ListTables)
	r.Post("/db/load", h.LoadTable)

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/columns", h.GetColumns)
		r.Get("/values", h.GetValues)
		r.Get("/profile", h.GetProfile)
		r.Post("/filter", h.FilterData)
		r.Get("/detail", h.GetDetail)
		r.Get("/aggregate", h.GetAggregate)
		r.Post("/export/csv", h.ExportCSV)
		r.Post("/export/xlsx", h.ExportXLSX)
	})
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Loading
// ============================================================================

// Upload accepts a multipart .xlsx/.xls/.csv file and loads it into a new
// session (or replaces the dataset of the session named by session_id).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	sess, err := h.Sessions.CreateFromBytes(r.FormValue("session_id"), header.Filename, data)
	if err != nil {
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to load %q: %v", header.Filename, err))
		return
	}

	log.Printf("loaded %q: %d rows, %d columns", header.Filename, len(sess.Dataset.Rows), len(sess.Dataset.Columns))
	h.writeLoadResponse(w, sess, header.Filename)
}

// LoadLocal loads a file from the data directory: an explicit path, or the
// discovered default (servidores.xlsx, else the first .xlsx).
func (h *Handler) LoadLocal(w http.ResponseWriter, r *http.Request) {
	var req models.LoadLocalRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	path := req.Path
	if path == "" {
		discovered, err := dataset.DiscoverLocal(h.DataDir)
		if err != nil {
			writeError(w, http.StatusNotFound,
				"no source file available: upload a file or place an .xlsx in the data directory")
			return
		}
		path = discovered
	}

	ds, err := dataset.LoadFile(path)
	if err != nil {
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to load %q: %v", path, err))
		return
	}

	sess := h.Sessions.Create(ds)
	h.writeLoadResponse(w, sess, ds.Name)
}

func (h *Handler) writeLoadResponse(w http.ResponseWriter, sess *state.Session, name string) {
	writeJSON(w, models.LoadResponse{
		SessionID: sess.ID,
		Message:   fmt.Sprintf("File '%s' loaded successfully", name),
		Rows:      len(sess.Dataset.Rows),
		Columns:   len(sess.Dataset.Columns),
		Warnings:  sess.Warnings,
	})
}

// ============================================================================
// Database source
// ============================================================================

// setDataSource swaps the active connection, closing the previous one.
// Requests read the connection through dataSource, so a swap never races
// an in-flight table listing or fetch.
func (h *Handler) setDataSource(ds service.DataSource) {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	if h.currentDB != nil {
		h.currentDB.Close()
	}
	h.currentDB = ds
}

func (h *Handler) dataSource() service.DataSource {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	return h.currentDB
}

func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var config service.DataSourceConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if config.Type != "postgres" {
		writeError(w, http.StatusBadRequest, "only postgres is supported currently")
		return
	}

	ds := &service.PostgresDataSource{}
	if err := ds.Connect(config); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to connect: %v", err))
		return
	}

	h.setDataSource(ds)

	writeJSON(w, map[string]string{"status": "connected"})
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	db := h.dataSource()
	if db == nil {
		writeError(w, http.StatusBadRequest, "no database connection")
		return
	}

	tables, err := db.ListTables()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("error listing tables: %v", err))
		return
	}

	writeJSON(w, models.TablesResponse{Tables: tables})
}

// LoadTable fetches an inventory table from the connected database and
// loads it into a session, same as an uploaded file.
func (h *Handler) LoadTable(w http.ResponseWriter, r *http.Request) {
	db := h.dataSource()
	if db == nil {
		writeError(w, http.StatusBadRequest, "no database connection")
		return
	}

	var req models.LoadTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.TableName == "" {
		writeError(w, http.StatusBadRequest, "table_name is required")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10000
	}

	headers, rows, err := db.FetchTable(req.TableName, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("error fetching table: %v", err))
		return
	}

	ds := dataset.New(req.TableName, headers, rows)
	if req.SessionID != "" {
		h.Sessions.Delete(req.SessionID)
	}
	sess := h.Sessions.Create(ds)
	h.writeLoadResponse(w, sess, req.TableName)
}

// ============================================================================
// Session inspection
// ============================================================================

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *state.Session {
	sess, err := h.Sessions.MustGet(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil
	}
	return sess
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	writeJSON(w, models.StatusResponse{
		SessionID: sess.ID,
		Filename:  sess.Dataset.Name,
		Rows:      len(sess.Dataset.Rows),
		Columns:   len(sess.Dataset.Columns),
		Warnings:  sess.Warnings,
	})
}

func (h *Handler) GetColumns(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	ds := sess.Dataset

	resp := models.ColumnsResponse{
		CanonicalToOriginal: ds.CanonicalToOriginal(),
		OriginalToCanonical: ds.OriginalToCanonical(),
		MissingEssential:    sess.Roles.MissingEssential(),
	}
	for _, c := range ds.Columns {
		resp.Columns = append(resp.Columns, models.ColumnInfo{Key: c.Key, Original: c.Original})
	}
	for _, role := range service.Roles {
		info := models.RoleInfo{Role: string(role)}
		if key := sess.Roles.Key(role); key != "" {
			info.Key = key
			info.Original = ds.CanonicalToOriginal()[key]
			info.Assigned = true
		} else {
			info.Suggestions = service.SuggestColumns(role, ds.Keys())
		}
		resp.Roles = append(resp.Roles, info)
	}

	writeJSON(w, resp)
}

// GetValues returns the sorted distinct non-null values of a role-backed
// column, for populating filter widgets.
func (h *Handler) GetValues(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	role := service.Role(r.URL.Query().Get("role"))
	key := sess.Roles.Key(role)
	if key == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("role %q is not assigned for this dataset", role))
		return
	}

	writeJSON(w, models.ValuesResponse{
		Role:   string(role),
		Key:    key,
		Values: sess.Dataset.DistinctValues(key),
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, analysis.ProfileDataset(sess.Dataset))
}

// ============================================================================
// Filtering
// ============================================================================

// FilterData applies one FilterState snapshot and returns the requested
// page. Zero surviving rows is a normal result, not an error.
func (h *Handler) FilterData(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	ds := sess.Dataset

	var req models.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	view := service.Apply(ds, sess.Roles, req.FilterState)
	start, end := service.Page(view, req.PageSize, req.PageIndex)

	canonical := ds.CanonicalToOriginal()
	rows := make([]map[string]string, 0, end-start)
	for _, idx := range view.Indices[start:end] {
		row := make(map[string]string, len(ds.Columns))
		for _, c := range ds.Columns {
			row[canonical[c.Key]] = ds.Value(idx, c.Key).String()
		}
		rows = append(rows, row)
	}

	distinct := make(map[string]int)
	for _, role := range service.Roles {
		if key := sess.Roles.Key(role); key != "" {
			distinct[string(role)] = ds.DistinctCount(key)
		}
	}

	writeJSON(w, models.FilterResponse{
		TotalRows:      len(ds.Rows),
		FilteredRows:   view.Len(),
		DistinctCounts: distinct,
		PageStart:      start,
		PageEnd:        end,
		Rows:           rows,
	})
}

// GetDetail returns the full record (all columns, original headers) for
// the server whose identifier column equals the requested value.
func (h *Handler) GetDetail(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	ds := sess.Dataset

	idKey := sess.Roles.IdentifierKey()
	if idKey == "" {
		writeError(w, http.StatusBadRequest, "could not identify the server column (Hostname/Nome)")
		return
	}

	value := r.URL.Query().Get("value")
	if value == "" {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	for i := range ds.Rows {
		if ds.Value(i, idKey).String() != value {
			continue
		}
		resp := models.DetailResponse{Identifier: value}
		for _, c := range ds.Columns {
			resp.Fields = append(resp.Fields, models.DetailField{
				Field: c.Original,
				Value: ds.Value(i, c.Key).String(),
			})
		}
		writeJSON(w, resp)
		return
	}

	writeError(w, http.StatusNotFound, fmt.Sprintf("no record found for %q", value))
}

// GetAggregate counts filtered rows per value of a role column, largest
// first, for the per-system and per-environment summaries.
func (h *Handler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	ds := sess.Dataset

	role := service.Role(r.URL.Query().Get("role"))
	key := sess.Roles.Key(role)
	if key == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("role %q is not assigned for this dataset", role))
		return
	}

	view, ok := h.viewFromQuery(w, r, sess)
	if !ok {
		return
	}

	counts := make(map[string]int)
	for _, i := range view.Indices {
		cell := ds.Value(i, key)
		if cell.IsNull() {
			continue
		}
		counts[cell.String()]++
	}

	buckets := make([]models.AggregateBucket, 0, len(counts))
	for value, count := range counts {
		buckets = append(buckets, models.AggregateBucket{Value: value, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})

	if limit := getIntParam(r, "limit", 0); limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}

	writeJSON(w, models.AggregateResponse{Role: string(role), Key: key, Buckets: buckets})
}

// viewFromQuery optionally narrows by a filter state passed as the
// "filters" query parameter (JSON-encoded), defaulting to the full view.
func (h *Handler) viewFromQuery(w http.ResponseWriter, r *http.Request, sess *state.Session) (service.View, bool) {
	raw := r.URL.Query().Get("filters")
	if raw == "" {
		return service.NewView(sess.Dataset), true
	}

	var fs service.FilterState
	if err := json.Unmarshal([]byte(raw), &fs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filters parameter")
		return service.View{}, false
	}
	return service.Apply(sess.Dataset, sess.Roles, fs), true
}

// ============================================================================
// Export
// ============================================================================

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	view, ok := h.filteredView(w, r, sess)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="servidores_filtrado.csv"`)
	if err := h.ExportService.WriteCSV(w, view); err != nil {
		log.Printf("csv export failed: %v", err)
	}
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	view, ok := h.filteredView(w, r, sess)
	if !ok {
		return
	}

	data, err := h.ExportService.WriteXLSX(view)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("spreadsheet export failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="servidores_filtrado.xlsx"`)
	w.Write(data)
}

// filteredView decodes the FilterState body of an export request. An
// empty body exports the whole dataset.
func (h *Handler) filteredView(w http.ResponseWriter, r *http.Request, sess *state.Session) (service.View, bool) {
	var fs service.FilterState
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&fs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return service.View{}, false
		}
	}
	return service.Apply(sess.Dataset, sess.Roles, fs), true
}

// ============================================================================
// Helpers
// ============================================================================

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
