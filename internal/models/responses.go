// Package models holds the request/response shapes of the HTTP API.
package models

import "github.com/cassiap/servers/internal/service"

// LoadResponse is returned after a file or table is loaded into a session.
type LoadResponse struct {
	SessionID string   `json:"session_id"`
	Message   string   `json:"message"`
	Rows      int      `json:"rows"`
	Columns   int      `json:"columns"`
	Warnings  []string `json:"warnings,omitempty"`
}

// StatusResponse is returned by /sessions/{id}/status.
type StatusResponse struct {
	SessionID string   `json:"session_id"`
	Filename  string   `json:"filename"`
	Rows      int      `json:"rows"`
	Columns   int      `json:"columns"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ColumnInfo pairs a canonical key with its original header.
type ColumnInfo struct {
	Key      string `json:"key"`
	Original string `json:"original"`
}

// RoleInfo describes how one semantic role resolved.
type RoleInfo struct {
	Role        string   `json:"role"`
	Key         string   `json:"key,omitempty"`
	Original    string   `json:"original,omitempty"`
	Assigned    bool     `json:"assigned"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ColumnsResponse is returned by /sessions/{id}/columns.
type ColumnsResponse struct {
	Columns             []ColumnInfo      `json:"columns"`
	CanonicalToOriginal map[string]string `json:"canonical_to_original"`
	OriginalToCanonical map[string]string `json:"original_to_canonical"`
	Roles               []RoleInfo        `json:"roles"`
	MissingEssential    []string          `json:"missing_essential,omitempty"`
}

// ValuesResponse is returned by /sessions/{id}/values.
type ValuesResponse struct {
	Role   string   `json:"role"`
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// FilterRequest carries one FilterState snapshot plus the requested page.
type FilterRequest struct {
	service.FilterState
	PageSize  int `json:"page_size"`
	PageIndex int `json:"page_index"`
}

// FilterResponse is returned by /sessions/{id}/filter.
type FilterResponse struct {
	TotalRows      int                 `json:"total_rows"`
	FilteredRows   int                 `json:"filtered_rows"`
	DistinctCounts map[string]int      `json:"distinct_counts,omitempty"`
	PageStart      int                 `json:"page_start"`
	PageEnd        int                 `json:"page_end"`
	Rows           []map[string]string `json:"rows"`
}

// DetailResponse is returned by /sessions/{id}/detail: one full record
// keyed by original headers, in column order.
type DetailResponse struct {
	Identifier string        `json:"identifier"`
	Fields     []DetailField `json:"fields"`
}

// DetailField is one column of the detail view.
type DetailField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// AggregateBucket is one value's row count after filtering.
type AggregateBucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// AggregateResponse is returned by /sessions/{id}/aggregate.
type AggregateResponse struct {
	Role    string            `json:"role"`
	Key     string            `json:"key"`
	Buckets []AggregateBucket `json:"buckets"`
}

// TablesResponse is returned by /db/tables.
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// LoadTableRequest is the body of /db/load.
type LoadTableRequest struct {
	TableName string `json:"table_name"`
	Limit     int    `json:"limit"`
	SessionID string `json:"session_id,omitempty"`
}

// LoadLocalRequest is the body of /load-local.
type LoadLocalRequest struct {
	Path string `json:"path,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
