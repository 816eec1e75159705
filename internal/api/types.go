package api

// RegisterElementRequest is sent by the element registrar when a voice
// message player appears in the page.
type RegisterElementRequest struct {
	ElementID  string `json:"elementId"`
	DurationMs int64  `json:"durationMs"`
	TabID      string `json:"tabId,omitempty"`
}

// RegisterResourceRequest is sent by the network or binary registrar when a
// clip resource is observed. DurationMs may be omitted when the observer
// could not derive it; the daemon then runs duration extraction over the
// supplied metadata.
type RegisterResourceRequest struct {
	DurationMs   int64             `json:"durationMs,omitempty"`
	URL          string            `json:"url"`
	LastModified string            `json:"lastModified,omitempty"`
	BlobType     string            `json:"blobType,omitempty"`
	BlobSize     int64             `json:"blobSize,omitempty"`
	ContentType  string            `json:"contentType,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	TabID        string            `json:"tabId,omitempty"`
}

// RegisterResponse acknowledges a registration.
type RegisterResponse struct {
	RecordID   string `json:"recordId"`
	DurationMs int64  `json:"durationMs"`
	Pending    bool   `json:"pending"`
	Estimated  bool   `json:"estimated,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

// ResolveRequest is a user-initiated download request.
type ResolveRequest struct {
	ElementID  string `json:"elementId,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
	TabID      string `json:"tabId,omitempty"`
}

// ResolveResponse carries either a resolved download or the recorded state.
// State is "resolved" or "recorded"; recorded is a valid outcome that a
// later event may promote out-of-band.
type ResolveResponse struct {
	State         string `json:"state"`
	RecordID      string `json:"recordId,omitempty"`
	DownloadURL   string `json:"downloadUrl,omitempty"`
	LastModified  string `json:"lastModified,omitempty"`
	SuggestedName string `json:"suggestedName,omitempty"`
}

// Event is pushed over the WebSocket stream when a retained request is
// promoted after the fact.
type Event struct {
	Type          string `json:"type"`
	TabID         string `json:"tabId,omitempty"`
	ElementID     string `json:"elementId,omitempty"`
	RecordID      string `json:"recordId,omitempty"`
	DownloadURL   string `json:"downloadUrl,omitempty"`
	LastModified  string `json:"lastModified,omitempty"`
	SuggestedName string `json:"suggestedName,omitempty"`
}

// EventTypeResolved identifies retroactive resolution events.
const EventTypeResolved = "resolved"

// StoreStats mirrors the correlation store's diagnostic counters.
type StoreStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Resolvable int `json:"resolvable"`
}

// StatusResponse describes daemon runtime state.
type StatusResponse struct {
	Running          bool       `json:"running"`
	PID              int        `json:"pid"`
	Store            StoreStats `json:"store"`
	RetainedRequests int        `json:"retainedRequests"`
	SeenHandles      int        `json:"seenHandles"`
	HistoryEntries   int        `json:"historyEntries,omitempty"`
	HistoryDBPath    string     `json:"historyDbPath,omitempty"`
	LockFilePath     string     `json:"lockFilePath,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
