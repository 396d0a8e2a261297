package types

// DoubleRequest is the body accepted by POST /api/double.
type DoubleRequest struct {
	Value int64 `json:"value"`
}

// DoubleResponse is the body returned by POST /api/double.
type DoubleResponse struct {
	Result int64 `json:"result"`
}

// ErrorResponse is the body written for every application error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// VersionResponse describes the running build.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}
