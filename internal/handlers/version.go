package handlers

import (
	"net/http"

	"github.com/kubenetlabs/doubler/pkg/types"
	"github.com/kubenetlabs/doubler/pkg/version"
)

// VersionHandler serves build information.
type VersionHandler struct{}

// Get returns version, commit and build date.
func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.VersionResponse{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	})
}
