package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	sqldb "expensehub-server/src/db/sql"
)

func currentUserID(r *http.Request) int64 {
	userID, _ := r.Context().Value("user_id").(int64)
	return userID
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps store sentinels to HTTP statuses. Anything else is a
// dependency failure and surfaces as a generic server error.
func respondStoreError(w http.ResponseWriter, err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, sqldb.ErrNotFound):
		respondError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, sqldb.ErrConflict):
		respondError(w, http.StatusConflict, conflictMsg)
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
