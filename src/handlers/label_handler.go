package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"expensehub-server/src/db"
	sqldb "expensehub-server/src/db/sql"
	"expensehub-server/src/models"
	"expensehub-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func CreateLabel(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "name is required")
			return
		}
		if req.Color != "" && !util.ValidateColor(req.Color) {
			respondError(w, http.StatusBadRequest, "color must be a hex color like #2ECC71")
			return
		}

		created, err := sqldb.CreateLabel(r.Context(), pool, req.Name, req.Color)
		if err != nil {
			logrus.WithError(err).WithField("name", req.Name).Error("failed to create label")
			respondStoreError(w, err, "label not found", "a label with this name already exists")
			return
		}

		db.ClearListCache(db.LabelListCacheKey)
		logrus.WithField("label_id", created.ID).Info("label created")
		respondJSON(w, http.StatusCreated, created)
	}
}

func GetAllLabels(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, found := db.Cache.Get(db.LabelListCacheKey); found {
			respondJSON(w, http.StatusOK, cached)
			return
		}

		labels, err := sqldb.GetAllLabels(r.Context(), pool)
		if err != nil {
			logrus.WithError(err).Error("failed to list labels")
			respondError(w, http.StatusInternalServerError, "failed to list labels")
			return
		}
		if labels == nil {
			labels = []models.Label{}
		}

		db.SetListCache(db.LabelListCacheKey, labels)
		respondJSON(w, http.StatusOK, labels)
	}
}

func UpdateLabel(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labelID, err := strconv.ParseInt(chi.URLParam(r, "label_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid label id")
			return
		}

		var req struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "name is required")
			return
		}
		if req.Color != "" && !util.ValidateColor(req.Color) {
			respondError(w, http.StatusBadRequest, "color must be a hex color like #2ECC71")
			return
		}

		updated, err := sqldb.UpdateLabel(r.Context(), pool, labelID, req.Name, req.Color)
		if err != nil {
			logrus.WithError(err).WithField("label_id", labelID).Error("failed to update label")
			respondStoreError(w, err, "label not found", "a label with this name already exists")
			return
		}

		db.ClearListCache(db.LabelListCacheKey)
		logrus.WithField("label_id", labelID).Info("label updated")
		respondJSON(w, http.StatusOK, updated)
	}
}

func DeleteLabel(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labelID, err := strconv.ParseInt(chi.URLParam(r, "label_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid label id")
			return
		}

		if err := sqldb.DeleteLabel(r.Context(), pool, labelID); err != nil {
			logrus.WithError(err).WithField("label_id", labelID).Error("failed to delete label")
			respondStoreError(w, err, "label not found", "conflict")
			return
		}

		db.ClearListCache(db.LabelListCacheKey)
		logrus.WithField("label_id", labelID).Info("label deleted")
		respondJSON(w, http.StatusOK, map[string]string{"message": "label deleted"})
	}
}
