package handlers

import (
	"encoding/json"
	"net/http"

	"expensehub-server/src/db"
	sqldb "expensehub-server/src/db/sql"
	"expensehub-server/src/models"
	"expensehub-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func CreateCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Type  string `json:"type"`
			Icon  string `json:"icon"`
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
		if !util.ValidateCategoryType(req.Type) {
			respondError(w, http.StatusBadRequest, "type must be EXPENSE or INCOME")
			return
		}
		if req.Color != "" && !util.ValidateColor(req.Color) {
			respondError(w, http.StatusBadRequest, "color must be a hex color like #2ECC71")
			return
		}

		category := &models.Category{
			Name:  req.Name,
			Type:  req.Type,
			Icon:  req.Icon,
			Color: req.Color,
		}
		created, err := sqldb.CreateCategory(r.Context(), pool, category)
		if err != nil {
			logrus.WithError(err).WithField("name", req.Name).Error("failed to create category")
			respondStoreError(w, err, "category not found", "a category with this name already exists")
			return
		}

		db.ClearListCache(db.CategoryListCacheKey)
		logrus.WithField("category_id", created.ID).Info("category created")
		respondJSON(w, http.StatusCreated, created)
	}
}

func GetAllCategories(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryType := r.URL.Query().Get("type")
		if categoryType != "" && !util.ValidateCategoryType(categoryType) {
			respondError(w, http.StatusBadRequest, "type must be EXPENSE or INCOME")
			return
		}

		// Only the unfiltered list is cached; type-filtered requests are rare
		// and cheap enough to hit the database.
		if categoryType == "" {
			if cached, found := db.Cache.Get(db.CategoryListCacheKey); found {
				respondJSON(w, http.StatusOK, cached)
				return
			}
		}

		categories, err := sqldb.GetAllCategories(r.Context(), pool, categoryType)
		if err != nil {
			logrus.WithError(err).Error("failed to list categories")
			respondError(w, http.StatusInternalServerError, "failed to list categories")
			return
		}
		if categories == nil {
			categories = []models.CategoryWithCount{}
		}

		if categoryType == "" {
			db.SetListCache(db.CategoryListCacheKey, categories)
		}
		respondJSON(w, http.StatusOK, categories)
	}
}

func GetCategoryByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := sqldb.GetCategoryByID(r.Context(), pool, chi.URLParam(r, "category_id"))
		if err != nil {
			respondStoreError(w, err, "category not found", "conflict")
			return
		}
		respondJSON(w, http.StatusOK, category)
	}
}

func UpdateCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID := chi.URLParam(r, "category_id")
		var req struct {
			Name  string `json:"name"`
			Icon  string `json:"icon"`
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

		updated, err := sqldb.UpdateCategory(r.Context(), pool, categoryID, req.Name, req.Icon, req.Color)
		if err != nil {
			logrus.WithError(err).WithField("category_id", categoryID).Error("failed to update category")
			respondStoreError(w, err, "category not found", "conflict")
			return
		}

		db.ClearListCache(db.CategoryListCacheKey)
		logrus.WithField("category_id", categoryID).Info("category updated")
		respondJSON(w, http.StatusOK, updated)
	}
}

func DeleteCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID := chi.URLParam(r, "category_id")
		if err := sqldb.DeleteCategory(r.Context(), pool, categoryID); err != nil {
			logrus.WithError(err).WithField("category_id", categoryID).Error("failed to delete category")
			respondStoreError(w, err, "category not found", "category is still referenced by transactions or budgets")
			return
		}

		db.ClearListCache(db.CategoryListCacheKey)
		logrus.WithField("category_id", categoryID).Info("category deleted")
		respondJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
	}
}
