package handlers

import (
	"context"
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

func requireIncomeCategory(ctx context.Context, pool *pgxpool.Pool, categoryID string) (ok bool, msg string, err error) {
	category, err := sqldb.GetCategoryByID(ctx, pool, categoryID)
	if err != nil {
		if err == sqldb.ErrNotFound {
			return false, "category not found", nil
		}
		return false, "", err
	}
	if category.Type != models.CategoryTypeIncome {
		return false, "category is not an income category", nil
	}
	return true, "", nil
}

func CreateIncome(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req struct {
			Amount      float64 `json:"amount"`
			Description string  `json:"description"`
			Date        string  `json:"date"`
			Source      string  `json:"source"`
			CategoryID  string  `json:"category_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to decode create income request body")
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if !util.ValidateAmount(req.Amount) {
			respondError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		if req.Source == "" {
			respondError(w, http.StatusBadRequest, "source is required")
			return
		}
		date, err := util.ParseDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date")
			return
		}

		ok, msg, err := requireIncomeCategory(r.Context(), pool, req.CategoryID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to verify category")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			respondError(w, http.StatusBadRequest, msg)
			return
		}

		income := &models.Income{
			UserID:      userID,
			Amount:      req.Amount,
			Date:        date,
			Source:      req.Source,
			Description: req.Description,
			CategoryID:  req.CategoryID,
		}
		created, err := sqldb.CreateIncome(r.Context(), pool, income)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to create income")
			respondError(w, http.StatusInternalServerError, "failed to create income")
			return
		}

		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"income_id": created.ID, "user_id": userID}).Info("income created")
		respondJSON(w, http.StatusCreated, created)
	}
}

func GetIncomeByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		incomeID, err := strconv.ParseInt(chi.URLParam(r, "income_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid income id")
			return
		}
		income, err := sqldb.GetIncomeByID(r.Context(), pool, userID, incomeID)
		if err != nil {
			respondStoreError(w, err, "income not found", "conflict")
			return
		}
		respondJSON(w, http.StatusOK, income)
	}
}

func ListIncomes(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		q := r.URL.Query()

		filter := sqldb.IncomeFilter{
			CategoryID: q.Get("category_id"),
			Search:     q.Get("search"),
		}
		filter.Page, _ = strconv.Atoi(q.Get("page"))
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))
		if raw := q.Get("start_date"); raw != "" {
			if t, err := util.ParseDate(raw); err == nil {
				filter.StartDate = &t
			}
		}
		if raw := q.Get("end_date"); raw != "" {
			if t, err := util.ParseDate(raw); err == nil {
				filter.EndDate = &t
			}
		}

		incomes, total, err := sqldb.ListIncomes(r.Context(), pool, userID, filter)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to list incomes")
			respondError(w, http.StatusInternalServerError, "failed to list incomes")
			return
		}
		if incomes == nil {
			incomes = []models.Income{}
		}

		limit := filter.Limit
		if limit <= 0 {
			limit = 50
		}
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"incomes": incomes,
			"pagination": map[string]int{
				"page":        page,
				"limit":       limit,
				"total":       total,
				"total_pages": (total + limit - 1) / limit,
			},
		})
	}
}

func UpdateIncome(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		incomeID, err := strconv.ParseInt(chi.URLParam(r, "income_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid income id")
			return
		}

		var req struct {
			Amount      *float64 `json:"amount"`
			Description *string  `json:"description"`
			Date        *string  `json:"date"`
			Source      *string  `json:"source"`
			CategoryID  *string  `json:"category_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to decode update income request body")
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if req.Amount != nil && !util.ValidateAmount(*req.Amount) {
			respondError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		if req.Source != nil && *req.Source == "" {
			respondError(w, http.StatusBadRequest, "source is required")
			return
		}
		upd := sqldb.IncomeUpdate{
			Amount:      req.Amount,
			Source:      req.Source,
			Description: req.Description,
			CategoryID:  req.CategoryID,
		}
		if req.Date != nil {
			date, err := util.ParseDate(*req.Date)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid date")
				return
			}
			upd.Date = &date
		}
		if req.CategoryID != nil {
			ok, msg, err := requireIncomeCategory(r.Context(), pool, *req.CategoryID)
			if err != nil {
				logrus.WithError(err).WithField("user_id", userID).Error("failed to verify category")
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !ok {
				respondError(w, http.StatusBadRequest, msg)
				return
			}
		}

		updated, err := sqldb.UpdateIncome(r.Context(), pool, userID, incomeID, upd)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"income_id": incomeID, "user_id": userID}).Error("failed to update income")
			respondStoreError(w, err, "income not found", "conflict")
			return
		}

		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"income_id": incomeID, "user_id": userID}).Info("income updated")
		respondJSON(w, http.StatusOK, updated)
	}
}

func DeleteIncome(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		incomeID, err := strconv.ParseInt(chi.URLParam(r, "income_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid income id")
			return
		}

		if err := sqldb.DeleteIncome(r.Context(), pool, userID, incomeID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"income_id": incomeID, "user_id": userID}).Error("failed to delete income")
			respondStoreError(w, err, "income not found", "conflict")
			return
		}

		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"income_id": incomeID, "user_id": userID}).Info("income deleted")
		respondJSON(w, http.StatusOK, map[string]string{"message": "income deleted"})
	}
}
