package handlers

import (
	"encoding/json"
	"io"
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

func CreateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req struct {
			Amount     float64 `json:"amount"`
			Period     string  `json:"period"`
			CategoryID *string `json:"category_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to decode create budget request body")
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if !util.ValidateAmount(req.Amount) {
			respondError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		if !util.ValidatePeriod(req.Period) {
			respondError(w, http.StatusBadRequest, "period must be weekly, monthly or yearly")
			return
		}
		if req.CategoryID != nil {
			ok, msg, err := requireExpenseCategory(r.Context(), pool, *req.CategoryID)
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

		budget := &models.Budget{
			UserID:     userID,
			Amount:     req.Amount,
			Period:     req.Period,
			CategoryID: req.CategoryID,
		}
		created, err := sqldb.CreateBudget(r.Context(), pool, budget)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to create budget")
			respondStoreError(w, err, "budget not found", "a budget for this period and category already exists")
			return
		}

		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"budget_id": created.ID, "user_id": userID}).Info("budget created")
		respondJSON(w, http.StatusCreated, created)
	}
}

func GetBudgetByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		budgetID, err := strconv.ParseInt(chi.URLParam(r, "budget_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid budget id")
			return
		}
		budget, err := sqldb.GetBudgetByID(r.Context(), pool, userID, budgetID)
		if err != nil {
			respondStoreError(w, err, "budget not found", "conflict")
			return
		}
		respondJSON(w, http.StatusOK, budget)
	}
}

func GetAllBudgets(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		budgets, err := sqldb.GetAllBudgetsForUser(r.Context(), pool, userID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to list budgets")
			respondError(w, http.StatusInternalServerError, "failed to list budgets")
			return
		}
		if budgets == nil {
			budgets = []models.Budget{}
		}
		respondJSON(w, http.StatusOK, budgets)
	}
}

func UpdateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		budgetID, err := strconv.ParseInt(chi.URLParam(r, "budget_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid budget id")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		var req struct {
			Amount     *float64 `json:"amount"`
			Period     *string  `json:"period"`
			CategoryID *string  `json:"category_id"`
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if req.Amount != nil && !util.ValidateAmount(*req.Amount) {
			respondError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		if req.Period != nil && !util.ValidatePeriod(*req.Period) {
			respondError(w, http.StatusBadRequest, "period must be weekly, monthly or yearly")
			return
		}
		_, setCategory := raw["category_id"]
		if setCategory && req.CategoryID != nil {
			ok, msg, err := requireExpenseCategory(r.Context(), pool, *req.CategoryID)
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

		upd := sqldb.BudgetUpdate{
			Amount:      req.Amount,
			Period:      req.Period,
			SetCategory: setCategory,
			CategoryID:  req.CategoryID,
		}
		updated, err := sqldb.UpdateBudget(r.Context(), pool, userID, budgetID, upd)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"budget_id": budgetID, "user_id": userID}).Error("failed to update budget")
			respondStoreError(w, err, "budget not found", "a budget for this period and category already exists")
			return
		}

		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"budget_id": budgetID, "user_id": userID}).Info("budget updated")
		respondJSON(w, http.StatusOK, updated)
	}
}

func DeleteBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		budgetID, err := strconv.ParseInt(chi.URLParam(r, "budget_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid budget id")
			return
		}

		if err := sqldb.DeleteBudget(r.Context(), pool, userID, budgetID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"budget_id": budgetID, "user_id": userID}).Error("failed to delete budget")
			respondStoreError(w, err, "budget not found", "conflict")
			return
		}

		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"budget_id": budgetID, "user_id": userID}).Info("budget deleted")
		respondJSON(w, http.StatusOK, map[string]string{"message": "budget deleted"})
	}
}
