package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"expensehub-server/src/config"
	"expensehub-server/src/db"
	sqldb "expensehub-server/src/db/sql"
	"expensehub-server/src/models"
	"expensehub-server/src/receipts"
	"expensehub-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// releaseReceipt is fire-and-forget: the database mutation already succeeded,
// so a failed external release is logged and swallowed.
func releaseReceipt(receiptClient *receipts.Client, publicID *string) {
	if receiptClient == nil || publicID == nil {
		return
	}
	id := *publicID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := receiptClient.Release(ctx, id); err != nil {
			logrus.WithError(err).WithField("public_id", id).Warn("best-effort receipt release failed")
		}
	}()
}

// requireExpenseCategory checks the category exists and is an EXPENSE
// category, so type-scoped aggregations stay consistent.
func requireExpenseCategory(ctx context.Context, pool *pgxpool.Pool, categoryID string) (ok bool, msg string, err error) {
	category, err := sqldb.GetCategoryByID(ctx, pool, categoryID)
	if err != nil {
		if err == sqldb.ErrNotFound {
			return false, "category not found", nil
		}
		return false, "", err
	}
	if category.Type != models.CategoryTypeExpense {
		return false, "category is not an expense category", nil
	}
	return true, "", nil
}

func CreateExpense(pool *pgxpool.Pool, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req struct {
			Amount          float64 `json:"amount"`
			Description     string  `json:"description"`
			Date            string  `json:"date"`
			Payee           string  `json:"payee"`
			CategoryID      string  `json:"category_id"`
			LabelIDs        []int64 `json:"label_ids"`
			ReceiptURL      *string `json:"receipt_url"`
			ReceiptPublicID *string `json:"receipt_public_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to decode create expense request body")
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if !util.ValidateAmount(req.Amount) {
			respondError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		if !util.ValidatePayee(req.Payee, cfg.AllowedPayees) {
			respondError(w, http.StatusBadRequest, "unrecognized payee")
			return
		}
		date, err := util.ParseDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date")
			return
		}
		if !util.ValidateReceiptPair(req.ReceiptURL, req.ReceiptPublicID) {
			respondError(w, http.StatusBadRequest, "receipt url and public id must be provided together")
			return
		}

		ok, msg, err := requireExpenseCategory(r.Context(), pool, req.CategoryID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to verify category")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			respondError(w, http.StatusBadRequest, msg)
			return
		}

		if len(req.LabelIDs) > 0 {
			exist, err := sqldb.LabelsExist(r.Context(), pool, req.LabelIDs)
			if err != nil {
				logrus.WithError(err).WithField("user_id", userID).Error("failed to verify labels")
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !exist {
				respondError(w, http.StatusBadRequest, "unknown label")
				return
			}
		}

		expense := &models.Expense{
			UserID:          userID,
			Amount:          req.Amount,
			Date:            date,
			Payee:           req.Payee,
			Description:     req.Description,
			CategoryID:      req.CategoryID,
			ReceiptURL:      req.ReceiptURL,
			ReceiptPublicID: req.ReceiptPublicID,
		}
		created, err := sqldb.CreateExpense(r.Context(), pool, expense, req.LabelIDs)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to create expense")
			respondError(w, http.StatusInternalServerError, "failed to create expense")
			return
		}

		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"expense_id": created.ID, "user_id": userID}).Info("expense created")
		respondJSON(w, http.StatusCreated, created)
	}
}

func GetExpenseByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		expenseID, err := strconv.ParseInt(chi.URLParam(r, "expense_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid expense id")
			return
		}
		expense, err := sqldb.GetExpenseByID(r.Context(), pool, userID, expenseID)
		if err != nil {
			respondStoreError(w, err, "expense not found", "conflict")
			return
		}
		respondJSON(w, http.StatusOK, expense)
	}
}

func ListExpenses(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		q := r.URL.Query()

		filter := sqldb.ExpenseFilter{
			CategoryID: q.Get("category_id"),
			Payee:      q.Get("payee"),
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

		expenses, total, err := sqldb.ListExpenses(r.Context(), pool, userID, filter)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to list expenses")
			respondError(w, http.StatusInternalServerError, "failed to list expenses")
			return
		}
		if expenses == nil {
			expenses = []models.Expense{}
		}

		limit := filter.Limit
		if limit <= 0 {
			limit = 20
		}
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"expenses": expenses,
			"pagination": map[string]int{
				"page":        page,
				"limit":       limit,
				"total":       total,
				"total_pages": (total + limit - 1) / limit,
			},
		})
	}
}

func UpdateExpense(pool *pgxpool.Pool, cfg config.Config, receiptClient *receipts.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		expenseID, err := strconv.ParseInt(chi.URLParam(r, "expense_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid expense id")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		var req struct {
			Amount          *float64 `json:"amount"`
			Description     *string  `json:"description"`
			Date            *string  `json:"date"`
			Payee           *string  `json:"payee"`
			CategoryID      *string  `json:"category_id"`
			LabelIDs        *[]int64 `json:"label_ids"`
			ReceiptURL      *string  `json:"receipt_url"`
			ReceiptPublicID *string  `json:"receipt_public_id"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to decode update expense request body")
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		// Distinguish "key absent" from "key set to null" for the receipt pair.
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(body, &keys); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		_, hasReceiptURL := keys["receipt_url"]
		_, hasReceiptPublicID := keys["receipt_public_id"]
		setReceipt := hasReceiptURL || hasReceiptPublicID

		upd := sqldb.ExpenseUpdate{
			Amount:      req.Amount,
			Payee:       req.Payee,
			Description: req.Description,
			CategoryID:  req.CategoryID,
		}
		if req.Amount != nil && !util.ValidateAmount(*req.Amount) {
			respondError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		if req.Payee != nil && !util.ValidatePayee(*req.Payee, cfg.AllowedPayees) {
			respondError(w, http.StatusBadRequest, "unrecognized payee")
			return
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
		if setReceipt {
			if !util.ValidateReceiptPair(req.ReceiptURL, req.ReceiptPublicID) {
				respondError(w, http.StatusBadRequest, "receipt url and public id must be provided together")
				return
			}
			upd.SetReceipt = true
			upd.ReceiptURL = req.ReceiptURL
			upd.ReceiptPublicID = req.ReceiptPublicID
		}
		if req.LabelIDs != nil {
			labelIDs := *req.LabelIDs
			if len(labelIDs) > 0 {
				exist, err := sqldb.LabelsExist(r.Context(), pool, labelIDs)
				if err != nil {
					logrus.WithError(err).WithField("user_id", userID).Error("failed to verify labels")
					respondError(w, http.StatusInternalServerError, "internal error")
					return
				}
				if !exist {
					respondError(w, http.StatusBadRequest, "unknown label")
					return
				}
			}
			upd.LabelIDs = labelIDs
		}

		updated, releasedPublicID, err := sqldb.UpdateExpense(r.Context(), pool, userID, expenseID, upd)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"expense_id": expenseID, "user_id": userID}).Error("failed to update expense")
			respondStoreError(w, err, "expense not found", "conflict")
			return
		}

		releaseReceipt(receiptClient, releasedPublicID)
		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"expense_id": expenseID, "user_id": userID}).Info("expense updated")
		respondJSON(w, http.StatusOK, updated)
	}
}

func DeleteExpense(pool *pgxpool.Pool, receiptClient *receipts.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		expenseID, err := strconv.ParseInt(chi.URLParam(r, "expense_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid expense id")
			return
		}

		receiptPublicID, err := sqldb.DeleteExpense(r.Context(), pool, userID, expenseID)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"expense_id": expenseID, "user_id": userID}).Error("failed to delete expense")
			respondStoreError(w, err, "expense not found", "conflict")
			return
		}

		releaseReceipt(receiptClient, receiptPublicID)
		db.ClearDashboardCache(userID)
		logrus.WithFields(logrus.Fields{"expense_id": expenseID, "user_id": userID}).Info("expense deleted")
		respondJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
	}
}
