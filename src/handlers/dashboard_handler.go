package handlers

import (
	"net/http"
	"time"

	"expensehub-server/src/dashboard"
	"expensehub-server/src/db"
	sqldb "expensehub-server/src/db/sql"
	"expensehub-server/src/util"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// GetDashboard assembles the aggregated dashboard payload for the current
// user. Results are cached briefly per user and range so a page refresh does
// not refan the aggregate queries.
func GetDashboard(pool *pgxpool.Pool) http.HandlerFunc {
	store := sqldb.NewDashboardStore(pool)
	engine := dashboard.NewEngine(store, store, store)

	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		q := r.URL.Query()

		rangeSel := q.Get("range")
		if rangeSel == "" {
			rangeSel = dashboard.RangeMonthly
		}
		from := q.Get("from")
		to := q.Get("to")

		query := dashboard.RangeQuery{Range: rangeSel}
		if from != "" {
			if t, err := util.ParseDate(from); err == nil {
				query.From = t
			}
		}
		if to != "" {
			if t, err := util.ParseDate(to); err == nil {
				query.To = t
			}
		}

		cacheKey := db.DashboardCacheKey(userID, rangeSel, from, to)
		if cached, found := db.Cache.Get(cacheKey); found {
			respondJSON(w, http.StatusOK, cached)
			return
		}

		payload, err := engine.Assemble(r.Context(), userID, query, time.Now())
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to assemble dashboard")
			respondError(w, http.StatusInternalServerError, "failed to load dashboard")
			return
		}

		db.SetDashboardCache(userID, cacheKey, payload)
		respondJSON(w, http.StatusOK, payload)
	}
}
