package api

import (
	"net/http"

	"expensehub-server/src/config"
	"expensehub-server/src/handlers"
	"expensehub-server/src/middleware"
	"expensehub-server/src/receipts"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRouter(pool *pgxpool.Pool, cfg config.Config, receiptClient *receipts.Client) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", handlers.Register(pool, cfg.JWTSecret))
		r.Post("/login", handlers.Login(pool, cfg.JWTSecret))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(cfg.JWTSecret)).Group(func(r chi.Router) {
			// Dashboard
			r.Get("/dashboard", handlers.GetDashboard(pool))

			// Expenses
			r.Post("/expenses", handlers.CreateExpense(pool, cfg))
			r.Get("/expenses", handlers.ListExpenses(pool))
			r.Get("/expenses/{expense_id}", handlers.GetExpenseByID(pool))
			r.Put("/expenses/{expense_id}", handlers.UpdateExpense(pool, cfg, receiptClient))
			r.Delete("/expenses/{expense_id}", handlers.DeleteExpense(pool, receiptClient))

			// Incomes
			r.Post("/incomes", handlers.CreateIncome(pool))
			r.Get("/incomes", handlers.ListIncomes(pool))
			r.Get("/incomes/{income_id}", handlers.GetIncomeByID(pool))
			r.Put("/incomes/{income_id}", handlers.UpdateIncome(pool))
			r.Delete("/incomes/{income_id}", handlers.DeleteIncome(pool))

			// Categories
			r.Post("/categories", handlers.CreateCategory(pool))
			r.Get("/categories", handlers.GetAllCategories(pool))
			r.Get("/categories/{category_id}", handlers.GetCategoryByID(pool))
			r.Put("/categories/{category_id}", handlers.UpdateCategory(pool))
			r.Delete("/categories/{category_id}", handlers.DeleteCategory(pool))

			// Labels
			r.Post("/labels", handlers.CreateLabel(pool))
			r.Get("/labels", handlers.GetAllLabels(pool))
			r.Put("/labels/{label_id}", handlers.UpdateLabel(pool))
			r.Delete("/labels/{label_id}", handlers.DeleteLabel(pool))

			// Budgets
			r.Post("/budgets", handlers.CreateBudget(pool))
			r.Get("/budgets", handlers.GetAllBudgets(pool))
			r.Get("/budgets/{budget_id}", handlers.GetBudgetByID(pool))
			r.Put("/budgets/{budget_id}", handlers.UpdateBudget(pool))
			r.Delete("/budgets/{budget_id}", handlers.DeleteBudget(pool))

			// Receipts
			r.Post("/upload", handlers.UploadReceipt(receiptClient))
		})
	})

	return r
}
