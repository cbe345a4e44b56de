package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/billbatista/caderninho/account"
	"github.com/billbatista/caderninho/audit"
	"github.com/billbatista/caderninho/category"
	"github.com/billbatista/caderninho/database"
	"github.com/billbatista/caderninho/ledger"
	"github.com/billbatista/caderninho/recurring"
	"github.com/billbatista/caderninho/report"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=postgres password=postgres dbname=caderninho sslmode=disable"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		printErrorAndExit("database connection", err)
	}
	if err := database.Migrate(db); err != nil {
		printErrorAndExit("database migration", err)
	}

	auditLogger := audit.NewSqlEventLogger(db)
	worker := audit.NewWorker(auditLogger, 100)
	worker.Start()
	defer worker.Shutdown()

	accountRepo := account.NewRepository(db)
	categoryRepo := category.NewRepository(db)
	ledgerStore := ledger.NewRepository(db)
	recurringRepo := recurring.NewRepository(db)

	ledgerService := ledger.NewService(ledgerStore, categoryRepo)
	matcher := recurring.NewMatcher(recurringRepo, ledgerStore, ledgerService)
	projector := report.NewProjector(accountRepo, recurringRepo, ledgerStore)

	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Accounts
	router.Post("/accounts", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		baseBalance, err := parseMoney(r.FormValue("base_balance"))
		if err != nil {
			http.Error(w, "invalid balance", http.StatusBadRequest)
			return
		}

		acc, err := account.New(r.FormValue("name"), account.Type(r.FormValue("type")), baseBalance)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := accountRepo.Create(r.Context(), acc); err != nil {
			internalError(w, "failed to create account", err)
			return
		}
		writeJSON(w, http.StatusCreated, acc)
	})

	router.Get("/accounts", func(w http.ResponseWriter, r *http.Request) {
		accounts, err := accountRepo.List(r.Context())
		if err != nil {
			internalError(w, "failed to list accounts", err)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	})

	router.Get("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		acc, err := accountRepo.GetByID(r.Context(), id)
		if err != nil {
			internalError(w, "failed to load account", err)
			return
		}
		if acc == nil {
			http.Error(w, account.ErrNotFound.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, acc)
	})

	router.Post("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		baseBalance, err := parseMoney(r.FormValue("base_balance"))
		if err != nil {
			http.Error(w, "invalid balance", http.StatusBadRequest)
			return
		}

		acc, err := account.New(r.FormValue("name"), account.Type(r.FormValue("type")), baseBalance)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		acc.ID = id
		if err := accountRepo.Update(r.Context(), acc); err != nil {
			if errors.Is(err, account.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			internalError(w, "failed to update account", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.Delete("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		if err := accountRepo.Delete(r.Context(), id); err != nil {
			internalError(w, "failed to delete account", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get("/accounts/{id}/balance", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		asOf, err := parseDateOrNow(r.URL.Query().Get("as_of"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		balance, err := accountRepo.BalanceAsOf(r.Context(), id, asOf)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			internalError(w, "failed to compute balance", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"account_id": id, "as_of": asOf, "balance": balance})
	})

	router.Get("/accounts/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		year := time.Now().Year()
		if y := r.URL.Query().Get("year"); y != "" {
			year, err = strconv.Atoi(y)
			if err != nil {
				http.Error(w, "invalid year", http.StatusBadRequest)
				return
			}
		}

		stats, err := accountRepo.Stats(r.Context(), id, year)
		if err != nil {
			internalError(w, "failed to compute account stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	router.Get("/portfolio/balance", func(w http.ResponseWriter, r *http.Request) {
		asOf, err := parseDateOrNow(r.URL.Query().Get("as_of"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		balance, err := accountRepo.PortfolioBalance(r.Context(), asOf)
		if err != nil {
			internalError(w, "failed to compute portfolio balance", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"as_of": asOf, "balance": balance})
	})

	// Categories
	router.Post("/categories", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		kind := category.KindPersonal
		if r.FormValue("reimbursable") == "on" {
			kind = category.KindReimbursable
		}

		cat, err := category.New(r.FormValue("name"), r.FormValue("icon"), r.FormValue("color"), kind)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := categoryRepo.Create(r.Context(), cat); err != nil {
			internalError(w, "failed to create category", err)
			return
		}
		writeJSON(w, http.StatusCreated, cat)
	})

	router.Get("/categories", func(w http.ResponseWriter, r *http.Request) {
		categories, err := categoryRepo.List(r.Context())
		if err != nil {
			internalError(w, "failed to list categories", err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	})

	router.Post("/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		kind := category.KindPersonal
		if r.FormValue("reimbursable") == "on" {
			kind = category.KindReimbursable
		}

		cat, err := category.New(r.FormValue("name"), r.FormValue("icon"), r.FormValue("color"), kind)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cat.ID = id
		if err := categoryRepo.Update(r.Context(), cat); err != nil {
			if errors.Is(err, category.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			internalError(w, "failed to update category", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get("/categories/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		stats, err := ledgerService.CategoryStats(r.Context(), id)
		if err != nil {
			internalError(w, "failed to compute category stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	router.Post("/categories/{id}/reconcile", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		result, err := ledgerService.ReconcileCategory(r.Context(), id)
		if err != nil {
			internalError(w, "failed to reconcile category", err)
			return
		}
		logReconciliation(worker, id, result)
		writeJSON(w, http.StatusOK, result)
	})

	router.Post("/categories/{id}/payments", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		accountID, err := uuid.Parse(r.FormValue("account_id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		amount, err := parseMoney(r.FormValue("amount"))
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}

		date, err := parseDateOrNow(r.FormValue("date"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		row, result, err := ledgerService.RegisterPayment(r.Context(), ledger.PaymentInput{
			CategoryID:  id,
			AccountID:   accountID,
			Amount:      amount,
			Description: r.FormValue("description"),
			Date:        date,
		})
		if err != nil {
			badRequestOrInternal(w, "failed to register payment", err)
			return
		}

		worker.Log(audit.NewEvent(audit.KindPaymentRegistered, audit.WithRow(row.ID), audit.WithCategory(id)))
		logReconciliation(worker, id, result)
		writeJSON(w, http.StatusCreated, map[string]any{"payment": row, "reconciliation": result})
	})

	router.Delete("/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		if err := categoryRepo.Delete(r.Context(), id); err != nil {
			internalError(w, "failed to delete category", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Transactions
	router.Post("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		input, err := installmentInput(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := ledgerService.CreateTransaction(r.Context(), input)
		if err != nil {
			badRequestOrInternal(w, "failed to create transaction", err)
			return
		}

		for _, row := range rows {
			worker.Log(audit.NewEvent(audit.KindTransactionCreated, audit.WithRow(row.ID)))
		}
		writeJSON(w, http.StatusCreated, rows)
	})

	router.Get("/transactions", func(w http.ResponseWriter, r *http.Request) {
		// Defaults to everything up to now.
		var from time.Time
		if f := r.URL.Query().Get("from"); f != "" {
			var err error
			from, err = parseDateOrNow(f)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		to, err := parseDateOrNow(r.URL.Query().Get("to"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := ledgerStore.ListBetween(r.Context(), from, to)
		if err != nil {
			internalError(w, "failed to list transactions", err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})

	router.Post("/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		amount, err := parseMoney(r.FormValue("amount"))
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		accountID, err := uuid.Parse(r.FormValue("account_id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}

		date, err := parseDateOrNow(r.FormValue("date"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = ledgerService.UpdateTransaction(r.Context(), ledger.UpdateInput{
			ID:          id,
			Description: r.FormValue("description"),
			Amount:      amount,
			Type:        ledger.Type(r.FormValue("type")),
			Date:        date,
			AccountID:   accountID,
			CategoryID:  optionalUUID(r.FormValue("category_id")),
			IsPaid:      r.FormValue("is_paid") == "on",
		})
		if err != nil {
			badRequestOrInternal(w, "failed to update transaction", err)
			return
		}

		worker.Log(audit.NewEvent(audit.KindTransactionUpdated, audit.WithRow(id)))
		w.WriteHeader(http.StatusNoContent)
	})

	router.Post("/transactions/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}
		row, err := ledgerService.TogglePaid(r.Context(), id)
		if err != nil {
			badRequestOrInternal(w, "failed to toggle transaction", err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	})

	router.Post("/transactions/{id}/delete", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		wholeGroup := r.FormValue("mode") == "all"

		if err := ledgerService.DeleteTransaction(r.Context(), id, wholeGroup); err != nil {
			internalError(w, "failed to delete transaction", err)
			return
		}

		worker.Log(audit.NewEvent(audit.KindTransactionDeleted, audit.WithRow(id)))
		w.WriteHeader(http.StatusNoContent)
	})

	// Transfers
	router.Post("/transfers", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		amount, err := parseMoney(r.FormValue("amount"))
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		fromAccount, err := uuid.Parse(r.FormValue("from_account_id"))
		if err != nil {
			http.Error(w, "invalid source account", http.StatusBadRequest)
			return
		}
		toAccount, err := uuid.Parse(r.FormValue("to_account_id"))
		if err != nil {
			http.Error(w, "invalid destination account", http.StatusBadRequest)
			return
		}

		date, err := parseDateOrNow(r.FormValue("date"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		pair, err := ledgerService.CreateTransfer(r.Context(), ledger.TransferInput{
			Amount:      amount,
			FromAccount: fromAccount,
			ToAccount:   toAccount,
			Date:        date,
			Description: r.FormValue("description"),
		})
		if err != nil {
			badRequestOrInternal(w, "failed to create transfer", err)
			return
		}

		worker.Log(audit.NewEvent(audit.KindTransferCreated, audit.WithRow(pair[0].ID)))
		writeJSON(w, http.StatusCreated, pair)
	})

	// Recurring
	router.Post("/recurring", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		amount, err := parseMoney(r.FormValue("amount"))
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		day, err := strconv.Atoi(r.FormValue("day"))
		if err != nil {
			http.Error(w, "invalid day", http.StatusBadRequest)
			return
		}
		accountID, err := uuid.Parse(r.FormValue("account_id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}

		template, err := recurring.New(
			r.FormValue("description"),
			amount,
			ledger.Type(r.FormValue("type")),
			day,
			optionalUUID(r.FormValue("category_id")),
			accountID,
		)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := recurringRepo.Create(r.Context(), template); err != nil {
			internalError(w, "failed to create recurring expense", err)
			return
		}
		writeJSON(w, http.StatusCreated, template)
	})

	router.Get("/recurring", func(w http.ResponseWriter, r *http.Request) {
		templates, err := recurringRepo.List(r.Context())
		if err != nil {
			internalError(w, "failed to list recurring expenses", err)
			return
		}
		writeJSON(w, http.StatusOK, templates)
	})

	router.Post("/recurring/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid recurring id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		amount, err := parseMoney(r.FormValue("amount"))
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		day, err := strconv.Atoi(r.FormValue("day"))
		if err != nil {
			http.Error(w, "invalid day", http.StatusBadRequest)
			return
		}
		accountID, err := uuid.Parse(r.FormValue("account_id"))
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}

		template, err := recurring.New(
			r.FormValue("description"),
			amount,
			ledger.Type(r.FormValue("type")),
			day,
			optionalUUID(r.FormValue("category_id")),
			accountID,
		)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		template.ID = id
		if err := recurringRepo.Update(r.Context(), template); err != nil {
			if errors.Is(err, recurring.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			internalError(w, "failed to update recurring expense", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.Delete("/recurring/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid recurring id", http.StatusBadRequest)
			return
		}
		if err := recurringRepo.Delete(r.Context(), id); err != nil {
			internalError(w, "failed to delete recurring expense", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get("/recurring/pending", func(w http.ResponseWriter, r *http.Request) {
		month, year, err := parseMonthYear(r.URL.Query().Get("month"), r.URL.Query().Get("year"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pending, err := matcher.CheckPending(r.Context(), month, year)
		if err != nil {
			internalError(w, "failed to check pending recurring expenses", err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	})

	router.Post("/recurring/materialize", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		month, year, err := parseMonthYear(r.FormValue("month"), r.FormValue("year"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var ids []uuid.UUID
		for _, raw := range strings.Split(r.FormValue("ids"), ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid recurring id", http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}

		rows, err := matcher.Materialize(r.Context(), ids, month, year)
		if err != nil {
			internalError(w, "failed to materialize recurring expenses", err)
			return
		}

		for _, row := range rows {
			worker.Log(audit.NewEvent(audit.KindRecurringMaterialized, audit.WithRow(row.ID)))
		}
		writeJSON(w, http.StatusCreated, rows)
	})

	// Audit trail
	router.Get("/audit", func(w http.ResponseWriter, r *http.Request) {
		kind := audit.Kind(r.URL.Query().Get("kind"))
		if kind == "" {
			http.Error(w, "kind is required", http.StatusBadRequest)
			return
		}
		events, err := auditLogger.GetByKind(r.Context(), kind)
		if err != nil {
			internalError(w, "failed to list audit events", err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	})

	// Projections
	router.Get("/projection", func(w http.ResponseWriter, r *http.Request) {
		projection, err := projector.Project(r.Context(), time.Now().UTC())
		if err != nil {
			internalError(w, "failed to build projection", err)
			return
		}
		writeJSON(w, http.StatusOK, projection)
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":5000"
	}
	slog.Info("server starting", "addr", addr)
	http.ListenAndServe(addr, router)
}

func installmentInput(r *http.Request) (ledger.InstallmentInput, error) {
	amount, err := parseMoney(r.FormValue("amount"))
	if err != nil {
		return ledger.InstallmentInput{}, errors.New("invalid amount")
	}
	accountID, err := uuid.Parse(r.FormValue("account_id"))
	if err != nil {
		return ledger.InstallmentInput{}, errors.New("invalid account id")
	}
	count := 1
	if c := r.FormValue("installments"); c != "" {
		count, err = strconv.Atoi(c)
		if err != nil {
			return ledger.InstallmentInput{}, errors.New("invalid installment count")
		}
	}

	startDate, err := parseDateOrNow(r.FormValue("date"))
	if err != nil {
		return ledger.InstallmentInput{}, err
	}

	return ledger.InstallmentInput{
		Description: r.FormValue("description"),
		Amount:      amount,
		Type:        ledger.Type(r.FormValue("type")),
		StartDate:   startDate,
		AccountID:   accountID,
		CategoryID:  optionalUUID(r.FormValue("category_id")),
		IsPaid:      r.FormValue("is_paid") == "on",
		Count:       count,
	}, nil
}

func logReconciliation(worker *audit.Worker, categoryID uuid.UUID, result ledger.ReconcileResult) {
	switch result.Outcome {
	case ledger.OutcomeSettled:
		worker.Log(audit.NewEvent(audit.KindReconciliationSettled,
			audit.WithCategory(categoryID),
			audit.WithData(result.Settled),
		))
	case ledger.OutcomeUnsettled:
		worker.Log(audit.NewEvent(audit.KindReconciliationReversed,
			audit.WithCategory(categoryID),
			audit.WithData(result.Unsettled),
		))
	}
}

// parseMoney accepts plain decimals and pt-BR formatted values like
// "R$ 1.234,56".
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

// parseDateOrNow defaults an absent date to now; a present but malformed
// value is rejected, never silently replaced.
func parseDateOrNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date")
	}
	return d, nil
}

func parseMonthYear(monthStr, yearStr string) (time.Month, int, error) {
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errors.New("invalid month")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, errors.New("invalid year")
	}
	return time.Month(month), year, nil
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func badRequestOrInternal(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrEmptyDescription),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidType),
		errors.Is(err, ledger.ErrInvalidInstallments),
		errors.Is(err, ledger.ErrMissingAccount),
		errors.Is(err, ledger.ErrSameAccount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		internalError(w, msg, err)
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
