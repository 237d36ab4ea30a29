package http

import (
	"net/http"

	"zeus/internal/core"
)

// Income, goal, notes and reminders only change the in-memory state. The
// savings and expense forms persist everything.

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthFromForm(w, r)
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	v, err := parseAmountField(r, "income")
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	s.ledger.SetIncome(r.Context(), m, v)
	redirectToDashboard(w, r, m, "")
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthFromForm(w, r)
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	v, err := parseAmountField(r, "goal")
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	s.ledger.SetSavingsGoal(r.Context(), v)
	redirectToDashboard(w, r, m, "")
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthFromForm(w, r)
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	amount, err := parseAmountField(r, "amount")
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}

	notice := noticeSavings
	switch r.FormValue("op") {
	case "deposit":
		s.ledger.Deposit(r.Context(), m, amount)
	case "withdraw":
		if !s.ledger.Withdraw(r.Context(), m, amount) {
			notice = noticeInsufficient
		}
	default:
		s.writeFormError(w, r, m, invalid("op", "escolha depositar ou resgatar"))
		return
	}

	if err := s.ledger.Save(r.Context()); err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	redirectToDashboard(w, r, m, notice)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthFromForm(w, r)
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	s.ledger.SetNotes(r.Context(), parseText(r, "notes"))
	redirectToDashboard(w, r, m, "")
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthFromForm(w, r)
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	s.ledger.SetReminders(r.Context(), parseText(r, "reminders"))
	redirectToDashboard(w, r, m, "")
}

// handleExpenses replaces the month's table and saves the whole state.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	m, err := s.monthFromForm(w, r)
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	entries, err := parseExpenseRows(r)
	if err != nil {
		s.writeFormError(w, r, m, err)
		return
	}

	s.ledger.ReplaceExpenses(r.Context(), m, entries)
	if err := s.ledger.Save(r.Context()); err != nil {
		s.writeFormError(w, r, m, err)
		return
	}
	redirectToDashboard(w, r, m, noticeSaved)
}

// monthFromForm parses the body and the month. On a bad month the returned
// month is the current one so error pages still link somewhere sensible.
func (s *Server) monthFromForm(w http.ResponseWriter, r *http.Request) (core.Month, error) {
	current := core.MonthOf(s.now())
	if err := parseForm(w, r); err != nil {
		return current, err
	}
	m, err := s.parseMonth(r)
	if err != nil {
		return current, err
	}
	return m, nil
}
