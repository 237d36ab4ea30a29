package http

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"zeus/internal/core"
	"zeus/internal/news"
)

type monthOption struct {
	Label    string
	Selected bool
}

type expenseRow struct {
	Category string
	Item     string
	Amount   string
}

type dashboardView struct {
	Month  string
	Months []monthOption
	Notice string
	// Warning marks notices that report a refused operation.
	Warning bool

	Income    string
	Expenses  string
	Savings   string
	Remaining string
	Deficit   bool

	IncomeInput string
	GoalInput   string

	Goal          string
	TotalSaved    string
	GoalPercent   float64
	GoalPercentFm string

	Notes         string
	RemindersText string
	Reminders     []string

	Rows []expenseRow

	News        news.Result
	NewsEnabled bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	m, err := s.parseMonth(r)
	if err != nil {
		// Unknown month in the URL falls back to the current one.
		m = core.MonthOf(s.now())
	}

	st := s.ledger.Snapshot()
	view := buildDashboardView(st, m)

	notice := r.URL.Query().Get("notice")
	if msg, ok := noticeMessages[notice]; ok {
		view.Notice = msg
		view.Warning = notice == noticeInsufficient
	}

	if s.news != nil {
		view.News = s.news.Latest(r.Context())
		view.NewsEnabled = true
	}

	s.render(w, r, http.StatusOK, "dashboard.html", view)
}

func buildDashboardView(st *core.State, m core.Month) dashboardView {
	sum := core.Summarize(st, m)
	progress := core.GoalProgress(st) * 100

	view := dashboardView{
		Month:         m.String(),
		Income:        core.FormatBRL(sum.Income),
		Expenses:      core.FormatBRL(sum.Expenses),
		Savings:       core.FormatBRL(sum.Savings),
		Remaining:     core.FormatBRL(sum.Remaining),
		Deficit:       sum.Deficit,
		IncomeInput:   sum.Income.StringFixed(2),
		GoalInput:     st.SavingsGoal.StringFixed(2),
		Goal:          core.FormatBRL(st.SavingsGoal),
		TotalSaved:    core.FormatBRL(core.TotalSavingsAccumulated(st)),
		GoalPercent:   progress,
		GoalPercentFm: strings.Replace(fmt.Sprintf("%.1f", progress), ".", ",", 1),
		Notes:         st.Notes,
		RemindersText: st.Reminders,
	}

	for _, mo := range core.Months() {
		view.Months = append(view.Months, monthOption{Label: mo.String(), Selected: mo == m})
	}
	upper := cases.Upper(language.BrazilianPortuguese)
	for _, item := range st.ReminderItems() {
		view.Reminders = append(view.Reminders, upper.String(item))
	}
	for _, e := range st.Ledger(m).Expenses {
		view.Rows = append(view.Rows, expenseRow{
			Category: e.Category,
			Item:     e.Item,
			Amount:   e.Amount.StringFixed(2),
		})
	}
	return view
}
