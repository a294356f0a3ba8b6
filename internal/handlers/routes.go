package handlers

import "net/http"

// Routes bundles the handlers mounted by RegisterRoutes
type Routes struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Ledger     *LedgerHandler
	Habits     *HabitHandler
	Admin      *AdminHandler
}

// RegisterRoutes mounts the JSON API on mux
func RegisterRoutes(mux *http.ServeMux, rt Routes) {
	m := rt.Middleware

	// wizard: cookie-scoped ledger, no account needed
	ledger := func(h http.HandlerFunc) http.HandlerFunc {
		return m.LedgerSession(m.CSRFProtect(h))
	}
	// signed in, CSRF checked for cookie sessions
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.CSRFProtect(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireAdmin(m.CSRFProtect(h))
	}

	// Auth
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(rt.Auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", rt.Auth.Logout)
	mux.HandleFunc("GET /api/auth/session", authed(rt.Auth.GetSession))
	mux.HandleFunc("GET /api/auth/user", authed(rt.Auth.GetUser))
	mux.HandleFunc("GET /api/auth/providers", rt.Auth.ListOAuthProviders)
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)

	// Wizard ledger
	mux.HandleFunc("GET /api/ledger", ledger(rt.Ledger.GetSnapshot))
	mux.HandleFunc("POST /api/ledger/habits", ledger(rt.Ledger.AddHabit))
	mux.HandleFunc("PATCH /api/ledger/habits/{id}", ledger(rt.Ledger.UpdateHabit))
	mux.HandleFunc("POST /api/ledger/habits/{id}/toggle", ledger(rt.Ledger.ToggleHabit))
	mux.HandleFunc("POST /api/ledger/habits/{id}/skip", ledger(rt.Ledger.SkipHabit))
	mux.HandleFunc("POST /api/ledger/habits/{id}/skip-day", ledger(rt.Ledger.SkipHabitOnDay))
	mux.HandleFunc("DELETE /api/ledger/habits/{id}/skips/{index}", ledger(rt.Ledger.UnskipLog))
	mux.HandleFunc("DELETE /api/ledger/habits/{id}/days/{day}", ledger(rt.Ledger.UnskipHabitOnDay))
	mux.HandleFunc("POST /api/ledger/habits/{id}/spend", ledger(rt.Ledger.MarkSpent))
	mux.HandleFunc("POST /api/ledger/habits/{id}/forfeit", ledger(rt.Ledger.ForfeitHabit))
	mux.HandleFunc("POST /api/ledger/superskip", ledger(rt.Ledger.SuperSkip))
	mux.HandleFunc("POST /api/ledger/reset", ledger(rt.Ledger.ResetSkips))
	mux.HandleFunc("GET /api/ledger/growth", ledger(rt.Ledger.ProjectGrowth))
	mux.HandleFunc("POST /api/reports/weekly", m.RequireAuth(m.LedgerSession(m.CSRFProtect(rt.Ledger.SendWeeklyReport))))

	// Dashboard habits
	mux.HandleFunc("GET /api/habits", authed(rt.Habits.ListHabits))
	mux.HandleFunc("POST /api/habits", authed(rt.Habits.CreateHabit))
	mux.HandleFunc("GET /api/habits/{id}", authed(rt.Habits.GetHabit))
	mux.HandleFunc("PUT /api/habits/{id}", authed(rt.Habits.UpdateHabit))
	mux.HandleFunc("DELETE /api/habits/{id}", authed(rt.Habits.DeleteHabit))
	mux.HandleFunc("GET /api/habits/{id}/skips", authed(rt.Habits.ListSkips))
	mux.HandleFunc("POST /api/habits/{id}/skips", authed(rt.Habits.RecordSkip))

	// Admin
	mux.HandleFunc("GET /api/admin/stats", admin(rt.Admin.GetWeekStats))
	mux.HandleFunc("POST /api/admin/reports/send", admin(rt.Admin.SendWeeklyReports))
	mux.HandleFunc("GET /api/admin/users", admin(rt.Admin.ListUsers))
	mux.HandleFunc("DELETE /api/admin/users/{id}", admin(rt.Admin.DeleteUser))
	mux.HandleFunc("GET /api/admin/export", admin(rt.Admin.ExportDatabase))
	mux.HandleFunc("POST /api/admin/import", admin(rt.Admin.ImportDatabase))
}
