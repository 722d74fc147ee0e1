// Package web serves the customer-facing surface: the availability
// calendar, the booking drawer, and the my-page history view. All data
// comes through the gateway; the server only caches the capacity map
// and refreshes it wholesale after any mutation.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/salon-booking/internal/auth"
	"github.com/example/salon-booking/internal/booking"
	"github.com/example/salon-booking/internal/calendar"
	"github.com/example/salon-booking/internal/capacity"
	"github.com/example/salon-booking/internal/gateway"
	"github.com/example/salon-booking/internal/history"
	"github.com/example/salon-booking/internal/session"
	"github.com/example/salon-booking/internal/wizard"
)

//go:embed templates/*.html static/*
var fs embed.FS

// capacityTTL bounds how stale the cached capacity map may get before
// a calendar render re-fetches it.
const capacityTTL = time.Minute

const monthLayout = "2006-01"

type Server struct {
	Auth     *auth.Store
	Gateway  *gateway.Client
	Sessions *session.Manager
	Logger   *log.Logger

	BaseURL      string
	PollInterval time.Duration

	mu          sync.Mutex
	wizards     map[string]*wizard.Wizard
	reconcilers map[string]*history.Reconciler
	capCache    map[string]booking.DayCapacity
	capFetched  time.Time
}

type tmplData struct {
	Title string
	Email string
	Flash string

	// calendar
	MonthLabel string
	PrevMonth  string
	NextMonth  string
	Weekdays   []string
	Cells      []calendar.AnnotatedCell

	// drawer
	Step          wizard.Step
	Date          string
	Slots         []booking.Slot
	Selected      *booking.Slot
	Customer      booking.CustomerDetails
	People        int
	PeopleOptions []int
	Total         int
	WizardErr     string
	InFlight      bool

	// my page
	Records     []booking.BookingRecord
	LastUpdated string
	PollSeconds int
	Profile     auth.Customer
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleCalendar)))
	mux.Handle("/day", s.Auth.RequireAuth(http.HandlerFunc(s.handleDay)))
	mux.Handle("/drawer", s.Auth.RequireAuth(http.HandlerFunc(s.handleDrawer)))
	mux.Handle("/drawer/select", s.Auth.RequireAuth(http.HandlerFunc(s.handleDrawerSelect)))
	mux.Handle("/drawer/details", s.Auth.RequireAuth(http.HandlerFunc(s.handleDrawerDetails)))
	mux.Handle("/drawer/confirm", s.Auth.RequireAuth(http.HandlerFunc(s.handleDrawerConfirm)))
	mux.Handle("/drawer/back", s.Auth.RequireAuth(http.HandlerFunc(s.handleDrawerBack)))
	mux.Handle("/drawer/close", s.Auth.RequireAuth(http.HandlerFunc(s.handleDrawerClose)))
	mux.Handle("/mypage", s.Auth.RequireAuth(http.HandlerFunc(s.handleMyPage)))
	mux.Handle("/mypage/cancel", s.Auth.RequireAuth(http.HandlerFunc(s.handleCancel)))
	mux.Handle("/profile", s.Auth.RequireAuth(http.HandlerFunc(s.handleProfile)))
	mux.Handle("/account/delete", s.Auth.RequireAuth(http.HandlerFunc(s.handleAccountDelete)))

	return mux
}

// wizardFor returns the customer's wizard, creating it on first use.
// A successful booking invalidates the capacity cache so the calendar
// reflects the new counts on the next render.
func (s *Server) wizardFor(email string) *wizard.Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wizards == nil {
		s.wizards = map[string]*wizard.Wizard{}
	}
	w, ok := s.wizards[email]
	if !ok {
		w = wizard.New(s.Gateway, func(string) { s.invalidateCapacities() })
		s.wizards[email] = w
	}
	return w
}

func (s *Server) reconcilerFor(email string) *history.Reconciler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reconcilers == nil {
		s.reconcilers = map[string]*history.Reconciler{}
	}
	rec, ok := s.reconcilers[email]
	if !ok {
		rec = history.NewReconciler(s.Gateway, email, s.invalidateCapacities)
		s.reconcilers[email] = rec
	}
	return rec
}

func (s *Server) invalidateCapacities() {
	s.mu.Lock()
	s.capFetched = time.Time{}
	s.mu.Unlock()
}

// capacities returns the cached capacity map, re-fetching when the
// cache is empty, stale, or was invalidated by a mutation.
func (s *Server) capacities(ctx context.Context) (map[string]booking.DayCapacity, error) {
	s.mu.Lock()
	if s.capCache != nil && time.Since(s.capFetched) < capacityTTL {
		caps := s.capCache
		s.mu.Unlock()
		return caps, nil
	}
	s.mu.Unlock()

	caps, err := s.Gateway.FetchDayCapacities(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.capCache = caps
	s.capFetched = time.Now()
	s.mu.Unlock()
	return caps, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		s.Sessions.BeginSignIn()
		c, err := s.Auth.Authenticate(r.Context(), email, password)
		if err != nil {
			s.Sessions.SignOut()
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid email/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, c.Email); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.Sessions.CompleteSignIn(session.Account{Email: c.Email, Name: c.Name, Phone: c.Phone})
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/signup.html", tmplData{Title: "Sign up"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		if !booking.ValidEmail(email) {
			s.render(w, "templates/signup.html", tmplData{Title: "Sign up", Flash: "please enter a valid email address"})
			return
		}
		if len(password) < 8 {
			s.render(w, "templates/signup.html", tmplData{Title: "Sign up", Flash: "password must be at least 8 characters"})
			return
		}
		if err := s.Auth.CreateCustomer(r.Context(), email, r.FormValue("name"), r.FormValue("phone"), password); err != nil {
			s.Logger.Warn("signup failed", "email", email, "err", err)
			s.render(w, "templates/signup.html", tmplData{Title: "Sign up", Flash: "could not create account"})
			return
		}
		c, err := s.Auth.Authenticate(r.Context(), email, password)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if err := s.Auth.SetSession(w, r, c.Email); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.Sessions.CompleteSignIn(session.Account{Email: c.Email, Name: c.Name, Phone: c.Phone})
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	s.Sessions.SignOut()
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	email, _ := auth.EmailFromContext(r.Context())

	anchor := time.Now()
	if m := r.URL.Query().Get("month"); m != "" {
		if parsed, err := time.Parse(monthLayout, m); err == nil {
			anchor = parsed
		}
	}

	data := tmplData{
		Title:      "Reservations",
		Email:      email,
		Flash:      r.URL.Query().Get("notice"),
		MonthLabel: anchor.Format("January 2006"),
		PrevMonth:  calendar.AddMonths(anchor, -1).Format(monthLayout),
		NextMonth:  calendar.AddMonths(anchor, 1).Format(monthLayout),
		Weekdays:   []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	}

	caps, err := s.capacities(r.Context())
	if err != nil {
		s.Logger.Warn("capacity fetch failed", "err", err)
		data.Flash = gateway.UserMessage(err)
		caps = map[string]booking.DayCapacity{}
	}
	data.Cells = calendar.Annotate(calendar.BuildMonthGrid(anchor), caps, time.Now())

	s.render(w, "templates/calendar.html", data)
}

// handleDay guards a calendar cell click before any network mutation:
// past dates and full days never open the drawer.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	dateStr := r.URL.Query().Get("date")

	date, err := time.Parse(booking.DateLayout, dateStr)
	if err != nil {
		http.Redirect(w, r, "/?notice="+escape("unknown date"), http.StatusFound)
		return
	}
	if capacity.IsPast(date, time.Now()) {
		http.Redirect(w, r, "/?notice="+escape("past dates cannot be booked"), http.StatusFound)
		return
	}

	caps, err := s.capacities(r.Context())
	if err != nil {
		http.Redirect(w, r, "/?notice="+escape(gateway.UserMessage(err)), http.StatusFound)
		return
	}
	day, ok := caps[dateStr]
	if !ok || !capacity.IsBookable(&day, date, time.Now()) {
		http.Redirect(w, r, "/?notice="+escape("this day is fully booked"), http.StatusFound)
		return
	}

	s.wizardFor(email).Open(dateStr, day.Slots)
	http.Redirect(w, r, "/drawer", http.StatusFound)
}

func (s *Server) handleDrawer(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	wz := s.wizardFor(email)

	step := wz.Step()
	if step == wizard.StepClosed {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data := tmplData{
		Title:         "Booking",
		Email:         email,
		Step:          step,
		Date:          wz.Date(),
		Slots:         wz.Slots(),
		Selected:      wz.Selected(),
		Customer:      wz.Customer(),
		People:        wz.Customer().People,
		PeopleOptions: []int{1, 2, 3, booking.MaxPeoplePerSlot},
		Total:         wz.TotalPrice(),
		WizardErr:     wz.ValidationError(),
		InFlight:      wz.InFlight(),
	}
	s.render(w, "templates/drawer.html", data)
}

func (s *Server) handleDrawerSelect(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	wz := s.wizardFor(email)
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if id, err := strconv.Atoi(r.FormValue("slot")); err == nil {
		if err := wz.SelectSlot(id); err != nil {
			http.Redirect(w, r, "/drawer", http.StatusFound)
			return
		}
	}
	_ = wz.Next(r.Context())
	http.Redirect(w, r, "/drawer", http.StatusFound)
}

func (s *Server) handleDrawerDetails(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	wz := s.wizardFor(email)
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	people, _ := strconv.Atoi(r.FormValue("people"))
	wz.SetDetails(r.FormValue("name"), r.FormValue("email"), r.FormValue("phone"), people)
	_ = wz.Next(r.Context())
	http.Redirect(w, r, "/drawer", http.StatusFound)
}

func (s *Server) handleDrawerConfirm(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	wz := s.wizardFor(email)
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Submission outcome lands in wizard state: complete on success,
	// back at the details step with the message on failure.
	_ = wz.Next(r.Context())
	http.Redirect(w, r, "/drawer", http.StatusFound)
}

func (s *Server) handleDrawerBack(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_ = s.wizardFor(email).Back()
	http.Redirect(w, r, "/drawer", http.StatusFound)
}

func (s *Server) handleDrawerClose(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	wz := s.wizardFor(email)
	completed := wz.Step() == wizard.StepComplete
	if completed {
		_ = wz.Acknowledge()
		http.Redirect(w, r, "/mypage", http.StatusFound)
		return
	}
	wz.Close()
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleMyPage(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	rec := s.reconcilerFor(email)

	data := tmplData{
		Title:       "My Page",
		Email:       email,
		Flash:       r.URL.Query().Get("notice"),
		PollSeconds: s.pollSeconds(),
	}

	if err := rec.Refresh(r.Context()); err != nil {
		s.Logger.Warn("history refresh failed", "email", email, "err", err)
		if data.Flash == "" {
			data.Flash = gateway.UserMessage(err)
		}
	}
	data.Records = rec.Records()
	if t := rec.LastUpdated(); !t.IsZero() {
		data.LastUpdated = t.Format("15:04:05")
	}

	if c, err := s.Auth.GetCustomer(r.Context(), email); err == nil {
		data.Profile = c
	}

	s.render(w, "templates/mypage.html", data)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec := s.reconcilerFor(email)
	record, ok := rec.Find(r.FormValue("booking_id"))
	if !ok {
		http.Redirect(w, r, "/mypage?notice="+escape("booking not found"), http.StatusFound)
		return
	}
	if err := rec.Cancel(r.Context(), record); err != nil {
		http.Redirect(w, r, "/mypage?notice="+escape(gateway.UserMessage(err)), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/mypage?notice="+escape("your booking was cancelled"), http.StatusFound)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Auth.UpdateProfile(r.Context(), email, r.FormValue("name"), r.FormValue("phone")); err != nil {
		http.Redirect(w, r, "/mypage?notice="+escape("could not update profile"), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/mypage?notice="+escape("profile updated"), http.StatusFound)
}

// handleAccountDelete wipes remote history first, then the local
// account. If the remote wipe fails the account stays so the customer
// can retry.
func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Gateway.DeleteHistory(r.Context(), email); err != nil {
		http.Redirect(w, r, "/mypage?notice="+escape(gateway.UserMessage(err)), http.StatusFound)
		return
	}
	if err := s.Auth.DeleteCustomer(r.Context(), email); err != nil {
		s.Logger.Error("account row delete failed", "email", email, "err", err)
	}
	s.Auth.ClearSession(w)
	s.Sessions.SignOut()
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) pollSeconds() int {
	if s.PollInterval <= 0 {
		return int(history.DefaultInterval.Seconds())
	}
	return int(s.PollInterval.Seconds())
}

var tmplFuncs = template.FuncMap{
	"yen": FormatYen,
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.New("").Funcs(tmplFuncs).ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

// FormatYen renders a price as a yen amount with thousands separators.
func FormatYen(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := "¥" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func escape(s string) string {
	return url.QueryEscape(s)
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}
