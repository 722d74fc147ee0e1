package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/salon-booking/internal/db"
)

// Store manages local customer accounts and the web session cookie.
// The account's email is the customer key everywhere else: history
// lookups, cancellations, account deletion.
type Store struct {
	sc *securecookie.SecureCookie
	db *db.DB
}

type ctxKey string

const emailKey ctxKey = "customerEmail"

func NewStore(d *db.DB, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	// keep cookie small and secure
	sc.MaxAge(int((14 * 24 * time.Hour).Seconds()))
	return &Store{sc: sc, db: d}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	return err == nil
}

// Customer is the locally stored account row.
type Customer struct {
	ID    int64
	Email string
	Name  string
	Phone string
}

func (s *Store) CreateCustomer(ctx context.Context, email, name, phone, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	return s.db.Exec(ctx,
		`INSERT INTO customers(email, name, phone, password_bcrypt) VALUES ($1,$2,$3,$4)`,
		email, strings.TrimSpace(name), strings.TrimSpace(phone), hash)
}

func (s *Store) Authenticate(ctx context.Context, email, password string) (Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c Customer
	var hash string
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, phone, password_bcrypt FROM customers WHERE email=$1`, email).
		Scan(&c.ID, &c.Email, &c.Name, &c.Phone, &hash)
	if err != nil {
		return Customer{}, db.WrapNotFound(err)
	}
	if !CheckPassword(hash, password) {
		return Customer{}, errors.New("invalid email/password")
	}
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, email string) (Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx,
		`SELECT id, email, name, phone FROM customers WHERE email=$1`, strings.ToLower(email)).
		Scan(&c.ID, &c.Email, &c.Name, &c.Phone)
	if err != nil {
		return Customer{}, db.WrapNotFound(err)
	}
	return c, nil
}

func (s *Store) UpdateProfile(ctx context.Context, email, name, phone string) error {
	return s.db.Exec(ctx,
		`UPDATE customers SET name=$2, phone=$3, updated_at=now() WHERE email=$1`,
		strings.ToLower(email), strings.TrimSpace(name), strings.TrimSpace(phone))
}

func (s *Store) ChangePassword(ctx context.Context, email, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.db.Exec(ctx,
		`UPDATE customers SET password_bcrypt=$2, updated_at=now() WHERE email=$1`,
		strings.ToLower(email), hash)
}

// DeleteCustomer removes the local account row. The caller is
// responsible for wiping remote history first.
func (s *Store) DeleteCustomer(ctx context.Context, email string) error {
	return s.db.Exec(ctx, `DELETE FROM customers WHERE email=$1`, strings.ToLower(email))
}

type Session struct {
	Email string
}

const cookieName = "salonbook_session"

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, email string) error {
	val := map[string]string{"email": email}
	encoded, err := s.sc.Encode(cookieName, val)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil, // ok for local http; secure in https
		MaxAge:   int((14 * 24 * time.Hour).Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return Session{}, false
	}
	email := val["email"]
	if email == "" {
		return Session{}, false
	}
	return Session{Email: email}, true
}

func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), emailKey, sess.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}
