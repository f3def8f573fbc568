package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"textdrive/internal/models"
)

type identityKey struct{}

var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// twiml is the gateway's expected reply document for /sms.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInbound is the SMS gateway webhook. One inbound message is one
// command; the reply travels back in the webhook response.
func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form data", http.StatusBadRequest)
		return
	}

	sigURL := strings.TrimRight(s.cfg.Server.PublicURL, "/") + "/sms"
	if !ValidateSignature(s.cfg.Gateway.AuthToken, sigURL, r.PostForm, r.Header.Get("X-Twilio-Signature")) {
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	from := r.PostForm.Get("From")
	body := r.PostForm.Get("Body")
	if from == "" {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	// Per-identity serialization: the interpreter's read-modify-write is
	// not safe against a concurrent command from the same sender.
	unlock := s.locks.Lock(from)
	defer unlock()

	state, err := s.store.NavState(from)
	if err != nil {
		log.Printf("Failed to load session for %s: %v", from, err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	reply := s.interp.Handle(r.Context(), from, state, body)

	if err := s.store.SaveNavState(from, state); err != nil {
		log.Printf("Failed to save session for %s: %v", from, err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, xml.Header)
	if err := xml.NewEncoder(w).Encode(twiml{Message: reply}); err != nil {
		log.Printf("Failed to encode webhook reply: %v", err)
	}
}

// handleVerifyStart texts a confirmation code to a phone number.
func (s *Server) handleVerifyStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !phonePattern.MatchString(req.Phone) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "please provide a valid phone number"})
		return
	}

	code, err := genCode()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ttl := time.Duration(s.cfg.Auth.CodeTTLMinutes) * time.Minute
	if err := s.store.PutVerification(req.Phone, code, time.Now().Add(ttl)); err != nil {
		log.Printf("Failed to store verification code for %s: %v", req.Phone, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body := fmt.Sprintf("Your confirmation code is: %s", code)
	if err := s.messenger.Send(r.Context(), req.Phone, s.cfg.Gateway.Number, body); err != nil {
		log.Printf("Failed to deliver verification code to %s: %v", req.Phone, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not deliver the confirmation code"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleVerifyCheck exchanges a valid confirmation code for a bearer token.
func (s *Server) handleVerifyCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone and code are required"})
		return
	}

	ok, err := s.store.CheckVerification(req.Phone, req.Code, time.Now())
	if err != nil {
		log.Printf("Failed to check verification code for %s: %v", req.Phone, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "your confirmation code was invalid"})
		return
	}

	ttl := time.Duration(s.cfg.Auth.TokenTTLMinutes) * time.Minute
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "textdrive",
		Subject:   req.Phone,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		log.Printf("Failed to sign token for %s: %v", req.Phone, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": int(ttl.Seconds()),
	})
}

// authMiddleware validates the bearer token and puts the verified phone
// number into the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(s.cfg.Auth.JWTSecret), nil
			})
		if err != nil || !token.Valid || claims.Subject == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey{}).(string)
	return identity
}

// handleListAccounts returns the caller's linked accounts.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.AccountsFor(identityFrom(r.Context()))
	if err != nil {
		log.Printf("Failed to list accounts: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, map[string]string{
			"id":      a.ID,
			"service": a.Service,
			"label":   a.Label,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLinkAccount links a storage account to the caller's identity.
func (s *Server) handleLinkAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service string `json:"service"`
		Label   string `json:"label"`
		Bucket  string `json:"bucket"`
		Prefix  string `json:"prefix"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Service == "" || req.Bucket == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "service and bucket are required"})
		return
	}

	id, err := newAccountID(req.Service)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	acct := models.StorageAccount{
		ID:       id,
		Identity: identityFrom(r.Context()),
		Service:  req.Service,
		Label:    req.Label,
		Bucket:   req.Bucket,
		Prefix:   req.Prefix,
	}
	if err := s.store.LinkAccount(acct); err != nil {
		log.Printf("Failed to link account: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleUnlinkAccounts removes every account linked to the caller.
func (s *Server) handleUnlinkAccounts(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UnlinkAccounts(identityFrom(r.Context())); err != nil {
		log.Printf("Failed to unlink accounts: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// genCode produces a 10-character alphanumeric confirmation code.
func genCode() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// newAccountID builds a readable unique account id like "s3-1a2b3c4d".
func newAccountID(service string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToLower(service) + "-" + hex.EncodeToString(buf), nil
}
