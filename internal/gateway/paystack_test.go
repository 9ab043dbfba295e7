package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"learnhub-backend/internal/domain"
)

func TestInitializeTransaction(t *testing.T) {
	t.Run("sends subunits and returns the session", func(t *testing.T) {
		var got map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
			json.NewDecoder(r.Body).Decode(&got)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":true,"data":{"authorization_url":"https://checkout.test/x","access_code":"ac_1","reference":"lh_ref"}}`))
		}))
		defer server.Close()

		gw := NewPaystackGateway(server.URL, "sk_test_abc", "")
		session, err := gw.InitializeTransaction(context.Background(), "a@b.io", 150.50, "lh_ref", nil)
		assert.NoError(t, err)
		assert.Equal(t, "lh_ref", session.Reference)
		assert.Equal(t, "https://checkout.test/x", session.AuthorizationURL)
		assert.Equal(t, float64(15050), got["amount"])
	})

	t.Run("callback url included when configured", func(t *testing.T) {
		var got map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":true,"data":{"reference":"lh_ref"}}`))
		}))
		defer server.Close()

		gw := NewPaystackGateway(server.URL, "sk_test_abc", "https://app.test/payment/callback")
		_, err := gw.InitializeTransaction(context.Background(), "a@b.io", 100, "lh_ref", nil)
		assert.NoError(t, err)
		assert.Equal(t, "https://app.test/payment/callback", got["callback_url"])
	})

	t.Run("server error wraps gateway unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gw := NewPaystackGateway(server.URL, "sk_test_abc", "")
		_, err := gw.InitializeTransaction(context.Background(), "a@b.io", 100, "lh_ref", nil)
		assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	})

	t.Run("unreachable host wraps gateway unavailable", func(t *testing.T) {
		gw := NewPaystackGateway("http://127.0.0.1:1", "sk_test_abc", "")
		_, err := gw.InitializeTransaction(context.Background(), "a@b.io", 100, "lh_ref", nil)
		assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	})
}

func TestVerifyTransaction(t *testing.T) {
	t.Run("maps outcome and converts amount", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/verify/lh_ref", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":true,"data":{"reference":"lh_ref","status":"success","amount":20000,"channel":"card"}}`))
		}))
		defer server.Close()

		gw := NewPaystackGateway(server.URL, "sk_test_abc", "")
		tx, err := gw.VerifyTransaction(context.Background(), "lh_ref")
		assert.NoError(t, err)
		assert.Equal(t, domain.OutcomeSuccess, tx.Outcome)
		assert.Equal(t, 200.0, tx.Amount)
	})

	t.Run("unknown reference", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		gw := NewPaystackGateway(server.URL, "sk_test_abc", "")
		_, err := gw.VerifyTransaction(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("processing maps to pending", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":true,"data":{"reference":"lh_ref","status":"processing","amount":20000}}`))
		}))
		defer server.Close()

		gw := NewPaystackGateway(server.URL, "sk_test_abc", "")
		tx, err := gw.VerifyTransaction(context.Background(), "lh_ref")
		assert.NoError(t, err)
		assert.Equal(t, domain.OutcomePending, tx.Outcome)
	})

	t.Run("abandoned maps to failed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":true,"data":{"reference":"lh_ref","status":"abandoned","amount":20000}}`))
		}))
		defer server.Close()

		gw := NewPaystackGateway(server.URL, "sk_test_abc", "")
		tx, err := gw.VerifyTransaction(context.Background(), "lh_ref")
		assert.NoError(t, err)
		assert.Equal(t, domain.OutcomeFailed, tx.Outcome)
	})
}

func TestValidateSignature(t *testing.T) {
	gw := NewPaystackGateway("http://localhost", "sk_test_abc", "")
	body := []byte(`{"event":"charge.success","data":{"reference":"lh_ref"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_abc"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	t.Run("valid signature accepted", func(t *testing.T) {
		assert.True(t, gw.ValidateSignature(valid, body))
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		assert.False(t, gw.ValidateSignature(valid, append(body, ' ')))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := hmac.New(sha512.New, []byte("sk_wrong"))
		other.Write(body)
		assert.False(t, gw.ValidateSignature(hex.EncodeToString(other.Sum(nil)), body))
	})

	t.Run("empty signature rejected", func(t *testing.T) {
		assert.False(t, gw.ValidateSignature("", body))
	})
}
