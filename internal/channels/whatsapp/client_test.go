package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendTextMessage(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody SendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")

		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"15551234567","wa_id":"15551234567"}],"messages":[{"id":"wamid.out.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient("access_token_abc", "phone_123")
	client.SetGraphAPIBase(srv.URL)

	resp, err := client.SendTextMessage(context.Background(), "15551234567", "hello back")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if gotPath != "/phone_123/messages" {
		t.Errorf("path = %s, want /phone_123/messages", gotPath)
	}
	if gotAuth != "Bearer access_token_abc" {
		t.Errorf("authorization = %s, want Bearer access_token_abc", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("content-type = %s, want application/json", gotContentType)
	}
	if gotBody.MessagingProduct != "whatsapp" {
		t.Errorf("messaging_product = %s, want whatsapp", gotBody.MessagingProduct)
	}
	if gotBody.To != "15551234567" {
		t.Errorf("to = %s, want 15551234567", gotBody.To)
	}
	if gotBody.Type != "text" {
		t.Errorf("type = %s, want text", gotBody.Type)
	}
	if gotBody.Text.Body != "hello back" {
		t.Errorf("text body = %s, want 'hello back'", gotBody.Text.Body)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "wamid.out.1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSendTextMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid recipient","type":"OAuthException","code":131026,"fbtrace_id":"abc"}}`))
	}))
	defer srv.Close()

	client := NewClient("token", "phone_123")
	client.SetGraphAPIBase(srv.URL)

	resp, err := client.SendTextMessage(context.Background(), "bad", "hi")
	if err == nil {
		t.Fatal("expected error for API error response")
	}
	if resp == nil || resp.Error == nil || resp.Error.Code != 131026 {
		t.Fatalf("expected decoded API error, got %+v", resp)
	}
}

func TestSendTextMessageUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("token", "phone_123")
	client.SetGraphAPIBase(srv.URL)

	if _, err := client.SendTextMessage(context.Background(), "15551234567", "hi"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestSendTextMessageServerUnreachable(t *testing.T) {
	client := NewClient("token", "phone_123")
	client.SetGraphAPIBase("http://127.0.0.1:0")

	if _, err := client.SendTextMessage(context.Background(), "15551234567", "hi"); err == nil {
		t.Fatal("expected transport error")
	}
}
