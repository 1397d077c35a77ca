package quizclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartquiz/quizrun-backend/internal/engine"
)

func newTestServer(t *testing.T, path string, status int, data interface{}, capture *http.Request) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			t.Errorf("path = %q, want %q", r.URL.Path, path)
		}
		if capture != nil {
			*capture = *r
			capture.Header = r.Header.Clone()
			capture.Body = r.Body
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func TestSaveAnswersSendsTokens(t *testing.T) {
	var got http.Request
	srv := newTestServer(t, "/api/v1/quiz/answers", http.StatusOK, map[string]string{"status": "saved"}, &got)
	defer srv.Close()

	c := New(srv.URL, "jwt-abc", "quiz-xyz")
	err := c.SaveAnswers(context.Background(), map[string]string{"1": "A", "2": "C"})
	if err != nil {
		t.Fatalf("SaveAnswers() error = %v", err)
	}

	if auth := got.Header.Get("Authorization"); auth != "Bearer jwt-abc" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer jwt-abc")
	}
	// The wire name is pinned: the server middleware reads exactly this
	// header, and QuizTokenHeader aliases it.
	if QuizTokenHeader != "X-Quiz-Token" {
		t.Fatalf("QuizTokenHeader = %q, want %q", QuizTokenHeader, "X-Quiz-Token")
	}
	if qt := got.Header.Get("X-Quiz-Token"); qt != "quiz-xyz" {
		t.Errorf("X-Quiz-Token = %q, want %q", qt, "quiz-xyz")
	}
}

func TestReportReturnsAutoSubmitVerdict(t *testing.T) {
	srv := newTestServer(t, "/api/v1/quiz/violations", http.StatusOK, map[string]interface{}{
		"count": 3, "max": 3, "auto_submit": true,
	}, nil)
	defer srv.Close()

	c := New(srv.URL, "jwt", "quiz")
	autoSubmit, err := c.Report(context.Background(), engine.Violation{
		Type:   engine.ViolationTabSwitch,
		Device: "Mozilla/5.0",
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !autoSubmit {
		t.Error("Report() autoSubmit = false, want true")
	}
}

func TestSubmitReturnsRedirect(t *testing.T) {
	srv := newTestServer(t, "/api/v1/quiz/submit", http.StatusOK, map[string]interface{}{
		"score": 40, "total_marks": 50, "auto_submitted": false, "redirect": "/result",
	}, nil)
	defer srv.Close()

	c := New(srv.URL, "jwt", "quiz")
	redirect, err := c.Submit(context.Background(), engine.Submission{
		Answers:   map[string]string{"1": "B"},
		TimeTaken: 120,
		Reason:    "user",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if redirect != "/result" {
		t.Errorf("redirect = %q, want %q", redirect, "/result")
	}
}

func TestErrorEnvelopeSurfacesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "ALREADY_SUBMITTED", "message": "already submitted"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "jwt", "quiz")
	_, err := c.Submit(context.Background(), engine.Submission{Answers: map[string]string{}})
	if err == nil {
		t.Fatal("Submit() error = nil, want conflict error")
	}
}
