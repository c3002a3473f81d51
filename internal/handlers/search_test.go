package handlers

import (
	"net/http"
	"testing"

	"github.com/samuq/backend/internal/models"
)

func TestSearchLog(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, "POST", "/api/search-log", `{"term":"abcde xyzqt ab","results_count":0}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var first SearchLogResponse
	decode(t, resp.Data, &first)
	if len(first.Logged) != 2 || len(first.Ignored.Short) != 1 || first.Ignored.Short[0] != "ab" {
		t.Errorf("unexpected first response %+v", first)
	}
	if first.TotalPhrase != "abcde xyzqt ab" {
		t.Errorf("unexpected phrase %q", first.TotalPhrase)
	}

	w, resp = env.do(t, "POST", "/api/search-log", `{"term":"ABCDE","results_count":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a recent term, got %d", w.Code)
	}
	var second SearchLogResponse
	decode(t, resp.Data, &second)
	if len(second.Logged) != 0 || len(second.Ignored.Recent) != 1 {
		t.Errorf("unexpected second response %+v", second)
	}

	var count int64
	env.db.Model(&models.SearchLogEntry{}).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 stored terms, got %d", count)
	}
}

func TestSearchLog_Ignored(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name       string
		body       string
		wantReason string
	}{
		{"non zero results", `{"term":"nao entra","results_count":1}`, "non_zero_results"},
		{"punctuation only", `{"term":"?!","results_count":0}`, "no_tokens"},
		{"numeric string count", `{"term":"nao entra","results_count":"3"}`, "non_zero_results"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do(t, "POST", "/api/search-log", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var data SearchLogSkipped
			decode(t, resp.Data, &data)
			if !data.Ignored || data.Reason != tt.wantReason {
				t.Errorf("unexpected response %+v", data)
			}
		})
	}

	var count int64
	env.db.Model(&models.SearchLogEntry{}).Count(&count)
	if count != 0 {
		t.Errorf("expected nothing stored, got %d", count)
	}
}

func TestSearchLog_BadRequest(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"invalid json", `{"term":`, "invalid json"},
		{"empty term", `{"term":"   ","results_count":0}`, "empty term"},
		{"missing term", `{"results_count":0}`, "empty term"},
		{"non numeric count", `{"term":"oxigenio","results_count":"muitos"}`, "invalid json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do(t, "POST", "/api/search-log", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("expected %q, got %q", tt.wantMessage, resp.Message)
			}
		})
	}
}

func TestSearchLog_LooseResultsCount(t *testing.T) {
	env := newTestEnv(t)
	bodies := []string{
		`{"term":"oxigenio","results_count":"0"}`,
		`{"term":"desfibrilador","results_count":null}`,
		`{"term":"prancha"}`,
		`{"term":"colar cervical","results_count":""}`,
	}
	for _, body := range bodies {
		w, _ := env.do(t, "POST", "/api/search-log", body)
		if w.Code != http.StatusCreated {
			t.Errorf("%s: expected 201, got %d: %s", body, w.Code, w.Body.String())
		}
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		in      string
		want    FlexInt
		wantErr bool
	}{
		{`0`, 0, false},
		{`7`, 7, false},
		{`"12"`, 12, false},
		{`" 2 "`, 2, false},
		{`2.9`, 2, false},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"abc"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		var got FlexInt
		err := got.UnmarshalJSON([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalJSON(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSearchTermsRecent(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "POST", "/api/search-log", `{"term":"oxigenio","results_count":0}`)

	w, resp := env.do(t, "GET", "/api/inbox/search-terms?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var entries []models.SearchLogEntry
	decode(t, resp.Data, &entries)
	if len(entries) != 1 || entries[0].Term != "oxigenio" {
		t.Errorf("unexpected entries %+v", entries)
	}
}
