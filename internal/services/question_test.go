package services

import (
	"context"
	"strings"
	"testing"

	"github.com/samuq/backend/internal/models"
)

func TestQuestionAsk_SanitizesAndCountsTerms(t *testing.T) {
	db := newTestDB(t)
	queue := NewSyncQueue()
	terms := NewAskedTermService(db)
	queue.SetProcessor(terms.ProcessTask)
	svc := NewQuestionService(db, queue)

	q, err := svc.Ask(context.Background(), &AskQuestionRequest{
		Text:     `<b>Quando</b> chamar o SAMU? <script>alert(1)</script>`,
		Category: " <i>Urgência</i> ",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	queue.Wait()

	if q.Text != "Quando chamar o SAMU?" {
		t.Errorf("Text = %q", q.Text)
	}
	if q.Category != "Urgência" {
		t.Errorf("Category = %q", q.Category)
	}
	if q.Status != models.QuestionStatusNew || q.IPHash == "" {
		t.Errorf("question = %+v", q)
	}
	if got := askedTerm(t, db, "chamar").Count; got != 1 {
		t.Errorf("chamar count = %d", got)
	}
}

func TestQuestionAsk_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db, nil)

	tests := []struct {
		name string
		req  AskQuestionRequest
	}{
		{name: "empty", req: AskQuestionRequest{Text: "   "}},
		{name: "markup only", req: AskQuestionRequest{Text: "<p></p>"}},
		{name: "too long", req: AskQuestionRequest{Text: strings.Repeat("a", 5001)}},
		{name: "category too long", req: AskQuestionRequest{Text: "ok", Category: strings.Repeat("c", 101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Ask(context.Background(), &tt.req, ""); KindOf(err) != ErrKindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	var n int64
	db.Model(&models.Question{}).Count(&n)
	if n != 0 {
		t.Errorf("invalid questions were stored: %d", n)
	}
}

func TestQuestionInbox(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db, nil)
	ctx := context.Background()

	var ids []uint
	for _, text := range []string{"Como pedir ambulância", "Tempo de espera", "Ambulância para evento"} {
		q, err := svc.Ask(ctx, &AskQuestionRequest{Text: text}, "")
		if err != nil {
			t.Fatalf("Ask() error: %v", err)
		}
		ids = append(ids, q.ID)
	}

	if _, err := svc.MarkReviewed(ctx, ids[0]); err != nil {
		t.Fatalf("MarkReviewed() error: %v", err)
	}

	all, err := svc.List(ctx, &QuestionListRequest{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if all.Total != 3 || all.Items[0].ID != ids[2] || all.PageSize != 15 {
		t.Errorf("list = %+v", all)
	}

	reviewed, _ := svc.List(ctx, &QuestionListRequest{Status: models.QuestionStatusReviewed})
	if reviewed.Total != 1 || reviewed.Items[0].ID != ids[0] {
		t.Errorf("reviewed = %+v", reviewed)
	}

	searched, _ := svc.List(ctx, &QuestionListRequest{Query: "ESPERA"})
	if searched.Total != 1 || searched.Items[0].ID != ids[1] {
		t.Errorf("searched = %+v", searched)
	}

	ignored, _ := svc.List(ctx, &QuestionListRequest{Status: "archived"})
	if ignored.Total != 3 {
		t.Errorf("unknown status should not filter, got %d", ignored.Total)
	}

	if _, err := svc.GetByID(ctx, 999); KindOf(err) != ErrKindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}
