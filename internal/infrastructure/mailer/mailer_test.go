package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eventfin/fincore/internal/domain"
)

type stubStore struct {
	mails  []*domain.QueuedMail
	marked []string
}

func (s *stubStore) NextUnsent(ctx context.Context, limit int) ([]*domain.QueuedMail, error) {
	if len(s.mails) > limit {
		return s.mails[:limit], nil
	}
	return s.mails, nil
}

func (s *stubStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	s.marked = append(s.marked, id)
	return nil
}

type stubSender struct {
	sent       []*domain.QueuedMail
	errorsByID map[string]error
}

func (s *stubSender) Send(ctx context.Context, mail *domain.QueuedMail) error {
	if err := s.errorsByID[mail.ID]; err != nil {
		return err
	}
	s.sent = append(s.sent, mail)
	return nil
}

func newTestWorker(store *stubStore, sender *stubSender) *Worker {
	return NewWorker(Config{
		Store:  store,
		Sender: sender,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestDrainSendsAndMarks(t *testing.T) {
	store := &stubStore{
		mails: []*domain.QueuedMail{{ID: "mail-1", Template: domain.MailTemplateReceipt}},
	}
	sender := &stubSender{}
	w := newTestWorker(store, sender)

	if err := w.drain(context.Background()); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected one sent mail, got %d", len(sender.sent))
	}
	if len(store.marked) != 1 || store.marked[0] != "mail-1" {
		t.Fatalf("expected mail to be marked sent, got %#v", store.marked)
	}
}

func TestDrainContinuesOnSendError(t *testing.T) {
	store := &stubStore{
		mails: []*domain.QueuedMail{
			{ID: "mail-1", Template: domain.MailTemplateReceipt},
			{ID: "mail-2", Template: domain.MailTemplateReminder},
		},
	}
	sender := &stubSender{
		errorsByID: map[string]error{"mail-1": errors.New("smtp down")},
	}
	w := newTestWorker(store, sender)

	if err := w.drain(context.Background()); err != nil {
		t.Fatalf("drain returned error: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0].ID != "mail-2" {
		t.Fatalf("expected only mail-2 to be sent, got %#v", sender.sent)
	}
	if len(store.marked) != 1 || store.marked[0] != "mail-2" {
		t.Fatalf("expected only mail-2 to be marked, got %#v", store.marked)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	store := &stubStore{}
	sender := &stubSender{}
	w := newTestWorker(store, sender)
	w.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
