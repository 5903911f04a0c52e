package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/snapfind/internal/domain"
	domcat "github.com/kailas-cloud/snapfind/internal/domain/catalog"
)

type mockRepo struct {
	upserted []domcat.Product
	deleted  []string
	getErr   error
	product  domcat.Product
}

func (m *mockRepo) EnsureIndex(context.Context) error { return nil }

func (m *mockRepo) Upsert(_ context.Context, p domcat.Product) error {
	m.upserted = append(m.upserted, p)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepo) GetByID(context.Context, string) (domcat.Product, error) {
	return m.product, m.getErr
}

func (m *mockRepo) FindByTitle(context.Context, string) (domcat.Product, error) {
	return m.product, m.getErr
}

func TestUpsert_Valid(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	p := domcat.New("p1", "Velvet Sofa", "sofa", "", 499.99, nil, nil, nil, "")
	if err := svc.Upsert(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("upserted: got %d, want 1", len(repo.upserted))
	}
}

func TestUpsert_MissingID(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	p := domcat.New("  ", "Velvet Sofa", "", "", 0, nil, nil, nil, "")
	err := svc.Upsert(context.Background(), p)
	if !errors.Is(err, domain.ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Errorf("repo should not be called on invalid input")
	}
}

func TestUpsert_MissingTitle(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	p := domcat.New("p1", "", "", "", 0, nil, nil, nil, "")
	err := svc.Upsert(context.Background(), p)
	if !errors.Is(err, domain.ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}
}

func TestGet_NotFoundPassesThrough(t *testing.T) {
	repo := &mockRepo{getErr: domain.ErrProductNotFound}
	svc := New(repo)

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDelete_CallsRepo(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "p1" {
		t.Errorf("deleted: got %v, want [p1]", repo.deleted)
	}
}
