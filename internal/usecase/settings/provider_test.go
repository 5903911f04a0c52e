package settings

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/snapfind/internal/domain"
	domset "github.com/kailas-cloud/snapfind/internal/domain/settings"
)

func TestNewProvider_RejectsInvalidSeed(t *testing.T) {
	seed := domset.Default()
	seed.CandidateLimit = 0

	if _, err := NewProvider(seed); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Errorf("expected invalid settings error, got %v", err)
	}
}

func TestUpdate_SwapsSnapshot(t *testing.T) {
	p, err := NewProvider(domset.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := p.Get()

	next := domset.Default()
	next.OutputK = 5
	if err := p.Update(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Get().OutputK != 5 {
		t.Errorf("expected updated snapshot, got output_k %d", p.Get().OutputK)
	}
	// The earlier snapshot pointer keeps its values.
	if before.OutputK != domset.Default().OutputK {
		t.Errorf("previous snapshot mutated: output_k %d", before.OutputK)
	}
}

func TestUpdate_InvalidKeepsCurrent(t *testing.T) {
	p, err := NewProvider(domset.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := domset.Default()
	bad.Bands = domset.Bands{High: 0.2, Medium: 0.5}
	if err := p.Update(bad); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Fatalf("expected invalid settings error, got %v", err)
	}

	if p.Get().Bands.High != domset.Default().Bands.High {
		t.Error("rejected update must not replace the snapshot")
	}
}
