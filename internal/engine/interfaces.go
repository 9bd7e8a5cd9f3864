package engine

import (
	"context"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
)

// ProfileStore persists parsing profiles.
type ProfileStore interface {
	List(ctx context.Context, supplier string) ([]*model.ParsingProfile, error)
	Save(ctx context.Context, p *model.ParsingProfile) error
}

// Catalog is the reference catalog as the engine sees it: extractors
// read from it, the learner writes into it.
type Catalog interface {
	Lookup(ctx context.Context, supplier, referenceCode string) (string, bool)
	Remember(ctx context.Context, supplier, referenceCode, description string) error
}
