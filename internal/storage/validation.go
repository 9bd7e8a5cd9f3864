package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
	"github.com/Kdotropez/facture-fournisseur/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateInvoice ensures an invoice is persistable.
func validateInvoice(inv *model.Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: invoice", ErrNilParameter)
	}
	if inv.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	}
	if inv.Supplier == "" {
		return fmt.Errorf("%w: missing supplier", ErrInvalidRecord)
	}
	return nil
}

// validateProfile ensures a parsing profile is persistable.
func validateProfile(p *model.ParsingProfile) error {
	if p == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if p.Supplier == "" {
		return fmt.Errorf("%w: missing supplier", common.ErrInvalidProfile)
	}
	if len(p.Signature) == 0 {
		return fmt.Errorf("%w: missing signature", common.ErrInvalidProfile)
	}
	return nil
}
