package profile

import (
	"strings"
	"time"

	"github.com/Kdotropez/facture-fournisseur/internal/model"
)

// Applier replays a profile's memorized snapshot or applies its learned
// rules to a freshly extracted invoice.
type Applier struct{}

// NewApplier creates an applier.
func NewApplier() *Applier {
	return &Applier{}
}

// Apply returns a corrected copy of the extracted invoice and reports
// whether the memorized snapshot was replayed wholesale. Replay happens
// only when the fresh document's normalized number provably equals the
// memorized one's. The profile's use counters are updated on either
// path; the input invoice is never mutated.
func (a *Applier) Apply(p *model.ParsingProfile, extracted *model.Invoice) (*model.Invoice, bool) {
	defer func() {
		p.UseCount++
		p.LastUsed = time.Now().UTC()
	}()

	number := extracted.NormalizedNumber()
	if p.MemorizedInvoice != nil && number != "" && p.MemorizedInvoice.NormalizedNumber() == number {
		return replay(p.MemorizedInvoice, extracted), true
	}
	return applyRules(p.Rules, extracted), false
}

// replay takes the memorized document wholesale, keeping only the fresh
// extraction's identity, import timestamp, source file and raw capture.
func replay(memorized, fresh *model.Invoice) *model.Invoice {
	out := memorized.Clone()
	out.ID = fresh.ID
	out.ImportedAt = fresh.ImportedAt
	out.SourceFileName = fresh.SourceFileName
	out.RawData = fresh.RawData
	return out
}

func applyRules(rules *model.LearnedRules, extracted *model.Invoice) *model.Invoice {
	out := extracted.Clone()
	if rules == nil {
		return out
	}
	for i := range out.Lines {
		for _, frag := range rules.RemovePatterns {
			out.Lines[i].Description = stripFragment(out.Lines[i].Description, frag)
		}
	}
	if len(out.Lines) > 0 && len(rules.StructureLines) == len(out.Lines) {
		for i := range out.Lines {
			fillFromStructure(&out.Lines[i], rules.StructureLines[i])
		}
	}
	return out
}

// stripFragment removes a learned noise fragment and tidies the
// whitespace left behind.
func stripFragment(s, frag string) string {
	if frag == "" || !strings.Contains(s, frag) {
		return s
	}
	s = strings.ReplaceAll(s, frag, " ")
	return strings.Join(strings.Fields(s), " ")
}

// fillFromStructure positionally corrects fields the extractor missed
// using the corrected row snapshot. Extracted values are never
// overwritten: corrections only fill gaps.
func fillFromStructure(line *model.LineItem, snap model.LineItem) {
	if line.TranslatedDescription == "" {
		line.TranslatedDescription = snap.TranslatedDescription
	}
	if line.ReferenceCode == "" {
		line.ReferenceCode = snap.ReferenceCode
	}
	if line.ApprovalCode == "" {
		line.ApprovalCode = snap.ApprovalCode
	}
	if line.LogoMarking == "" {
		line.LogoMarking = snap.LogoMarking
	}
	if line.ColorCode == "" {
		line.ColorCode = snap.ColorCode
	}
	if line.Quantity == 0 && snap.Quantity > 0 {
		line.Quantity = snap.Quantity
	}
	if line.UnitPriceExclTax == 0 && snap.UnitPriceExclTax > 0 {
		line.UnitPriceExclTax = snap.UnitPriceExclTax
	}
	if line.Discount == 0 && snap.Discount > 0 {
		line.Discount = snap.Discount
	}
}
