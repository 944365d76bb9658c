// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Evidence slot identifiers, in document order. The order is load-bearing:
// SourcesPresent and the synthesis context builder both emit slots in this
// sequence.
const (
	SlotRegulatory = "regulatory_label"
	SlotStructured = "structured_label"
	SlotLiterature = "literature_index"
	SlotEntities   = "entity_extraction"
)

// RegulatoryRecord holds the safety-relevant fields of a regulatory drug
// label. Everything else in the label is discarded at the adapter boundary.
type RegulatoryRecord struct {
	BrandNames        []string `json:"brand_names" yaml:"brand_names"`
	GenericNames      []string `json:"generic_names" yaml:"generic_names"`
	PregnancyCategory string   `json:"pregnancy_category,omitempty" yaml:"pregnancy_category,omitempty"`
	PregnancyText     string   `json:"pregnancy_text,omitempty" yaml:"pregnancy_text,omitempty"`
	BreastfeedingText string   `json:"breastfeeding_text,omitempty" yaml:"breastfeeding_text,omitempty"`
	WarningsText      string   `json:"warnings_text,omitempty" yaml:"warnings_text,omitempty"`
}

// StructuredRecord holds the lactation and pregnancy sections of a structured
// product label.
type StructuredRecord struct {
	SetID                  string `json:"set_id" yaml:"set_id"`
	LactationSection       string `json:"lactation_section,omitempty" yaml:"lactation_section,omitempty"`
	PregnancySection       string `json:"pregnancy_section,omitempty" yaml:"pregnancy_section,omitempty"`
	ClinicalConsiderations string `json:"clinical_considerations,omitempty" yaml:"clinical_considerations,omitempty"`
	HasMilkLevels          bool   `json:"has_milk_levels" yaml:"has_milk_levels"`
	HasInfantEffects       bool   `json:"has_infant_effects" yaml:"has_infant_effects"`
}

// LiteratureRecord summarizes the published research volume and quality for
// a substance in the pregnancy/lactation context.
type LiteratureRecord struct {
	TotalStudies         int  `json:"total_studies" yaml:"total_studies"`
	PregnancyStudies     int  `json:"pregnancy_studies" yaml:"pregnancy_studies"`
	BreastfeedingStudies int  `json:"breastfeeding_studies" yaml:"breastfeeding_studies"`
	RecentStudies        int  `json:"recent_studies" yaml:"recent_studies"`
	HasRCT               bool `json:"has_rct" yaml:"has_rct"`
	HasMetaAnalysis      bool `json:"has_meta_analysis" yaml:"has_meta_analysis"`
}

// TrimesterRisks holds risk sentences grouped by the trimester they mention.
type TrimesterRisks struct {
	First  []string `json:"first,omitempty" yaml:"first,omitempty"`
	Second []string `json:"second,omitempty" yaml:"second,omitempty"`
	Third  []string `json:"third,omitempty" yaml:"third,omitempty"`
}

// For returns the risk sentences for one trimester.
func (r TrimesterRisks) For(t Trimester) []string {
	switch t {
	case TrimesterFirst:
		return r.First
	case TrimesterSecond:
		return r.Second
	case TrimesterThird:
		return r.Third
	}
	return nil
}

// ExtractedSignals is the output of the entity-extraction stage. Every field
// is independently optional; a zero value is a valid (empty) result.
type ExtractedSignals struct {
	TrimesterRisks TrimesterRisks `json:"trimester_risks" yaml:"trimester_risks"`

	Teratogenic   bool   `json:"teratogenic" yaml:"teratogenic"`
	CategoryGuess string `json:"category_guess,omitempty" yaml:"category_guess,omitempty"`

	// Pharmacokinetic milk-transfer values, each nil when the text carried no
	// labeled value for it.
	MilkPlasmaRatio   *float64 `json:"milk_plasma_ratio,omitempty" yaml:"milk_plasma_ratio,omitempty"`
	InfantDosePercent *float64 `json:"infant_dose_percent,omitempty" yaml:"infant_dose_percent,omitempty"`
	HalfLifeHours     *float64 `json:"half_life_hours,omitempty" yaml:"half_life_hours,omitempty"`
	TimeToPeakHours   *float64 `json:"time_to_peak_hours,omitempty" yaml:"time_to_peak_hours,omitempty"`
}

// HasMilkTransferData reports whether any pharmacokinetic value was found.
func (s *ExtractedSignals) HasMilkTransferData() bool {
	if s == nil {
		return false
	}
	return s.MilkPlasmaRatio != nil || s.InfantDosePercent != nil ||
		s.HalfLifeHours != nil || s.TimeToPeakHours != nil
}

// EvidenceBundle collects one slot per provider. A nil slot pointer means the
// provider contributed nothing; Absent records why. The absence of one slot
// never invalidates the others.
type EvidenceBundle struct {
	Regulatory *RegulatoryRecord
	Structured *StructuredRecord
	Literature *LiteratureRecord
	Signals    *ExtractedSignals

	// Absent maps slot identifier to the reason it is missing.
	Absent map[string]string
}

// MarkAbsent records why a slot holds no evidence.
func (b *EvidenceBundle) MarkAbsent(slot, reason string) {
	if b.Absent == nil {
		b.Absent = make(map[string]string)
	}
	b.Absent[slot] = reason
}

// SourcesPresent returns the identifiers of every populated slot, in
// document order.
func (b *EvidenceBundle) SourcesPresent() []string {
	sources := []string{}
	if b.Regulatory != nil {
		sources = append(sources, SlotRegulatory)
	}
	if b.Structured != nil {
		sources = append(sources, SlotStructured)
	}
	if b.Literature != nil {
		sources = append(sources, SlotLiterature)
	}
	if b.Signals != nil {
		sources = append(sources, SlotEntities)
	}
	return sources
}

// PresentCount returns the number of populated slots.
func (b *EvidenceBundle) PresentCount() int {
	return len(b.SourcesPresent())
}

// IsEmpty reports whether no provider slot is populated. Extraction signals
// cannot exist without provider text, so they are not counted here.
func (b *EvidenceBundle) IsEmpty() bool {
	return b.Regulatory == nil && b.Structured == nil && b.Literature == nil
}
