package domain

// StageKind is one step in a case's processing template.
type StageKind string

const (
	StagePrepaymentInvoice StageKind = "PrepaymentInvoice"
	StageDropRisk          StageKind = "DropRisk"
	StageDeliveryOrder     StageKind = "DeliveryOrder"
	StageInspection        StageKind = "Inspection"
	StageTransportation    StageKind = "Transportation"
	StageClearance         StageKind = "Clearance"
	StageLocalPermission   StageKind = "LocalPermission"
	StageArrival           StageKind = "Arrival"
	StageStoreSettlement   StageKind = "StoreSettlement"
)

// Stage templates per declared case type. These are the single source of
// truth for which stages a case gets and in what order; no other code path
// constructs stage lists.
var (
	multimodalStages = []StageKind{
		StagePrepaymentInvoice,
		StageDropRisk,
		StageDeliveryOrder,
		StageInspection,
		StageTransportation,
		StageClearance,
	}

	unimodalStages = []StageKind{
		StagePrepaymentInvoice,
		StageDropRisk,
		StageDeliveryOrder,
		StageInspection,
		StageLocalPermission,
		StageArrival,
		StageStoreSettlement,
	}

	// fallbackStages is the minimal template for Other or unrecognized types.
	fallbackStages = []StageKind{
		StagePrepaymentInvoice,
		StageDropRisk,
		StageDeliveryOrder,
	}
)

// StagesFor returns the ordered stage template for a case type. The result
// is always non-empty and deterministic; callers receive a fresh slice.
func StagesFor(t CaseType) []StageKind {
	var template []StageKind
	switch NormalizeCaseType(t) {
	case CaseTypeMultimodal:
		template = multimodalStages
	case CaseTypeUnimodal:
		template = unimodalStages
	default:
		template = fallbackStages
	}

	out := make([]StageKind, len(template))
	copy(out, template)
	return out
}
