package domain

import "testing"

func TestStagesFor_Multimodal(t *testing.T) {
	want := []StageKind{
		StagePrepaymentInvoice,
		StageDropRisk,
		StageDeliveryOrder,
		StageInspection,
		StageTransportation,
		StageClearance,
	}

	got := StagesFor(CaseTypeMultimodal)
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestStagesFor_Unimodal(t *testing.T) {
	want := []StageKind{
		StagePrepaymentInvoice,
		StageDropRisk,
		StageDeliveryOrder,
		StageInspection,
		StageLocalPermission,
		StageArrival,
		StageStoreSettlement,
	}

	got := StagesFor(CaseTypeUnimodal)
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestStagesFor_UnknownTypeFallsBack(t *testing.T) {
	got := StagesFor(CaseType("Intergalactic"))
	want := []StageKind{StagePrepaymentInvoice, StageDropRisk, StageDeliveryOrder}

	if len(got) != len(want) {
		t.Fatalf("expected %d fallback stages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestStagesFor_Deterministic(t *testing.T) {
	for _, typ := range []CaseType{CaseTypeMultimodal, CaseTypeUnimodal, CaseTypeOther} {
		first := StagesFor(typ)
		if len(first) == 0 {
			t.Fatalf("%s: template must not be empty", typ)
		}
		for i := 0; i < 10; i++ {
			again := StagesFor(typ)
			if len(again) != len(first) {
				t.Fatalf("%s: template length changed between calls", typ)
			}
			for j := range first {
				if again[j] != first[j] {
					t.Fatalf("%s: template content changed between calls", typ)
				}
			}
		}
	}
}

func TestStagesFor_CallerCannotMutateTemplate(t *testing.T) {
	got := StagesFor(CaseTypeMultimodal)
	got[0] = StageArrival

	if again := StagesFor(CaseTypeMultimodal); again[0] != StagePrepaymentInvoice {
		t.Fatal("mutating a returned template leaked into later calls")
	}
}
