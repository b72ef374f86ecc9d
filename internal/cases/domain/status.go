// Package domain provides the core lifecycle rules for cases and their
// stages: the stage template vocabulary, the status transition graphs and
// the risk tier ordering. Everything here is pure; persistence and role
// gating live in the service layer.
package domain

// CaseType is the declared service type of a case.
type CaseType string

const (
	CaseTypeMultimodal CaseType = "Multimodal"
	CaseTypeUnimodal   CaseType = "Unimodal"
	CaseTypeOther      CaseType = "Other"
)

// CaseStatus is the overall lifecycle status of a case.
type CaseStatus string

const (
	CaseStatusDraft       CaseStatus = "Draft"
	CaseStatusSubmitted   CaseStatus = "Submitted"
	CaseStatusUnderReview CaseStatus = "UnderReview"
	CaseStatusApproved    CaseStatus = "Approved"
	CaseStatusRejected    CaseStatus = "Rejected"
	CaseStatusInProgress  CaseStatus = "InProgress"
	CaseStatusCompleted   CaseStatus = "Completed"
	CaseStatusDeleted     CaseStatus = "Deleted"
)

// caseTransitions is the directed graph of actor-driven case transitions.
// Deleted is reachable from every status (soft delete) and handled in
// CanTransitionCase rather than listed per status.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusDraft:       {CaseStatusSubmitted},
	CaseStatusSubmitted:   {CaseStatusUnderReview},
	CaseStatusUnderReview: {CaseStatusApproved, CaseStatusRejected},
	CaseStatusApproved:    {CaseStatusInProgress},
	CaseStatusInProgress:  {CaseStatusCompleted},
}

// ValidCaseStatus reports whether s is a known case status.
func ValidCaseStatus(s CaseStatus) bool {
	switch s {
	case CaseStatusDraft, CaseStatusSubmitted, CaseStatusUnderReview,
		CaseStatusApproved, CaseStatusRejected, CaseStatusInProgress,
		CaseStatusCompleted, CaseStatusDeleted:
		return true
	}
	return false
}

// CanTransitionCase reports whether a case may move from one status to the
// other. Soft deletion is legal from any status; a deleted case never
// transitions again.
func CanTransitionCase(from, to CaseStatus) bool {
	if from == CaseStatusDeleted {
		return false
	}
	if to == CaseStatusDeleted {
		return true
	}
	for _, next := range caseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CaseAwaitingReview reports whether a case in the given status may still
// receive a review decision. The review gate may short-circuit a case before
// formal submission, so Draft counts alongside Submitted and UnderReview;
// the pending-review queue uses the same set.
func CaseAwaitingReview(s CaseStatus) bool {
	switch s {
	case CaseStatusDraft, CaseStatusSubmitted, CaseStatusUnderReview:
		return true
	}
	return false
}

// CaseType normalization: an unrecognized declared type falls back to Other,
// which carries the minimal stage template.
func NormalizeCaseType(t CaseType) CaseType {
	switch t {
	case CaseTypeMultimodal, CaseTypeUnimodal:
		return t
	}
	return CaseTypeOther
}

// StageStatus is the execution status of one stage.
type StageStatus string

const (
	StageStatusPending    StageStatus = "Pending"
	StageStatusInProgress StageStatus = "InProgress"
	StageStatusCompleted  StageStatus = "Completed"
)

// ValidStageStatus reports whether s is a known stage status.
func ValidStageStatus(s StageStatus) bool {
	switch s {
	case StageStatusPending, StageStatusInProgress, StageStatusCompleted:
		return true
	}
	return false
}

// CanTransitionStage reports whether a stage may move from one status to the
// other. Stages only move forward; the blocked flag additionally gates
// Completed and is checked separately via CanCompleteStage.
func CanTransitionStage(from, to StageStatus) bool {
	switch from {
	case StageStatusPending:
		return to == StageStatusInProgress || to == StageStatusCompleted
	case StageStatusInProgress:
		return to == StageStatusCompleted
	}
	return false
}

// CanCompleteStage reports whether a stage in the given state may be marked
// Completed. A blocked stage must be cleared first.
func CanCompleteStage(from StageStatus, blocked bool) bool {
	return !blocked && CanTransitionStage(from, StageStatusCompleted)
}

// RiskTier is the case-level severity classification, labelled by color as
// in the customs office's triage board. Blue is the default for new cases.
type RiskTier string

const (
	RiskTierBlue   RiskTier = "Blue"
	RiskTierYellow RiskTier = "Yellow"
	RiskTierRed    RiskTier = "Red"
)

// ValidRiskTier reports whether t is a known risk tier.
func ValidRiskTier(t RiskTier) bool {
	switch t {
	case RiskTierBlue, RiskTierYellow, RiskTierRed:
		return true
	}
	return false
}

// Severity returns the ordered severity of a tier: 0 for Blue (low),
// 1 for Yellow, 2 for Red. Unknown tiers rank lowest.
func (t RiskTier) Severity() int {
	switch t {
	case RiskTierYellow:
		return 1
	case RiskTierRed:
		return 2
	}
	return 0
}
