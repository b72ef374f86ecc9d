package email

const (
	subjectCaseAssignedFmt     = "Case %s has been assigned to you"
	subjectCaseApprovedFmt     = "Case %s passed service review"
	subjectCaseRejectedFmt     = "Case %s was rejected in service review"
	subjectCaseCompletedFmt    = "Case %s has been completed"
	subjectStageBlockedFmt     = "Case %s: stage %q is blocked"
	subjectCustomerVerified    = "Your customer account has been verified"
	subjectCustomerRejectedFmt = "Your customer registration was rejected: %s"
)
