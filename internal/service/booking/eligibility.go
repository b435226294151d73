package booking

import "github.com/dojokit/booking/internal/domain"

// Eligibility reason codes, reported back to the caller on rejection.
const (
	ReasonClassInactive  = "class_inactive"
	ReasonGroupMismatch  = "group_mismatch"
	ReasonBeltNotAllowed = "belt_not_allowed"
	ReasonMemberInactive = "member_inactive"
	ReasonMemberBlocked  = "member_blocked"
)

type EligibilityResult struct {
	Eligible bool
	Reason   string
}

func eligible() EligibilityResult {
	return EligibilityResult{Eligible: true}
}

func notEligible(reason string) EligibilityResult {
	return EligibilityResult{Reason: reason}
}

// CheckEligibility decides whether a member qualifies for a class session.
// Pure; rules are evaluated in order: class active, group match, belt
// whitelist, member standing.
func CheckEligibility(member *domain.Member, rules *domain.ClassRules) EligibilityResult {
	if !rules.Active {
		return notEligible(ReasonClassInactive)
	}
	if rules.Group != domain.GroupBoth && rules.Group != member.Group {
		return notEligible(ReasonGroupMismatch)
	}
	if len(rules.BeltWhitelist) > 0 && !beltAllowed(member.Belt, rules.BeltWhitelist) {
		return notEligible(ReasonBeltNotAllowed)
	}
	if !member.Active {
		return notEligible(ReasonMemberInactive)
	}
	if member.CheckinBlocked {
		return notEligible(ReasonMemberBlocked)
	}
	return eligible()
}

func beltAllowed(belt string, whitelist []string) bool {
	for _, b := range whitelist {
		if b == belt {
			return true
		}
	}
	return false
}
