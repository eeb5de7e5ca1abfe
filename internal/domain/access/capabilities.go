package access

func CapabilitiesFor(state State) []string {
	switch state {
	case StatePro, StateCanceling:
		return []string{CapGenerateDocuments, CapPublicDocuments, CapMultipleSites, CapBillingPortal}
	case StatePastDue:
		// Published documents stay up; new generation waits for payment.
		return []string{CapPublicDocuments, CapBillingPortal}
	default:
		return []string{CapGenerateDocuments, CapPublicDocuments}
	}
}

// SiteLimit is the number of sites a user may own; 0 means unlimited.
func SiteLimit(state State) int {
	for _, c := range CapabilitiesFor(state) {
		if c == CapMultipleSites {
			return 0
		}
	}
	return 1
}
