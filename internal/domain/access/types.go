package access

type State string

const (
	StateFree      State = "free"
	StatePro       State = "pro"
	StateCanceling State = "canceling"
	StatePastDue   State = "past_due"
)

const (
	CapGenerateDocuments = "documents.generate"
	CapPublicDocuments   = "documents.public"
	CapMultipleSites     = "sites.multiple"
	CapBillingPortal     = "billing.portal"
)
