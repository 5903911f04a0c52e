package search

// Notice flags a degraded or informational pipeline condition that the
// caller may want to surface.
type Notice string

const (
	NoticeLowConfidenceCategory Notice = "LOW_CONFIDENCE_CATEGORY"
	NoticeLowConfidenceType     Notice = "LOW_CONFIDENCE_TYPE"
	NoticeRerankFailed          Notice = "RERANK_FAILED"
	NoticeRerankDisabled        Notice = "RERANK_DISABLED"
)
