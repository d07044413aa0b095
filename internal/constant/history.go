package constant

const (
	// MaxHistory is the number of summary records retained. Appending a record
	// beyond it evicts the record with the earliest upload time.
	MaxHistory = 5

	// HistoryAdvisoryLockKey serializes append+evict across server replicas
	// sharing one database.
	HistoryAdvisoryLockKey = 0x45515649 // "EQVI"

	HistoryCacheKey = "history"

	SummaryCreatedSubject = "SUMMARY.created"
	SummaryStreamName     = "equipviz-summaries"

	ArchiveKeyPrefix = "uploads/"
)
