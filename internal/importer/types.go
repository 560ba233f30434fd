package importer

// ItemStatus describes the outcome for one selected identifier in an import
// batch. Every selection gets exactly one status; a failure never stops the
// rest of the batch.
type ItemStatus string

const (
	StatusAdded     ItemStatus = "added"
	StatusDuplicate ItemStatus = "skippedDuplicate"
	StatusNotFound  ItemStatus = "notFound"
	StatusError     ItemStatus = "error"
)

// Item is the per-selection result within an import report.
type Item struct {
	ImdbID string     `json:"imdbId"`
	Title  string     `json:"title,omitempty"`
	Status ItemStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// Report summarizes one import batch.
type Report struct {
	BatchID    string `json:"batchId"`
	UserID     int64  `json:"userId"`
	Items      []Item `json:"items"`
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
}
