package pagecap

// BatchItemStatus tracks a queue entry through its lifecycle.
type BatchItemStatus string

// Batch item statuses.
const (
	BatchPending    BatchItemStatus = "pending"
	BatchProcessing BatchItemStatus = "processing"
	BatchCompleted  BatchItemStatus = "completed"
	BatchFailed     BatchItemStatus = "failed"
)

// BatchItemOptions carries per-item capture settings. Zero values fall
// back to the processor defaults.
type BatchItemOptions struct {
	// Encoding overrides the processor's frame encoding when non-zero.
	Encoding ImageEncoding `json:"encoding,omitempty"`
}

// BatchItem is one entry in the batch capture queue. Items are processed
// strictly in enqueue order; failure of one item never removes or
// reorders the others.
type BatchItem struct {
	// ID is unique and monotonically assigned across the life of the
	// queue, including items added in separate calls.
	ID int64 `json:"id"`

	SourceURL string           `json:"sourceUrl"`
	Options   BatchItemOptions `json:"options"`
	Status    BatchItemStatus  `json:"status"`

	// OutputPath is set when the item completes.
	OutputPath string `json:"outputPath,omitempty"`

	// Err holds the failure message when the item fails.
	Err string `json:"error,omitempty"`
}

// BatchStatus is a point-in-time snapshot of the batch queue and the
// current run.
type BatchStatus struct {
	Processing bool        `json:"processing"`
	Total      int         `json:"total"`
	Pending    int         `json:"pending"`
	Completed  int         `json:"completed"`
	Failed     int         `json:"failed"`
	Items      []BatchItem `json:"items"`
}
