package engine

// ResultBundle is the flattened view of a finished plan execution handed to
// response synthesis.
type ResultBundle struct {
	SuccessCount int                             `json:"success_count"`
	FailureCount int                             `json:"failure_count"`
	TotalElapsed float64                         `json:"total_elapsed_seconds"`
	ByGroup      map[string]GroupExecutionRecord `json:"by_group"`
}

// Succeeded reports whether at least one action produced a usable payload.
func (b ResultBundle) Succeeded() bool {
	return b.SuccessCount > 0
}

// Empty reports whether the execution ran no actions at all.
func (b ResultBundle) Empty() bool {
	return b.SuccessCount == 0 && b.FailureCount == 0
}

// Aggregate folds per-group records into a bundle. It is a pure function of
// its input: aggregating the same records twice yields the same bundle.
func Aggregate(records map[string]GroupExecutionRecord) ResultBundle {
	bundle := ResultBundle{ByGroup: records}
	for _, rec := range records {
		for _, res := range rec.Results {
			if res.Succeeded {
				bundle.SuccessCount++
			} else {
				bundle.FailureCount++
			}
			bundle.TotalElapsed += res.ElapsedSeconds
		}
	}
	return bundle
}
