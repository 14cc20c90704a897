package models

// ItemError identifies a single failed item inside a batch operation.
type ItemError struct {
	ASIN  string `json:"asin"`
	Error string `json:"error"`
}

// ImportResult accumulates counters for one import run. Every mutation
// returns a new value, so partial results can be kept across a loop without
// aliasing surprises.
type ImportResult struct {
	TotalProcessed       int
	SuccessfullyImported int
	Updated              int
	Skipped              int
	Failed               int
	Errors               []ItemError
}

func (r ImportResult) IncrementProcessed() ImportResult {
	r.TotalProcessed++
	return r
}

func (r ImportResult) IncrementImported() ImportResult {
	r.SuccessfullyImported++
	return r
}

func (r ImportResult) IncrementUpdated() ImportResult {
	r.Updated++
	return r
}

func (r ImportResult) IncrementSkipped() ImportResult {
	r.Skipped++
	return r
}

// AddError records a per-item failure and bumps the failed counter.
func (r ImportResult) AddError(asin, message string) ImportResult {
	errs := make([]ItemError, len(r.Errors), len(r.Errors)+1)
	copy(errs, r.Errors)
	r.Errors = append(errs, ItemError{ASIN: asin, Error: message})
	r.Failed++
	return r
}

// ExportResult accumulates counters and statistics for one export run.
type ExportResult struct {
	TotalProcessed int
	TotalExported  int
	Failed         int
	Errors         []ItemError
	WithImages     int
	WithPrices     int
	WithRankings   int
	FilePath       string
}

func (r ExportResult) IncrementProcessed() ExportResult {
	r.TotalProcessed++
	return r
}

func (r ExportResult) IncrementExported() ExportResult {
	r.TotalExported++
	return r
}

// AddError records a per-item failure and bumps the failed counter.
func (r ExportResult) AddError(asin, message string) ExportResult {
	errs := make([]ItemError, len(r.Errors), len(r.Errors)+1)
	copy(errs, r.Errors)
	r.Errors = append(errs, ItemError{ASIN: asin, Error: message})
	r.Failed++
	return r
}

// WithStatistics attaches the exported-content counters.
func (r ExportResult) WithStatistics(withImages, withPrices, withRankings int) ExportResult {
	r.WithImages = withImages
	r.WithPrices = withPrices
	r.WithRankings = withRankings
	return r
}

// WithFilePath attaches the written file path.
func (r ExportResult) WithFilePath(path string) ExportResult {
	r.FilePath = path
	return r
}
