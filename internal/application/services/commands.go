package services

// ResultQuery filters the snapshot returned by ResultService.List.
// A nil Limit returns every matching result.
type ResultQuery struct {
	RequestID string
	Limit     *int
}
