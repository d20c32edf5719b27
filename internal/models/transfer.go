package models

import "fmt"

type SelectionMode int

const (
	SelectAll SelectionMode = iota
	SelectKeys
	SelectPrefix
)

func (m SelectionMode) String() string {
	switch m {
	case SelectKeys:
		return "keys"
	case SelectPrefix:
		return "prefix"
	default:
		return "all"
	}
}

// Selection names the set of source objects a transfer works on.
// Only the field matching Mode is meaningful.
type Selection struct {
	Mode   SelectionMode
	Keys   []string
	Prefix string
}

func ByKeys(keys ...string) Selection {
	return Selection{Mode: SelectKeys, Keys: keys}
}

func ByPrefix(prefix string) Selection {
	return Selection{Mode: SelectPrefix, Prefix: prefix}
}

func All() Selection {
	return Selection{Mode: SelectAll}
}

func (s Selection) String() string {
	switch s.Mode {
	case SelectKeys:
		return fmt.Sprintf("keys(%d)", len(s.Keys))
	case SelectPrefix:
		return fmt.Sprintf("prefix(%q)", s.Prefix)
	default:
		return "all"
	}
}

type TransferRequest struct {
	FileKeys []string `json:"file_keys,omitempty"`
	Prefix   string   `json:"prefix,omitempty"`
}

// Selection resolves the request with precedence keys > prefix > all.
// A prefix sent together with keys is ignored.
func (r TransferRequest) Selection() Selection {
	if len(r.FileKeys) > 0 {
		return ByKeys(r.FileKeys...)
	}
	if r.Prefix != "" {
		return ByPrefix(r.Prefix)
	}
	return All()
}

type TransferResult struct {
	SourceBucket      string   `json:"source_bucket,omitempty"`
	DestinationBucket string   `json:"destination_bucket,omitempty"`
	Successful        []string `json:"successful"`
	Failed            []string `json:"failed"`
	Total             int      `json:"total"`
	SuccessCount      int      `json:"success_count"`
	FailureCount      int      `json:"failure_count"`
}

func NewTransferResult(source, destination string) *TransferResult {
	return &TransferResult{
		SourceBucket:      source,
		DestinationBucket: destination,
		Successful:        []string{},
		Failed:            []string{},
	}
}

func (r *TransferResult) AddSuccess(key string) {
	r.Successful = append(r.Successful, key)
	r.SuccessCount++
	r.Total++
}

func (r *TransferResult) AddFailure(key string) {
	r.Failed = append(r.Failed, key)
	r.FailureCount++
	r.Total++
}
