package feature

import (
	"logsentinel/internal/parser"
)

// Missing is the sentinel the model was fit against for absent categorical
// fields. Changing it silently shifts the prediction distribution, so it is
// part of the classifier contract, not a cosmetic default.
const Missing = "missing"

// Vector is the fixed-shape input the classifier expects: one free-text
// field and three categorical fields.
type Vector struct {
	FullLogText     string `json:"full_log_text"`
	StatusCode      string `json:"status_code"`
	DetectedLogType string `json:"detected_log_type"`
	ProcessInfo     string `json:"process_info"`
}

// FromRecord converts a normalized record into the classifier's feature
// vector, reproducing the training-time encoding exactly: full_log_text is
// request + " " + message (the raw line when both are empty), and every
// categorical field absent from the record becomes the "missing" sentinel.
func FromRecord(rec *parser.Record, rawLine string) Vector {
	request := rec.Fields[parser.FieldRequest]
	message := rec.Fields[parser.FieldMessage]

	text := request + " " + message
	if request == "" && message == "" {
		text = rawLine
	}

	return Vector{
		FullLogText:     text,
		StatusCode:      orMissing(rec.Fields[parser.FieldStatusCode]),
		DetectedLogType: orMissing(rec.Format),
		ProcessInfo:     orMissing(rec.Fields[parser.FieldProcessInfo]),
	}
}

func orMissing(v string) string {
	if v == "" {
		return Missing
	}
	return v
}
