package vpic

import (
	"strconv"
	"strings"
)

// BenignCheckDigitText is reported alongside a nonzero error code for VINs
// that decode fine apart from the check digit. Such decodes are accepted.
const BenignCheckDigitText = "1 - Check Digit (9th position) does not calculate properly"

const (
	variableMake      = "Make"
	variableModel     = "Model"
	variableModelYear = "Model Year"
	variableErrorCode = "Error Code"
	variableErrorText = "Error Text"
)

type response struct {
	Count   int    `json:"Count"`
	Message string `json:"Message"`
	Results []item `json:"Results"`
}

type item struct {
	Variable string  `json:"Variable"`
	Value    *string `json:"Value"`
}

// Result is the typed view of a DecodeVin response. Empty values are nil.
type Result struct {
	Make      *string `json:"make"`
	Model     *string `json:"model"`
	Year      *int    `json:"year"`
	ErrorCode *string `json:"errorCode"`
	ErrorText *string `json:"errorText"`
}

// Failed reports whether the decoder rejected the VIN.
func (r Result) Failed() bool {
	code := deref(r.ErrorCode)
	if code == "" || code == "0" {
		return false
	}
	return deref(r.ErrorText) != BenignCheckDigitText
}

// ErrorCodeValue and ErrorTextValue return "" for absent fields.
func (r Result) ErrorCodeValue() string { return deref(r.ErrorCode) }

func (r Result) ErrorTextValue() string { return deref(r.ErrorText) }

func (p response) result() Result {
	var res Result
	for _, it := range p.Results {
		if it.Value == nil {
			continue
		}
		value := strings.TrimSpace(*it.Value)
		if value == "" {
			continue
		}
		switch {
		case it.Variable == variableMake && res.Make == nil:
			res.Make = stringPtr(value)
		case it.Variable == variableModel && res.Model == nil:
			res.Model = stringPtr(value)
		case it.Variable == variableModelYear && res.Year == nil:
			if year, err := strconv.Atoi(value); err == nil {
				res.Year = &year
			}
		case it.Variable == variableErrorCode && res.ErrorCode == nil:
			res.ErrorCode = stringPtr(value)
		case it.Variable == variableErrorText && res.ErrorText == nil:
			res.ErrorText = stringPtr(value)
		}
	}
	return res
}

func stringPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
