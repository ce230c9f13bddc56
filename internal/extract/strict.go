package extract

import (
	"github.com/sells-group/tradeflow/internal/model"
)

// FieldError is a required field that strict extraction could not recover.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StrictResult is the outcome of Strict. Info always carries whatever was
// recovered, even when Success is false.
type StrictResult struct {
	Success bool                     `json:"success"`
	Info    *model.ParsedGeneralInfo `json:"info"`
	Errors  []FieldError             `json:"errors,omitempty"`
}

// Strict runs the same label rules as GeneralInfo and fails when a required
// field (client, importer country, exporter country, positive total) is
// missing.
func Strict(text string) StrictResult {
	info, issues := GeneralInfo(text)
	res := StrictResult{Info: info}

	required := []struct {
		field   string
		missing bool
	}{
		{FieldClient, info.Client == ""},
		{FieldImporterCountry, info.ImporterCountry == ""},
		{FieldExporterCountry, info.ExporterCountry == ""},
		{FieldTotalValue, !info.TotalValue.IsPositive()},
	}
	for _, r := range required {
		if !r.missing {
			continue
		}
		res.Errors = append(res.Errors, FieldError{Field: r.field, Message: issueMessage(issues, r.field)})
	}
	res.Success = len(res.Errors) == 0
	return res
}

func issueMessage(issues []model.Issue, field string) string {
	for _, is := range issues {
		if is.Field == field {
			return is.Message
		}
	}
	return field + " is required"
}
