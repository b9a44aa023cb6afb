package service

import (
	"fmt"
	"time"

	"invoicer/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// parseDate parses a required YYYY-MM-DD field as UTC midnight
func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", ErrInvalidInvoice, field, value)
	}
	return d, nil
}

// parseOptionalDate treats an empty value as no date
func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func effectiveStatus(inv model.Invoice, now time.Time) string {
	return toAnalyticsInvoice(inv).EffectiveStatus(now)
}

// parseUserID returns nil for anonymous or malformed ids
func parseUserID(userID string) *uuid.UUID {
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	return &parsed
}

func includeVAT(flag *bool) bool {
	return flag == nil || *flag
}

func datatypesBank(b model.BankDetails) datatypes.JSONType[model.BankDetails] {
	return datatypes.NewJSONType(b)
}
