package billing

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gstbill/internal/models"
)

const (
	PrefixInvoice   = "INV"
	PrefixQuotation = "QTN"
	PrefixChallan   = "DC"
)

// SequenceWidth is the minimum number of digits in the sequence segment.
const SequenceWidth = 4

// NumberingError reports a stored document number whose sequence segment cannot be parsed.
type NumberingError struct {
	Number string
}

func (e *NumberingError) Error() string {
	return fmt.Sprintf("malformed document number %q", e.Number)
}

func (e *NumberingError) ErrorCode() string { return "NUMBERING_ERROR" }
func (e *NumberingError) HTTPStatus() int   { return http.StatusInternalServerError }

// PrefixFor returns the number prefix of a document type.
func PrefixFor(docType models.DocumentType) string {
	switch docType {
	case models.DocumentTypeQuotation:
		return PrefixQuotation
	case models.DocumentTypeChallan:
		return PrefixChallan
	default:
		return PrefixInvoice
	}
}

// FormatDocumentNumber renders {prefix}/{taxID}/{year}/{seq}, padding seq to four digits.
func FormatDocumentNumber(prefix, taxID string, year, seq int) string {
	return fmt.Sprintf("%s/%s/%d/%0*d", prefix, taxID, year, SequenceWidth, seq)
}

// ParseSequence extracts the trailing sequence from a formatted document number.
func ParseSequence(number string) (int, error) {
	idx := strings.LastIndex(number, "/")
	if idx < 0 || idx == len(number)-1 {
		return 0, &NumberingError{Number: number}
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil || seq < 0 {
		return 0, &NumberingError{Number: number}
	}
	return seq, nil
}

// NextDocumentNumber derives the following number from the latest one issued.
// An empty last starts the sequence at 1.
func NextDocumentNumber(last, prefix, taxID string, year int) (string, error) {
	seq := 0
	if last != "" {
		var err error
		seq, err = ParseSequence(last)
		if err != nil {
			return "", err
		}
	}
	return FormatDocumentNumber(prefix, taxID, year, seq+1), nil
}
