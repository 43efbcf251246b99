package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Report encodings and their content types.
const (
	EncodingJSON    = "json"
	EncodingMsgPack = "msgpack"

	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

// EncodeReport renders a report as JSON or MessagePack and returns the
// matching content type. MessagePack output reuses the JSON field names.
func EncodeReport(report DriftReport, encoding string) ([]byte, string, error) {
	switch encoding {
	case EncodingMsgPack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(report); err != nil {
			return nil, "", fmt.Errorf("encode report msgpack: %w", err)
		}
		return buf.Bytes(), ContentTypeMsgPack, nil
	case "", EncodingJSON:
		data, err := json.Marshal(report)
		if err != nil {
			return nil, "", fmt.Errorf("encode report json: %w", err)
		}
		return data, ContentTypeJSON, nil
	default:
		return nil, "", fmt.Errorf("unsupported report encoding %q", encoding)
	}
}

// ReportMessage is an encoded report plus the metadata the sink publishes
// with it.
type ReportMessage struct {
	ID          string
	Location    string
	ContentType string
	ProcessedAt time.Time
	Value       []byte
}

// NewReportMessage encodes report for publication.
func NewReportMessage(report DriftReport, encoding string) (ReportMessage, error) {
	value, contentType, err := EncodeReport(report, encoding)
	if err != nil {
		return ReportMessage{}, err
	}
	return ReportMessage{
		ID:          report.ID,
		Location:    report.Location.Name,
		ContentType: contentType,
		ProcessedAt: report.ProcessedAt,
		Value:       value,
	}, nil
}
