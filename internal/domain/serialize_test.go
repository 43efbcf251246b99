package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func sampleReport() DriftReport {
	return DriftReport{
		ID:       "report-1",
		Location: Location{Name: "Tromsø", Lat: 69.6492, Lon: 18.9553},
		Params:   DefaultParams(),
		Hours:    2,
		Seasons: []PeriodResult{{
			Label:  "2021-2022",
			Season: "2021-2022",
			Hours:  2,
			Swe:    1.5,
			Result: TransportResult{Qupot: 10, Qspot: 2250, Qinf: 10, Qt: 9.9, Control: WindControlled},
		}},
		Months:      []PeriodResult{},
		ProcessedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEncodeReport_JSONDefault(t *testing.T) {
	data, contentType, err := EncodeReport(sampleReport(), "")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeJSON, contentType)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "report-1", got["id"])
	assert.Contains(t, string(data), `"control":"wind_controlled"`)
}

func TestEncodeReport_MsgPackUsesJSONNames(t *testing.T) {
	data, contentType, err := EncodeReport(sampleReport(), EncodingMsgPack)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeMsgPack, contentType)

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var got DriftReport
	require.NoError(t, dec.Decode(&got))
	assert.Equal(t, "report-1", got.ID)
	assert.Equal(t, "Tromsø", got.Location.Name)
	require.Len(t, got.Seasons, 1)
	assert.InDelta(t, 9.9, got.Seasons[0].Result.Qt, 1e-9)
	assert.True(t, got.ProcessedAt.Equal(sampleReport().ProcessedAt))
}

func TestEncodeReport_MsgPackControlIsString(t *testing.T) {
	report := sampleReport()
	report.Seasons[0].Result.Control = SnowfallControlled

	data, _, err := EncodeReport(report, EncodingMsgPack)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &got))
	seasons, ok := got["seasons"].([]any)
	require.True(t, ok)
	require.Len(t, seasons, 1)
	season, ok := seasons[0].(map[string]any)
	require.True(t, ok)
	result, ok := season["result"].(map[string]any)
	require.True(t, ok)
	assert.IsType(t, "", result["control"])
	assert.Equal(t, "snowfall_controlled", result["control"])

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var typed DriftReport
	require.NoError(t, dec.Decode(&typed))
	assert.Equal(t, SnowfallControlled, typed.Seasons[0].Result.Control)
}

func TestNewReportMessage(t *testing.T) {
	report := sampleReport()

	msg, err := NewReportMessage(report, EncodingMsgPack)
	require.NoError(t, err)
	assert.Equal(t, "report-1", msg.ID)
	assert.Equal(t, "Tromsø", msg.Location)
	assert.Equal(t, ContentTypeMsgPack, msg.ContentType)
	assert.True(t, msg.ProcessedAt.Equal(report.ProcessedAt))
	assert.NotEmpty(t, msg.Value)
}

func TestNewReportMessage_NonFiniteValue(t *testing.T) {
	report := sampleReport()
	report.Seasons[0].Result.Qt = math.Inf(1)

	_, err := NewReportMessage(report, EncodingJSON)
	assert.Error(t, err)
}

func TestEncodeReport_Unsupported(t *testing.T) {
	_, _, err := EncodeReport(sampleReport(), "xml")
	assert.Error(t, err)
}
