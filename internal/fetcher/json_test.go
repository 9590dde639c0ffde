package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orgRecord mirrors the portal's org lookup entries.
type orgRecord struct {
	Code  string `json:"code"`
	OrgID string `json:"orgId"`
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"code":"600519","orgId":"gssh0600519"},` +
		`{"code":"000858","orgId":"gssz0000858"},` +
		`{"code":"00700","orgId":"gem0400700"}]`

	ch, errCh := DecodeJSONArray[orgRecord](context.Background(), strings.NewReader(input))

	var records []orgRecord
	for rec := range ch {
		records = append(records, rec)
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Len(t, records, 3)
	assert.Equal(t, "600519", records[0].Code)
	assert.Equal(t, "gssh0600519", records[0].OrgID)
	assert.Equal(t, "000858", records[1].Code)
	assert.Equal(t, "gssz0000858", records[1].OrgID)
	assert.Equal(t, "00700", records[2].Code)
	assert.Equal(t, "gem0400700", records[2].OrgID)
}

func TestDecodeJSONArray_Empty(t *testing.T) {
	input := `[]`
	ch, errCh := DecodeJSONArray[orgRecord](context.Background(), strings.NewReader(input))

	var records []orgRecord
	for rec := range ch {
		records = append(records, rec)
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	assert.Empty(t, records)
}

func TestDecodeJSONArray_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := range 10000 {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"code":"600519","orgId":"gssh0600519"}`)
	}
	sb.WriteString("]")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	ch, errCh := DecodeJSONArray[orgRecord](ctx, strings.NewReader(sb.String()))

	for range ch { //nolint:revive // drain
	}

	var gotErr error
	for err := range errCh {
		if err != nil {
			gotErr = err
		}
	}
	if gotErr != nil {
		assert.Contains(t, gotErr.Error(), "context")
	}
}

func TestDecodeJSONArray_InvalidFormat(t *testing.T) {
	input := `{"code":"600519","orgId":"not an array"}`
	ch, errCh := DecodeJSONArray[orgRecord](context.Background(), strings.NewReader(input))

	for range ch { //nolint:revive // drain
	}

	var gotErr error
	for err := range errCh {
		if err != nil {
			gotErr = err
		}
	}
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "expected '['")
}

func TestDecodeJSONObject(t *testing.T) {
	input := `{"code":"600519","orgId":"gssh0600519"}`
	rec, err := DecodeJSONObject[orgRecord](strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "600519", rec.Code)
	assert.Equal(t, "gssh0600519", rec.OrgID)
}

func TestDecodeJSONObject_Invalid(t *testing.T) {
	input := `not json`
	_, err := DecodeJSONObject[orgRecord](strings.NewReader(input))
	require.Error(t, err)
}

func TestDecodeJSONArray_EmptyInput(t *testing.T) {
	ch, errCh := DecodeJSONArray[orgRecord](context.Background(), strings.NewReader(""))

	var records []orgRecord
	for rec := range ch {
		records = append(records, rec)
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	assert.Empty(t, records)
}
