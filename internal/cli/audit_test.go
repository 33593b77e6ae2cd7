package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauserisk/internal/audit"
	"github.com/ppiankov/clauserisk/internal/model"
)

func TestWriteAuditTable(t *testing.T) {
	records := []audit.Record{
		{
			ID:             "rec-1",
			RecordedAt:     time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
			Source:         "msa.txt",
			Language:       model.LanguageEnglish,
			TotalClauses:   2,
			CompositeScore: 48,
			Band:           model.BandMedium,
			Status:         model.StatusDegraded,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeAuditTable(&buf, records))

	out := buf.String()
	assert.Contains(t, out, "RECORDED")
	assert.Contains(t, out, "rec-1")
	assert.Contains(t, out, "Medium")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "msa.txt")
}

func TestWriteAuditTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAuditTable(&buf, nil))
	assert.Equal(t, "No audit records.\n", buf.String())
}
