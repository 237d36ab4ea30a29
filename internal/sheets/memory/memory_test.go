package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "zeus/internal/sheets"
)

func TestWriter(t *testing.T) {
	w := New()
	rows := []ports.SummaryRow{{Month: "Janeiro"}, {Month: "Fevereiro"}}

	rng, err := w.WriteSummary(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, "mem!A1:E3", rng)
	assert.Equal(t, 1, w.Writes())

	rows[0].Month = "changed"
	assert.Equal(t, "Janeiro", w.Rows()[0].Month)

	w.FailWith(errors.New("quota"))
	_, err = w.WriteSummary(context.Background(), rows)
	assert.EqualError(t, err, "quota")
	assert.Equal(t, 1, w.Writes())
}
