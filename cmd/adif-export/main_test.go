package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-adif-lab/internal/store"
)

const sampleLog = `<EOH>
<CALL:4>W1AW<GRIDSQUARE:6>FN31PR<FREQ:6>14.074<MODE:3>FT8<QSO_DATE:8>20240320<TIME_ON:4>1830<COUNTRY:13>UNITED STATES<EOR>
<CALL:5>F4LNO<FREQ:5>7.074<MODE:2>CW<EOR>
`

func TestExport(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	adi := filepath.Join(dir, "mylog.adi")
	out := filepath.Join(dir, "out.parquet")
	require.NoError(t, os.WriteFile(adi, []byte(sampleLog), 0o644))

	rootCmd.SetArgs([]string{adi, "--out", out, "--cty", "", "--log-level", "error"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	rows, err := store.ReadParquetFile(out)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "W1AW", rows[0].Call)
	assert.Equal(t, "mylog.adi", rows[0].Source)
	assert.Equal(t, "United States", rows[0].Country)
	assert.True(t, rows[0].HasLocation)
	assert.True(t, rows[0].IsDX)
	assert.Equal(t, "40m", rows[1].Band)
	assert.False(t, rows[1].HasLocation)
	assert.Equal(t, rows[0].RunID, rows[1].RunID)
	_, err = uuid.Parse(rows[0].RunID)
	assert.NoError(t, err)
}
