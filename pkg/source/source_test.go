package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReadMapsHeaderToFields(t *testing.T) {
	in := "\ufefforder_id,customer_id,order_status\n" +
		"o1,c1,delivered\n" +
		"o2,c2\n"

	records, err := Read(strings.NewReader(in), ',')
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Line)
	v, ok := records[0].Get("order_id")
	assert.True(t, ok)
	assert.Equal(t, "o1", v)

	_, ok = records[1].Get("order_status")
	assert.False(t, ok, "short rows leave trailing fields empty")
}

func TestReadEmptyInput(t *testing.T) {
	records, err := Read(strings.NewReader(""), ',')
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	body := "seller_id;seller_zip_code_prefix;seller_city;seller_state\ns1;01001;sao paulo;sp\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, Sellers.FileName()), []byte(body), 0o600))

	batch, err := Load(context.Background(), dir, Options{Delimiter: ';', Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.Len(t, batch[Sellers], 1)
	assert.Equal(t, "sao paulo", batch[Sellers][0].Fields["seller_city"])
	assert.Empty(t, batch[Orders])
	assert.Len(t, batch, len(All()))
}
