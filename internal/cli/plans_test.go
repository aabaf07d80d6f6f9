package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railzwaylabs/planchange/internal/catalog"
)

func TestPrintPlans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPlans(&buf, catalog.DefaultPlans()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, buf.String(), "professional_monthly")
	assert.Contains(t, buf.String(), "unlimited")
	assert.Contains(t, buf.String(), "299000")
}
