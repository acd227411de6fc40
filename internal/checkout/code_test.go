package checkout

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderCodeRe = regexp.MustCompile(`^L[A-Z0-9]{4}-\d{8}-\d{4}$`)

func TestOrderCodeFormat(t *testing.T) {
	storeID := uuid.New()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	code := OrderCode(storeID, now)
	require.Regexp(t, orderCodeRe, code)
	assert.Contains(t, code, "-20260830-")

	compact := strings.ToUpper(strings.ReplaceAll(storeID.String(), "-", ""))
	assert.True(t, strings.HasPrefix(code, "L"+compact[:4]))
}
