package checkout

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderCode builds a human-readable per-store order code of the form
// L<prefix>-<date>-<random>, where the prefix is the first four characters
// of the store id with hyphens stripped, uppercased. Codes are generated
// fresh per store per checkout; uniqueness is not enforced.
func OrderCode(storeID uuid.UUID, now time.Time) string {
	compact := strings.ReplaceAll(storeID.String(), "-", "")
	prefix := strings.ToUpper(compact)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("L%s-%s-%04d", prefix, now.Format("20060102"), rand.Intn(10000))
}
