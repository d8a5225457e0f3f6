package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

// Fingerprint hashes the canonical encoding of a workbook tree. Identical
// trees always produce identical fingerprints, so callers can skip
// re-analysis of unchanged input (the watch loop does).
func Fingerprint(wb *types.Workbook) string {
	if wb == nil {
		return ""
	}
	data, err := json.Marshal(wb)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
