package workbook

import (
	"encoding/json"
	"io"
	"os"

	apperrors "github.com/wjsutton/tableau-public-mcp/internal/errors"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

// Decode reads a JSON-encoded workbook tree. This is the already-decoded
// form the upstream retrieval/unpacking layer hands over; XML container
// handling is not this package's concern.
func Decode(r io.Reader) (*types.Workbook, error) {
	var wb types.Workbook
	if err := json.NewDecoder(r).Decode(&wb); err != nil {
		return nil, apperrors.NewDecodeError("", err)
	}
	return &wb, nil
}

// DecodeBytes decodes a workbook tree from an in-memory JSON document.
func DecodeBytes(data []byte) (*types.Workbook, error) {
	var wb types.Workbook
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, apperrors.NewDecodeError("", err)
	}
	return &wb, nil
}

// Load reads and decodes a workbook tree file from disk.
func Load(path string) (*types.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewDecodeError(path, err)
	}
	var wb types.Workbook
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, apperrors.NewDecodeError(path, err)
	}
	return &wb, nil
}
