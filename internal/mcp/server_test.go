package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wjsutton/tableau-public-mcp/internal/config"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

func TestNewServerNilConfigUsesDefaults(t *testing.T) {
	s, err := NewServer(nil)
	require.NoError(t, err)
	defer func() { _ = s.Shutdown(context.Background()) }()

	assert.NotNil(t, s.cfg)
	assert.NotNil(t, s.analyzer)
	assert.NotNil(t, s.server)
}

func TestServerHonorsConfiguredVocabulary(t *testing.T) {
	cfg := config.Default()
	cfg.Project.Root = t.TempDir()
	cfg.Analysis.EntityVocabulary = []string{"patient"}

	s, err := NewServer(cfg)
	require.NoError(t, err)
	_ = s.diagnosticLogger.Close()
	s.diagnosticLogger = NoOpLogger
	defer func() { _ = s.Shutdown(context.Background()) }()

	wb := `{
		"datasources": [{
			"name": "ds",
			"columns": [
				{"name": "[Visit Date]", "caption": "Visit Date"},
				{"name": "[Calc_1]", "caption": "First Visit", "formula": "{FIXED [Patient ID] : MIN([Visit Date])}"}
			]
		}]
	}`

	result := callTool(t, s.handleExplainLOD, `{"workbook": `+wb+`}`)
	require.False(t, result.IsError)

	var payload struct {
		LOD *types.LODReport `json:"lod"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	require.Len(t, payload.LOD.Expressions, 1)
	assert.Equal(t, types.CategoryEntityCohort, payload.LOD.Expressions[0].Category)
}
