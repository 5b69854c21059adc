package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := RootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFeaturesCommand(t *testing.T) {
	items := writeFile(t, "items.json", `[{"sku":"A-1","productId":"P0002","category":"Toys"}]`)

	out, err := run(t, "", "features", "--names", items)
	require.NoError(t, err)

	var got struct {
		Names []string `json:"names"`
		Items []struct {
			SKU      string    `json:"sku"`
			Features []float64 `json:"features"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Len(t, got.Names, 32)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "A-1", got.Items[0].SKU)
	assert.Len(t, got.Items[0].Features, 32)
	assert.Equal(t, 50.0, got.Items[0].Features[0])
	assert.Equal(t, 1.0, got.Items[0].Features[6])
	assert.Equal(t, 1.0, got.Items[0].Features[28])
}

func TestFeaturesCommandReadsStdin(t *testing.T) {
	out, err := run(t, `[{}]`, "features", "-")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 1)
}

func TestFeaturesCommandRejectsBadJSON(t *testing.T) {
	items := writeFile(t, "items.json", `{not json`)

	_, err := run(t, "", "features", items)
	assert.Error(t, err)
}

func TestMatchClassifyCommand(t *testing.T) {
	prediction := writeFile(t, "prediction.json", `{"predicted_class":"apple","confidence":0.9}`)
	inventory := writeFile(t, "inventory.json", `[{"name":"Milk"},{"name":"Apple","sku":"FRT-1"}]`)

	out, err := run(t, "", "match", "classify", prediction, inventory)
	require.NoError(t, err)

	var got struct {
		TotalMatches int                    `json:"total_matches"`
		BestMatch    map[string]interface{} `json:"best_match"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, 1, got.TotalMatches)
	assert.Equal(t, "FRT-1", got.BestMatch["sku"])
	assert.Equal(t, "name_exact", got.BestMatch["match_type"])
}

func TestMatchDetectCommand(t *testing.T) {
	detections := writeFile(t, "detections.json", `[{"id":1,"detected_text":"SKU MLK-7"},{"id":2,"detected_text":"blurry"}]`)
	inventory := writeFile(t, "inventory.json", `[{"name":"Milk","sku":"MLK-7"}]`)

	out, err := run(t, "", "match", "detect", detections, inventory)
	require.NoError(t, err)

	var got []struct {
		ID        int  `json:"id"`
		IsMatched bool `json:"is_matched"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	require.Len(t, got, 2)
	assert.True(t, got[0].IsMatched)
	assert.False(t, got[1].IsMatched)
}

func TestIdentifiersCommand(t *testing.T) {
	out, err := run(t, "", "identifiers", "SKU: ABC-123 0123456789012")
	require.NoError(t, err)

	assert.Contains(t, out, `"sku": "ABC-123"`)
	assert.Contains(t, out, `"barcode": "0123456789012"`)
}

func TestPredictCommand(t *testing.T) {
	coefficients := make([]string, 32)
	for i := range coefficients {
		coefficients[i] = "0"
	}
	model := writeFile(t, "model.json",
		`{"type":"linear","intercept":70,"coefficients":[`+strings.Join(coefficients, ",")+`]}`)
	items := writeFile(t, "items.json", `[{"sku":"A-1"}]`)

	out, err := run(t, "", "predict", "--model", model, items)
	require.NoError(t, err)

	var got struct {
		Predictions []struct {
			SKU               string  `json:"sku"`
			PredictedSales    float64 `json:"predictedSales"`
			DaysUntilStockout int     `json:"daysUntilStockout"`
			RecommendedOrder  int     `json:"recommendedOrder"`
		} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	require.Len(t, got.Predictions, 1)
	assert.Equal(t, "A-1", got.Predictions[0].SKU)
	assert.Equal(t, 70.0, got.Predictions[0].PredictedSales)
	assert.Equal(t, 5, got.Predictions[0].DaysUntilStockout)
	assert.Equal(t, 50, got.Predictions[0].RecommendedOrder)
}

func TestPredictCommandMissingModel(t *testing.T) {
	items := writeFile(t, "items.json", `[{"sku":"A-1"}]`)

	_, err := run(t, "", "predict", "--model", filepath.Join(t.TempDir(), "missing.json"), items)
	assert.Error(t, err)
}
