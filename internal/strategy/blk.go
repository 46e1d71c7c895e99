package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"StockScreener/internal/model"
)

// MarketCode prefixes a code with its one-digit exchange segment marker,
// producing the 7-character form the trading terminal imports. Codes
// outside the recognized classes report ok=false.
func MarketCode(code string) (string, bool) {
	switch model.MarketForCode(code) {
	case model.MarketShanghai:
		return "1" + code, true
	case model.MarketShenzhen:
		return "0" + code, true
	default:
		return "", false
	}
}

// WriteBLK writes the encoded pick list, one market code per line, to a
// dated and timestamped artifact under outputDir. Codes that cannot be
// encoded are silently dropped from the file (they stay in the result).
// Returns the artifact path.
func WriteBLK(result *model.SelectionResult, outputDir string) (string, error) {
	if len(result.Picks) == 0 {
		return "", fmt.Errorf("no picks to save")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.blk", result.Strategy, result.Date, time.Now().Format("150405"))
	path := filepath.Join(outputDir, name)

	var sb strings.Builder
	for _, p := range result.Picks {
		if mc, ok := MarketCode(p.Code); ok {
			sb.WriteString(mc)
			sb.WriteByte('\n')
		}
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("write blk file: %w", err)
	}
	return path, nil
}
