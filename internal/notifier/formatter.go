package notifier

import (
	"fmt"
	"strings"

	"StockScreener/internal/model"
)

// maxListed caps how many picks a message spells out.
const maxListed = 15

// FormatSelectionReport renders one selection run as a Telegram message.
func FormatSelectionReport(result *model.SelectionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s 选股结果</b> (%s)\n\n", result.Strategy, formatDate(result.Date))
	fmt.Fprintf(&sb, "评估: %d 只 | 命中: %d 只\n", result.Evaluated, len(result.Picks))

	if len(result.Picks) == 0 {
		sb.WriteString("\n未找到符合条件的股票")
		return sb.String()
	}

	sb.WriteString("\n")
	for i, p := range result.Picks {
		if i == maxListed {
			fmt.Fprintf(&sb, "... 另有 %d 只\n", len(result.Picks)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "• %s %s  收盘 %.2f  涨幅 %+.2f%%  J=%.1f\n",
			p.Code, p.Name, p.Close, p.ChangePct, p.J)
	}
	if result.ArtifactPath != "" {
		fmt.Fprintf(&sb, "\n💾 %s", result.ArtifactPath)
	}
	return sb.String()
}

// FormatRunFailure renders a pipeline failure alert.
func FormatRunFailure(stage string, err error) string {
	return fmt.Sprintf("❌ <b>%s 失败</b>\n\n%v", stage, err)
}

func formatDate(key string) string {
	if len(key) != 8 {
		return key
	}
	return key[:4] + "-" + key[4:6] + "-" + key[6:]
}
