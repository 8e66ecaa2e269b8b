package github

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// JobResult is one entry of the workflow "needs" context.
type JobResult struct {
	Result  string            `json:"result"`
	Outputs map[string]string `json:"outputs"`
}

// ParseNeeds decodes the JSON produced by toJSON(needs).
func ParseNeeds(data []byte) (map[string]JobResult, error) {
	needs := map[string]JobResult{}
	if err := json.Unmarshal(data, &needs); err != nil {
		return nil, fmt.Errorf("decode needs: %w", err)
	}
	return needs, nil
}

// BuildPreviewReport renders the preview deployment table posted on pull
// requests. Rows are ordered by job name.
func BuildPreviewReport(needs map[string]JobResult) string {
	names := make([]string, 0, len(needs))
	for name := range needs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("## 🚀 Preview Deployments\n\n")
	b.WriteString("|Deployment|Status|Preview URL|\n")
	b.WriteString("|---|---|---|")
	for _, name := range names {
		job := needs[name]
		fmt.Fprintf(&b, "\n| %s | %s | %s |",
			cell(strings.ReplaceAll(name, "_", " ")),
			statusEmoji(job.Result),
			formatURL(job.Outputs["preview-url"]),
		)
	}
	return b.String()
}

func statusEmoji(result string) string {
	switch result {
	case "success":
		return "✅"
	case "failure":
		return "❌"
	case "cancelled":
		return "🚫"
	case "skipped":
		return "⏭️"
	default:
		return "❓"
	}
}

func formatURL(url string) string {
	url = sanitize(url)
	if url == "" || url == "null" {
		return "-"
	}
	return fmt.Sprintf("[%s](%s)", cell(url), url)
}

func cell(value string) string {
	return strings.ReplaceAll(sanitize(value), "|", `\|`)
}

func sanitize(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	return value
}
