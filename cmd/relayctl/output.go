package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/akagifreeez/cookie-relay/internal/models"
)

var printer = message.NewPrinter(language.English)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func printCookieTable(out io.Writer, cookies []*models.Cookie) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tVALID\tFAILS\tDEFAULT\tLAST USED")
	for _, c := range cookies {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%t\t%s\n", c.ID, c.Label, c.IsValid, c.FailCount, c.IsDefault, formatTime(c.LastUsedAt))
	}
	w.Flush()
}

func printKeyTable(out io.Writer, keys []*models.ApiKey) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKEY\tLABEL\tENABLED\tDEFAULT\tREQUESTS\tLAST USED")
	for _, k := range keys {
		m := k.Masked()
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%s\t%s\n", m.ID, m.Key, m.Label, m.IsEnabled, m.IsDefault, printer.Sprintf("%d", m.RequestCount), formatTime(m.LastUsedAt))
	}
	w.Flush()
}

func printLogTable(out io.Writer, logs []*models.RequestLog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMETHOD\tPATH\tSTATUS\tDURATION")
	for _, l := range logs {
		t := l.Time()
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", formatTime(&t), l.Method, l.Path, l.Status, printer.Sprintf("%dms", l.DurationMs))
	}
	w.Flush()
}
