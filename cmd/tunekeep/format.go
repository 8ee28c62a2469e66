package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"tunekeep/internal/services"
)

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, usageError("invalid track id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// formatLength renders seconds as m:ss, or h:mm:ss past an hour.
func formatLength(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatKbps(bitrate int) string {
	if bitrate <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d kbps", bitrate/1000)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func intOrDash(v int) string {
	if v == 0 {
		return "-"
	}
	return strconv.Itoa(v)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

var (
	keepLabel   = color.New(color.FgGreen, color.Bold).SprintFunc()
	removeLabel = color.New(color.FgRed).SprintFunc()
	warnText    = color.New(color.FgYellow).SprintFunc()
)

func usageError(format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "cli", "arguments", fmt.Sprintf(format, args...), nil)
}
