package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func parseAnswer(input string, optionCount int) (int, bool) {
	if optionCount < 1 || len(input) != 1 {
		return -1, false
	}
	letter := input[0]
	if letter < 'A' || letter >= byte('A'+optionCount) {
		return -1, false
	}
	return int(letter - 'A'), true
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func promptYesNo(ctx context.Context, in *lineReader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := in.next(ctx, nil)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func optionDisplay(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return "unknown"
	}
	return fmt.Sprintf("%c. %s", 'A'+index, options[index])
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
