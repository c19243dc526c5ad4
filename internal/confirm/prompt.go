package confirm

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	warnColor   = color.New(color.FgYellow)
	promptColor = color.New(color.FgCyan, color.Bold)
)

func (e *Engine) askYesNo(reader *bufio.Reader, subject string) Outcome {
	for {
		promptColor.Fprintf(e.Err, "%s — proceed? [y/N]: ", subject)
		line, err := readLine(reader)
		if err != nil {
			return Outcome{Reason: "could not read confirmation input"}
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return Outcome{Accepted: true}
		case "", "n", "no":
			return Outcome{Reason: "declined by user"}
		default:
			fmt.Fprintln(e.Err, "Please answer y or n.")
		}
	}
}

func (e *Engine) askPhrase(reader *bufio.Reader, subject, phrase string) Outcome {
	warnColor.Fprintf(e.Err, "\n%s\n", subject)
	promptColor.Fprintf(e.Err, "Type %q to confirm: ", phrase)

	line, err := readLine(reader)
	if err != nil {
		return Outcome{Reason: "could not read confirmation input"}
	}
	if line != phrase {
		return Outcome{Reason: fmt.Sprintf("confirmation phrase mismatch: expected %q", phrase)}
	}
	return Outcome{Accepted: true}
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
