package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Colors for consistent UI
const (
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorReset  = "\033[0m"
)

var (
	out    io.Writer = os.Stdout
	reader           = bufio.NewReader(os.Stdin)
)

// SetIO redirects menu input and output.
func SetIO(in io.Reader, w io.Writer) {
	reader = bufio.NewReader(in)
	out = w
}

func PrintWarning(message string) {
	fmt.Fprintf(out, "%s\nWarning:%s\n", ColorYellow, ColorReset)
	fmt.Fprintf(out, "%s%s%s\n", ColorYellow, message, ColorReset)
}

func PrintError(message string) {
	fmt.Fprintf(out, "\n%sError: %s%s\n", ColorRed, message, ColorReset)
}

func PrintSuccess(message string) {
	fmt.Fprintf(out, "\n%s%s%s\n", ColorGreen, message, ColorReset)
}

func PrintInfo(message string) {
	fmt.Fprintf(out, "%s%s%s", ColorBlue, message, ColorReset)
}

// ReadString reads one trimmed line. It returns io.EOF once input is exhausted.
func ReadString(prompt string) (string, error) {
	PrintInfo(prompt)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadInt reads an integer in [min, max].
func ReadInt(prompt string, min, max int) (int, error) {
	input, err := ReadString(prompt)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}
	return value, nil
}
