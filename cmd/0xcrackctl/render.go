package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/RowanDark/0xcrack/internal/cipher"
)

const barWidth = 40

// renderReport prints the fields of report that its operation fills in.
func renderReport(out io.Writer, report *cipher.Report) {
	switch {
	case len(report.Candidates) > 0:
		for _, c := range report.Candidates {
			fmt.Fprintf(out, "%2d  %s\n", c.Key, c.Plaintext)
		}
		return
	case report.Operation == "kasiski":
		renderKasiski(out, report)
		return
	}

	// Chi-square and affine reports carry a frequency table ahead of their
	// own fields.
	if len(report.Frequencies) > 0 {
		renderFrequencies(out, report)
	}

	if len(report.KeySquare) > 0 {
		fmt.Fprintln(out, "key square:")
		for _, row := range report.KeySquare {
			fmt.Fprintf(out, "  %s\n", strings.Join(strings.Split(row, ""), " "))
		}
	}
	if report.Shift != nil {
		fmt.Fprintf(out, "shift: %d\n", *report.Shift)
	}
	if report.ChiSquare != nil {
		fmt.Fprintf(out, "chi-square: %.4f\n", *report.ChiSquare)
	}
	if report.AffineKey != nil {
		fmt.Fprintf(out, "key: a=%d b=%d\n", report.AffineKey.A, report.AffineKey.B)
		if len(report.AffineSolutions) > 1 {
			alts := make([]string, 0, len(report.AffineSolutions)-1)
			for _, k := range report.AffineSolutions[1:] {
				alts = append(alts, fmt.Sprintf("a=%d b=%d", k.A, k.B))
			}
			fmt.Fprintf(out, "other keys: %s\n", strings.Join(alts, ", "))
		}
	}
	if report.Message != "" {
		fmt.Fprintln(out, report.Message)
	}
	if report.Plaintext != "" {
		if report.Shift != nil || report.AffineKey != nil || len(report.KeySquare) > 0 {
			fmt.Fprintf(out, "plaintext: %s\n", report.Plaintext)
		} else {
			fmt.Fprintln(out, report.Plaintext)
		}
	}
}

func renderFrequencies(out io.Writer, report *cipher.Report) {
	maxPercent := 0.0
	for _, f := range report.Frequencies {
		maxPercent = math.Max(maxPercent, f.Percent)
	}
	for _, f := range report.Frequencies {
		width := 0
		if maxPercent > 0 {
			width = int(math.Round(f.Percent / maxPercent * barWidth))
		}
		fmt.Fprintf(out, "%s %5d %6.2f%% %s\n", f.Letter, f.Count, f.Percent, strings.Repeat("#", width))
	}
	fmt.Fprintf(out, "total letters: %d\n", report.TotalLetters)
}

func renderKasiski(out io.Writer, report *cipher.Report) {
	if report.Message != "" {
		fmt.Fprintln(out, report.Message)
		return
	}
	for _, r := range report.Repeats {
		fmt.Fprintf(out, "%s  positions %v  distances %v\n", r.Trigram, r.Positions, r.Distances)
	}
	if len(report.KeyLengths) == 0 {
		fmt.Fprintln(out, "likely key lengths: none")
		return
	}
	lengths := make([]string, len(report.KeyLengths))
	for i, n := range report.KeyLengths {
		lengths[i] = fmt.Sprint(n)
	}
	fmt.Fprintf(out, "likely key lengths: %s\n", strings.Join(lengths, ", "))
}
