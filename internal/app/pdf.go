package app

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Markdown renders a search response as a short briefing document.
func Markdown(resp *Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", resp.Query)
	fmt.Fprintf(&b, "Category: %s\n", resp.Category)
	if resp.Region != "" {
		fmt.Fprintf(&b, "Region: %s\n", resp.Region)
	}
	fmt.Fprintf(&b, "Results: %d of %d\n\n", resp.Count, resp.Total)
	if len(resp.Summary) > 0 {
		b.WriteString("## Summary\n\n")
		for _, p := range resp.Summary {
			b.WriteString(p)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(resp.Articles) > 0 {
		b.WriteString("## Articles read\n\n")
		for _, art := range resp.Articles {
			title := art.Title
			if title == "" {
				title = art.URL
			}
			if art.Error != "" {
				fmt.Fprintf(&b, "- [%s](%s) (failed: %s)\n", title, art.URL, art.Error)
				continue
			}
			fmt.Fprintf(&b, "- [%s](%s) %s\n", title, art.URL, art.SiteName)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Results\n\n")
	for i, c := range resp.Results {
		fmt.Fprintf(&b, "%d. [%s](%s) (%s, score %d)\n", i+1, c.Title, c.URL, c.SourceName, c.Score)
	}
	return b.String()
}

// WritePDF writes resp as a PDF briefing to outPath.
func WritePDF(resp *Response, outPath string) error {
	return writeSimplePDF(Markdown(resp), outPath)
}

var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// writeSimplePDF renders a minimal PDF from Markdown text, preserving paragraphs and
// turning Markdown links [text](url) into clickable PDF links. It does not
// perform full Markdown layout.
func writeSimplePDF(markdown string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 14.0
			if i >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		parts := linkRe.FindAllStringSubmatchIndex(s, -1)
		if len(parts) == 0 {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			continue
		}
		pos := 0
		for _, m := range parts {
			// m: [fullStart, fullEnd, textStart, textEnd, urlStart, urlEnd]
			if m[0] > pos {
				pdf.Write(5, tr(s[pos:m[0]]))
			}
			pdf.WriteLinkString(5, tr(s[m[2]:m[3]]), s[m[4]:m[5]])
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, tr(s[pos:]))
		}
		pdf.Ln(6)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}
