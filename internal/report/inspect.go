package report

import (
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

type PDFText struct {
	Pages int
	Text  []string
}

// ReadPDFText extracts plain text per page from a generated roster.
func ReadPDFText(path string) (PDFText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return PDFText{}, err
	}
	defer f.Close()

	out := PDFText{Pages: r.NumPage()}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			out.Text = append(out.Text, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return PDFText{}, err
		}
		out.Text = append(out.Text, text)
	}
	return out, nil
}

func (t PDFText) Contains(s string) bool {
	return strings.Contains(strings.Join(t.Text, "\n"), s)
}
