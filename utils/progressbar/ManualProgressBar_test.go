package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestManualProgressBar(t *testing.T) {
	tests := []struct {
		name       string
		width, max int
		increments int
		filled     int
		percent    string
	}{
		{"empty", 10, 4, 0, 0, "0.00%"},
		{"half", 10, 4, 2, 5, "50.00%"},
		{"full", 10, 4, 4, 10, "100.00%"},
		{"saturates", 10, 4, 9, 10, "100.00%"},
		{"zeroMax", 10, 0, 1, 10, "100.00%"},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		p := NewManualProgressBar(&buf, test.width, test.max)
		for i := 0; i < test.increments; i++ {
			p.Increment()
		}

		bar := p.String()
		if n := strings.Count(bar, "█"); n != test.filled {
			t.Errorf("%v: filled have(%v) want(%v)", test.name, n, test.filled)
		}
		if !strings.Contains(bar, test.percent) {
			t.Errorf("%v: bar %q does not contain %v", test.name, bar,
				test.percent)
		}

		if err := p.Display(); err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(buf.String(), bar) {
			t.Errorf("%v: display wrote %q", test.name, buf.String())
		}
	}
}
