package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
)

const banner = `
    _                    _   ____            _
   / \   __ _  ___ _ __ | |_|  _ \  ___  ___| | __
  / _ \ / _` + "`" + ` |/ _ \ '_ \| __| | | |/ _ \/ __| |/ /
 / ___ \ (_| |  __/ | | | |_| |_| |  __/\__ \   <
/_/   \_\__, |\___|_| |_|\__|____/ \___||___/_|\_\
        |___/
          >> RESEARCH . ANALYSIS . WRITING <<
`

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// PrintBanner writes the centered startup banner to w.
func PrintBanner(w io.Writer) {
	width := termWidth()
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan, l, colorReset)
	}
}
