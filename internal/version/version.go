package version

import (
	"fmt"
	"io"
	"runtime"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// UserAgent is sent with every API request.
func UserAgent() string {
	return "metafetch/" + Version
}

func Print(w io.Writer) {
	_, _ = fmt.Fprintln(w, "metafetch - conditional metadata downloader")
	_, _ = fmt.Fprintf(w, "  %-11s %s\n", "Version:", Version)
	_, _ = fmt.Fprintf(w, "  %-11s %s\n", "Go Version:", GoVersion)
	_, _ = fmt.Fprintf(w, "  %-11s %s\n", "Git Commit:", Commit)
	_, _ = fmt.Fprintf(w, "  %-11s %s\n", "Built:", Date)
	_, _ = fmt.Fprintf(w, "  %-11s %s/%s\n", "OS/Arch:", runtime.GOOS, runtime.GOARCH)
}
