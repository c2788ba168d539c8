package main

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/dendrascience/drsmap/internal/cmd"
	"github.com/dendrascience/drsmap/report"
	"github.com/dendrascience/drsmap/version"
)

func main() {
	info := version.Get()
	opts := []fang.Option{
		fang.WithVersion(info.Version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
		fang.WithErrorHandler(handleError),
	}
	if info.Commit != "unknown" {
		opts = append(opts, fang.WithCommit(info.Commit))
	}

	err := fang.Execute(context.Background(), cmd.NewRootCmd(), opts...)
	os.Exit(report.ExitCode(err))
}

// handleError leaves partial runs to their printed summary.
func handleError(w io.Writer, styles fang.Styles, err error) {
	if errors.Is(err, report.ErrPartial) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
