package report

import (
	"io"

	"github.com/nao1215/seoscan/internal/model"
)

// Writer renders one site's result, or just its findings summary, and
// reports the bytes written.
type Writer interface {
	Write(result *model.SiteResult) (int, error)
	WriteSummary(summary *model.Summary) (int, error)
}

// baseWriter holds the destination shared by every format.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
