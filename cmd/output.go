package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/acs-cli/internal/render"
	"github.com/sells-group/acs-cli/pkg/acs"
)

// writeResult renders res in the --format format to --out, or to the
// command's stdout when --out is empty.
func writeResult(cmd *cobra.Command, res *acs.Result) error {
	format, err := render.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	if flagOut == "" {
		if format.Binary() {
			return eris.Errorf("format %s requires --out", format)
		}
		return render.Write(cmd.OutOrStdout(), format, res)
	}

	f, err := os.Create(flagOut)
	if err != nil {
		return eris.Wrapf(err, "create %s", flagOut)
	}
	if err := writeAndClose(f, format, res); err != nil {
		return err
	}

	zap.L().Info("wrote output",
		zap.String("path", flagOut),
		zap.String("format", string(format)),
		zap.Int("records", res.Len()),
	)
	return nil
}

func writeAndClose(w io.WriteCloser, format render.Format, res *acs.Result) error {
	if err := render.Write(w, format, res); err != nil {
		w.Close() //nolint:errcheck
		return err
	}
	return eris.Wrap(w.Close(), "close output")
}
