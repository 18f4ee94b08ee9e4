package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"evaltool/internal/domain/evaluation"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// warnSync tells the operator that a write stayed local.
func warnSync(res evaluation.SyncResult) {
	if res.Failed() {
		fmt.Fprintf(os.Stderr, "warning: saved locally, remote sync failed: %v\n", res.Err)
	}
}

// writeFile writes data to path, or to w when path is "-".
func writeFile(w io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "wrote %s (%d bytes)\n", path, len(data))
	return err
}
