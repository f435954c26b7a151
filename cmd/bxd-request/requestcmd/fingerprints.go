package requestcmd

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-bxd/pkg/appreq"
	"github.com/sirosfoundation/go-bxd/pkg/schema"
)

func newFingerprintsCmd() *cobra.Command {
	var templatesDir, schemasDir string

	cmd := &cobra.Command{
		Use:   "fingerprints",
		Short: "Print template and schema fingerprints",
		Long: `Print the SHA-1 fingerprints of the request templates and schemas and
whether they match the pinned values. By default the embedded files are
checked; --templates and --schemas check copies on disk instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := templateFingerprints(templatesDir)
			if err != nil {
				return err
			}
			schemas, err := schemaFingerprints(schemasDir)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			mismatches := printFingerprints(w, "template", templates, appreqPinned())
			mismatches += printFingerprints(w, "schema", schemas, schema.SchemaFingerprints)
			if mismatches > 0 {
				return fmt.Errorf("%d fingerprint(s) do not match", mismatches)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&templatesDir, "templates", "", "Directory holding the request templates")
	cmd.Flags().StringVar(&schemasDir, "schemas", "", "Directory holding the schemas")

	return cmd
}

func templateFingerprints(dir string) (map[string]string, error) {
	var store *appreq.Store
	var err error
	if dir == "" {
		store, err = appreq.DefaultStore()
	} else {
		store, err = appreq.LoadStore(os.DirFS(dir), nil)
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for cmd, fp := range store.Fingerprints() {
		out[cmd.String()] = fp
	}
	return out, nil
}

func schemaFingerprints(dir string) (map[string]string, error) {
	if dir == "" {
		set, err := schema.Default()
		if err != nil {
			return nil, err
		}
		return set.Fingerprints(), nil
	}
	set, err := schema.Load(os.DirFS(dir), schema.Entry)
	if err != nil {
		return nil, err
	}
	return set.Fingerprints(), nil
}

func appreqPinned() map[string]string {
	out := make(map[string]string)
	for cmd, fp := range appreq.TemplateFingerprints {
		out[cmd.String()] = fp
	}
	return out
}

// printFingerprints writes one line per file and returns the number of
// files that differ from pinned.
func printFingerprints(w io.Writer, kind string, got, pinned map[string]string) int {
	names := make([]string, 0, len(got))
	for name := range got {
		names = append(names, name)
	}
	slices.Sort(names)

	mismatches := 0
	for _, name := range names {
		status := "ok"
		if pinned[name] != got[name] {
			status = "MISMATCH"
			mismatches++
		}
		fmt.Fprintf(w, "%-8s %-24s %s %s\n", kind, name, got[name], status)
	}
	return mismatches
}
