package requestcmd

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-bxd/internal/keystore"
	"github.com/sirosfoundation/go-bxd/pkg/schema"
	"github.com/sirosfoundation/go-bxd/pkg/xmldsig"
)

func newVerifyCmd() *cobra.Command {
	var in, certPath string
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature and schema of an ApplicationRequest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd, nil)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("reading request: %w", err)
			}
			data, err := decodeRequest(raw)
			if err != nil {
				return err
			}

			cert, err := keystore.LoadCertificate(certPath)
			if err != nil {
				return fmt.Errorf("loading certificate: %w", err)
			}

			if err := xmldsig.Verify(data, cert); err != nil {
				return err
			}
			if err := xmldsig.CrossCheck(data, cert); err != nil {
				return err
			}
			logger.Debug("signature verified", "subject", cert.Subject.String())

			if !skipValidation {
				set, err := schema.Default()
				if err != nil {
					return err
				}
				if err := set.ValidateBytes(data); err != nil {
					return err
				}
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return err
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Signed request, base64 or XML")
	cmd.Flags().StringVar(&certPath, "cert", "", "PEM certificate of the signer")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "Only check the signature")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("cert")

	return cmd
}

// decodeRequest returns the XML of a request given either as XML or as the
// base64 payload.
func decodeRequest(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return trimmed, nil
	}
	data, err := base64.StdEncoding.DecodeString(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("request is neither XML nor base64: %w", err)
	}
	return data, nil
}
