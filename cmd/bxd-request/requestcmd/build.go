package requestcmd

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-bxd/internal/config"
	"github.com/sirosfoundation/go-bxd/internal/keystore"
	"github.com/sirosfoundation/go-bxd/pkg/appreq"
	"github.com/sirosfoundation/go-bxd/pkg/schema"
	"github.com/sirosfoundation/go-bxd/pkg/xmldsig"
)

type buildOptions struct {
	command        string
	environment    string
	status         string
	targetID       string
	fileType       string
	fileReference  string
	contentFile    string
	compress       bool
	startDate      string
	endDate        string
	out            string
	xml            bool
	skipValidation bool
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a signed ApplicationRequest",
		Long: `Build a signed ApplicationRequest for one command and write it base64
encoded. Customer, key and default request fields come from the configuration
file; flags override the request fields.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.command, "command", "", "Command: DownloadFile, DownloadFileList, GetUserInfo or UploadFile")
	flags.StringVar(&opts.environment, "environment", "", "PRODUCTION or TEST; overrides customer.environment")
	flags.StringVar(&opts.status, "status", "", "File status filter (NEW, DLD, ALL)")
	flags.StringVar(&opts.targetID, "target-id", "", "Target folder identifier")
	flags.StringVar(&opts.fileType, "file-type", "", "File type, e.g. TITO")
	flags.StringVar(&opts.fileReference, "file-reference", "", "Reference of the file to download")
	flags.StringVar(&opts.contentFile, "content-file", "", "File to upload")
	flags.BoolVar(&opts.compress, "compress", false, "Gzip the uploaded content")
	flags.StringVar(&opts.startDate, "start-date", "", "Start of the listing range (YYYY-MM-DD)")
	flags.StringVar(&opts.endDate, "end-date", "", "End of the listing range (YYYY-MM-DD)")
	flags.StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	flags.BoolVar(&opts.xml, "xml", false, "Write the signed XML instead of base64")
	flags.BoolVar(&opts.skipValidation, "skip-validation", false, "Do not validate the result against the schema")
	_ = cmd.MarkFlagRequired("command")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	command, err := appreq.ParseCommand(opts.command)
	if err != nil {
		return err
	}

	signer, err := keystore.Open(cfg.Keys)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}
	if closer, ok := signer.(io.Closer); ok {
		defer closer.Close()
	}
	signatureMethod, err := xmldsig.SignatureAlgorithmURI(cfg.Signing.Hash())
	if err != nil {
		return err
	}
	info := keystore.Describe(signer)
	logger.Debug("loaded signing key",
		"key_algorithm", info.Algorithm,
		"key_size", info.KeySize,
		"signature_method", signatureMethod,
		"subject", info.CertificateSubject)

	params, err := opts.params(cfg)
	if err != nil {
		return err
	}
	params.PrivateKey = signer
	params.Certificate = signer.Certificate()
	params.Command = command

	req, err := appreq.NewRequest(params,
		appreq.WithLogger(logger),
		appreq.WithDigestAlgorithm(cfg.Signing.Hash()))
	if err != nil {
		return err
	}

	data, err := req.XML()
	if err != nil {
		return err
	}

	if !opts.skipValidation {
		set, err := schema.Default()
		if err != nil {
			return err
		}
		if err := set.ValidateBytes(data); err != nil {
			return err
		}
	}

	if !opts.xml {
		data = []byte(base64.StdEncoding.EncodeToString(data))
	}
	return writeOutput(cmd, opts.out, data)
}

// params merges the flags over the request defaults of cfg.
func (o *buildOptions) params(cfg *config.Config) (appreq.Params, error) {
	p := appreq.Params{
		CustomerID:    cfg.Customer.ID,
		Environment:   firstNonEmpty(o.environment, cfg.Customer.Environment),
		Status:        firstNonEmpty(o.status, cfg.Request.Status),
		TargetID:      firstNonEmpty(o.targetID, cfg.Request.TargetID),
		FileType:      firstNonEmpty(o.fileType, cfg.Request.FileType),
		FileReference: o.fileReference,
		Compress:      o.compress,
	}

	switch p.Environment {
	case "PRODUCTION", "TEST":
	default:
		return p, fmt.Errorf("--environment must be PRODUCTION or TEST, got %q", p.Environment)
	}

	if o.contentFile != "" {
		content, err := os.ReadFile(o.contentFile)
		if err != nil {
			return p, fmt.Errorf("reading content file: %w", err)
		}
		p.Content = content
	}

	var err error
	if p.StartDate, err = parseDate("start-date", o.startDate); err != nil {
		return p, err
	}
	if p.EndDate, err = parseDate("end-date", o.endDate); err != nil {
		return p, err
	}
	return p, nil
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(appreq.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// writeOutput writes data to path, or to the command's stdout followed by a
// newline when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
