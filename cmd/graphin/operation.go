package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/frux/graphin"
)

func newOperationCmd(conf *viper.Viper, kind graphin.OperationKind) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " [text | - | @file]",
		Short: fmt.Sprintf("Run a GraphQL %s and print its data", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readOperation(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			headers, err := headerValues(cmd, conf)
			if err != nil {
				return err
			}
			return runOperation(cmd.Context(), conf, kind, text, headers, cmd.OutOrStdout())
		},
	}
}

func newURLCmd(conf *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "url [text | - | @file]",
		Short: "Print the request URL (and cache key) for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readOperation(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			client, err := graphin.New(conf.GetString("endpoint"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), client.QueryURL(text))
			return err
		},
	}
}

// readOperation resolves the operation argument: "-" reads stdin, "@path"
// reads a file, anything else is the operation text itself.
func readOperation(arg string, stdin io.Reader) (string, error) {
	switch {
	case arg == "-":
		raw, err := io.ReadAll(stdin)
		return string(raw), errors.Wrap(err, "reading operation from stdin")
	case strings.HasPrefix(arg, "@"):
		raw, err := os.ReadFile(arg[1:])
		return string(raw), errors.Wrapf(err, "reading operation from %s", arg[1:])
	default:
		return arg, nil
	}
}

func runOperation(ctx context.Context, conf *viper.Viper, kind graphin.OperationKind, text string, headers []string, out io.Writer) error {
	logger, err := newLogger(conf.GetBool("verbose"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fetch, err := fetchOptions(conf, headers)
	if err != nil {
		return err
	}
	client, err := graphin.New(conf.GetString("endpoint"),
		graphin.WithCache(conf.GetDuration("cache")),
		graphin.WithVerbose(conf.GetBool("verbose")),
		graphin.WithFetchOptions(fetch),
		graphin.WithLogger(graphin.NewZapLogger(logger)),
	)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := conf.GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var data json.RawMessage
	if kind == graphin.OperationMutation {
		data, err = client.Mutation(ctx, text)
	} else {
		data, err = client.Query(ctx, text)
	}
	if err != nil {
		var queryErr *graphin.QueryError
		if errors.As(err, &queryErr) {
			logger.Debug("GraphQL errors", zap.String("trace", queryErr.Trace()))
		}
		return err
	}
	return render(out, conf.GetString("output"), data)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	return logger, errors.Wrap(err, "building logger")
}

// headerValues returns the --header values verbatim when the flag is set.
// Otherwise it falls back to GRAPHIN_HEADER, one header per line, or to a
// list in the config file.
func headerValues(cmd *cobra.Command, conf *viper.Viper) ([]string, error) {
	if cmd.Flags().Changed("header") {
		return cmd.Flags().GetStringArray("header")
	}
	switch v := conf.Get("header").(type) {
	case nil:
		return nil, nil
	case string:
		var headers []string
		for _, line := range strings.Split(v, "\n") {
			if strings.TrimSpace(line) != "" {
				headers = append(headers, line)
			}
		}
		return headers, nil
	default:
		headers, err := cast.ToStringSliceE(v)
		return headers, errors.Wrap(err, "reading header setting")
	}
}

func fetchOptions(conf *viper.Viper, headers []string) (graphin.FetchOptions, error) {
	opts := graphin.FetchOptions{
		Method:      conf.GetString("method"),
		Credentials: graphin.Credentials(conf.GetString("credentials")),
	}
	for _, h := range headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return opts, errors.Errorf("invalid header %q, want 'Key: Value'", h)
		}
		if opts.Header == nil {
			opts.Header = make(http.Header)
		}
		opts.Header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return opts, nil
}

// render writes data as indented JSON or as YAML.
func render(out io.Writer, format string, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	switch format {
	case "", "json":
		var v interface{}
		if err := json.Unmarshal(data, &v); err != nil {
			return errors.Wrap(err, "decoding data")
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		var v interface{}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return errors.Wrap(err, "decoding data")
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
		return enc.Close()
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
