package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/frux/graphin"
)

const envPrefix = "GRAPHIN"

// newRootCmd builds the command tree. Settings resolve from flags, then
// GRAPHIN_* environment variables, then the optional config file.
func newRootCmd() *cobra.Command {
	conf := viper.New()

	root := &cobra.Command{
		Use:           "graphin",
		Short:         "Run GraphQL operations over HTTP",
		Version:       graphin.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := conf.GetString("config")
			if cfg == "" {
				return nil
			}
			conf.SetConfigFile(cfg)
			return errors.Wrapf(conf.ReadInConfig(), "reading config %s", cfg)
		},
	}

	flags := root.PersistentFlags()
	addClientFlags(flags)

	conf.SetEnvPrefix(envPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()
	if err := conf.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newOperationCmd(conf, graphin.OperationQuery),
		newOperationCmd(conf, graphin.OperationMutation),
		newURLCmd(conf),
		newVersionCmd(conf),
	)
	return root
}

// addClientFlags registers the settings shared by every subcommand.
func addClientFlags(flags *flag.FlagSet) {
	flags.String("config", "", "Configuration file (yaml, json or toml).")
	flags.StringP("endpoint", "e", "", "GraphQL endpoint URL.")
	flags.Duration("cache", 0, "Response cache TTL; zero disables caching.")
	flags.BoolP("verbose", "v", false, "Log requests with timing.")
	flags.StringArrayP("header", "H", nil, "Request header as 'Key: Value'. Repeatable.")
	flags.StringP("method", "X", "", "HTTP method; defaults to GET for queries and POST for mutations.")
	flags.String("credentials", string(graphin.CredentialsOmit), "Cookie policy: omit, same-origin or include.")
	flags.StringP("output", "o", "json", "Output format: json or yaml.")
	flags.Duration("timeout", 0, "Overall request timeout; zero means none.")
}
