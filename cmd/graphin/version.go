package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frux/graphin"
)

func newVersionCmd(conf *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := json.Marshal(graphin.GetBuildInfo())
			if err != nil {
				return errors.Wrap(err, "encoding build info")
			}
			return render(cmd.OutOrStdout(), conf.GetString("output"), raw)
		},
	}
}
