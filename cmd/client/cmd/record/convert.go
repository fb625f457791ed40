package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/types"
)

var convertCmdFrom, convertCmdTo string

var ConvertCmd = &cobra.Command{
	Use:   "convert <сумма>",
	Short: "Пересчитать сумму по последнему курсу",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		amount, err := parseMoney(args[0], "сумма")
		if err != nil {
			return err
		}

		out, err := app.Convert(cmd.Context(), amount, convertCmdFrom, convertCmdTo)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s = %s %s\n", amount.StringFixed(2), convertCmdFrom, out.StringFixed(2), convertCmdTo)
		return nil
	},
}

func init() {
	ConvertCmd.Flags().StringVar(&convertCmdFrom, "from", "", "исходная валюта")
	ConvertCmd.Flags().StringVar(&convertCmdTo, "to", "", "целевая валюта")
	_ = ConvertCmd.MarkFlagRequired("from")
	_ = ConvertCmd.MarkFlagRequired("to")
}
