package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/andybalholm/lzfse"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:          "info FILE",
	Short:        "List the blocks of an LZFSE file",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		blocks, err := lzfse.Scan(r)
		if err != nil {
			return errors.Wrapf(lzfse.AsIOError(err), "failed to scan %s", args[0])
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OFFSET\tTYPE\tSIZE\tRAW")
		var size, raw int64
		for _, b := range blocks {
			fmt.Fprintf(w, "%#x\t%s\t%d\t%d\n", b.Offset, b.Kind(), b.Size, b.NRaw)
			size += b.Size
			raw += int64(b.NRaw)
		}
		w.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "%d blocks, %s compressed, %s raw, ratio %s\n",
			len(blocks), humanize.Bytes(uint64(size)), humanize.Bytes(uint64(raw)), ratio(raw, size))
		return nil
	},
}
