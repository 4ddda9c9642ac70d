package cmd

import (
	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andybalholm/lzfse"
)

func init() {
	rootCmd.AddCommand(decompressCmd)
	decompressCmd.Flags().StringP("output", "o", "", "output file (default FILE without .lzfse, '-' for stdout)")
	decompressCmd.MarkFlagFilename("output")
	viper.BindPFlag("decompress.output", decompressCmd.Flags().Lookup("output"))
}

var decompressCmd = &cobra.Command{
	Use:          "decompress FILE",
	Aliases:      []string{"d"},
	Short:        "Decompress an LZFSE file ('-' for stdin)",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		out := viper.GetString("decompress.output")
		if out == "" {
			out = decompressedName(in)
		}

		r, err := openInput(in)
		if err != nil {
			return err
		}
		defer r.Close()
		w, err := createOutput(out)
		if err != nil {
			return err
		}

		nIn, nOut, err := lzfse.NewRingDecoder().Decode(r, w)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(lzfse.AsIOError(err), "failed to decompress %s", in)
		}

		log.WithFields(log.Fields{
			"output": out,
			"in":     humanize.Bytes(uint64(nIn)),
			"out":    humanize.Bytes(uint64(nOut)),
		}).Info("Decompressed")
		return nil
	},
}
