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
	rootCmd.AddCommand(compressCmd)
	compressCmd.Flags().StringP("output", "o", "", "output file (default FILE.lzfse, '-' for stdout)")
	compressCmd.Flags().Bool("v1", false, "write FSE blocks with uncompressed (bvx1) headers")
	compressCmd.MarkFlagFilename("output")
	viper.BindPFlag("compress.output", compressCmd.Flags().Lookup("output"))
	viper.BindPFlag("compress.v1", compressCmd.Flags().Lookup("v1"))
}

var compressCmd = &cobra.Command{
	Use:          "compress FILE",
	Aliases:      []string{"c"},
	Short:        "Compress a file ('-' for stdin)",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		out := viper.GetString("compress.output")
		if out == "" {
			out = compressedName(in)
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

		enc := lzfse.NewRingEncoder()
		enc.V1 = viper.GetBool("compress.v1")
		nIn, nOut, err := enc.Encode(r, w)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "failed to compress %s", in)
		}

		log.WithFields(log.Fields{
			"output": out,
			"in":     humanize.Bytes(uint64(nIn)),
			"out":    humanize.Bytes(uint64(nOut)),
			"ratio":  ratio(nIn, nOut),
		}).Info("Compressed")
		return nil
	},
}

func ratio(raw, compressed int64) string {
	if compressed == 0 {
		return "-"
	}
	return humanize.FtoaWithDigits(float64(raw)/float64(compressed), 2)
}
