package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andybalholm/lzfse"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Bool("v1", false, "write FSE blocks with uncompressed (bvx1) headers")
	viper.BindPFlag("verify.v1", verifyCmd.Flags().Lookup("v1"))
}

var verifyCmd = &cobra.Command{
	Use:          "verify FILE...",
	Short:        "Check that files survive a compression round trip",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := lzfse.NewEncoder()
		enc.V1 = viper.GetBool("verify.v1")
		dec := lzfse.NewDecoder()
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", path)
			}
			if err := verify(enc, dec, data); err != nil {
				return errors.Wrap(err, path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
		}
		return nil
	},
}

// verify compresses data and checks that every available decoder restores
// it.
func verify(enc *lzfse.Encoder, dec *lzfse.Decoder, data []byte) error {
	want := xxhash.Sum64(data)
	compressed, err := enc.EncodeBytes(data, nil)
	if err != nil {
		return errors.Wrap(err, "compress")
	}
	log.WithFields(log.Fields{
		"raw":        len(data),
		"compressed": len(compressed),
		"xxhash":     fmt.Sprintf("%016x", want),
	}).Debug("Compressed")

	out, err := dec.DecodeBytes(compressed, nil)
	if err != nil {
		return errors.Wrap(err, "decode")
	}
	if got := xxhash.Sum64(out); got != want {
		return errors.Errorf("decode: digest %016x, want %016x", got, want)
	}

	h := xxhash.New()
	if _, err := io.Copy(h, lzfse.NewReader(bytes.NewReader(compressed))); err != nil {
		return errors.Wrap(err, "stream decode")
	}
	if got := h.Sum64(); got != want {
		return errors.Errorf("stream decode: digest %016x, want %016x", got, want)
	}

	if referenceDecode != nil {
		if got := xxhash.Sum64(referenceDecode(compressed)); got != want {
			return errors.Errorf("reference decode: digest %016x, want %016x", got, want)
		}
	}
	return nil
}
