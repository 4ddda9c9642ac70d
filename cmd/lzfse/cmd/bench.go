package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pierrec/xxHash/xxHash32"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andybalholm/lzfse"
)

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntP("iterations", "n", 3, "number of runs per codec (the fastest is reported)")
	benchCmd.Flags().StringSliceP("codec", "c", nil, "codecs to run (default all)")
	viper.BindPFlag("bench.iterations", benchCmd.Flags().Lookup("iterations"))
	viper.BindPFlag("bench.codec", benchCmd.Flags().Lookup("codec"))
}

type codec struct {
	name       string
	compress   func([]byte) ([]byte, error)
	decompress func([]byte) ([]byte, error)
}

func codecs() ([]codec, error) {
	enc := lzfse.NewEncoder()
	dec := lzfse.NewDecoder()
	v1 := lzfse.NewEncoder()
	v1.V1 = true
	list := []codec{
		{
			name:       "lzfse",
			compress:   func(b []byte) ([]byte, error) { return enc.EncodeBytes(b, nil) },
			decompress: func(b []byte) ([]byte, error) { return dec.DecodeBytes(b, nil) },
		},
		{
			name:       "lzfse-v1",
			compress:   func(b []byte) ([]byte, error) { return v1.EncodeBytes(b, nil) },
			decompress: func(b []byte) ([]byte, error) { return dec.DecodeBytes(b, nil) },
		},
	}
	if referenceEncode != nil {
		list = append(list, codec{
			name:       "lzfse-c",
			compress:   func(b []byte) ([]byte, error) { return referenceEncode(b), nil },
			decompress: func(b []byte) ([]byte, error) { return referenceDecode(b), nil },
		})
	}

	zenc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd encoder")
	}
	zdec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd decoder")
	}
	return append(list,
		codec{
			name:       "zstd",
			compress:   func(b []byte) ([]byte, error) { return zenc.EncodeAll(b, nil), nil },
			decompress: func(b []byte) ([]byte, error) { return zdec.DecodeAll(b, nil) },
		},
		codec{
			name:       "snappy",
			compress:   func(b []byte) ([]byte, error) { return snappy.Encode(nil, b), nil },
			decompress: func(b []byte) ([]byte, error) { return snappy.Decode(nil, b) },
		},
		codec{
			name: "brotli",
			compress: func(b []byte) ([]byte, error) {
				var buf bytes.Buffer
				w := brotli.NewWriterLevel(&buf, 5)
				if _, err := w.Write(b); err != nil {
					return nil, err
				}
				err := w.Close()
				return buf.Bytes(), err
			},
			decompress: func(b []byte) ([]byte, error) {
				return io.ReadAll(brotli.NewReader(bytes.NewReader(b)))
			},
		},
		codec{
			name: "lz4",
			compress: func(b []byte) ([]byte, error) {
				var buf bytes.Buffer
				w := lz4.NewWriter(&buf)
				if _, err := w.Write(b); err != nil {
					return nil, err
				}
				err := w.Close()
				return buf.Bytes(), err
			},
			decompress: func(b []byte) ([]byte, error) {
				return io.ReadAll(lz4.NewReader(bytes.NewReader(b)))
			},
		},
	), nil
}

type result struct {
	codec      string
	size       int
	compress   time.Duration
	decompress time.Duration
}

// run times c on data, keeping the fastest of n runs, and checks the round
// trip against the checksum of data.
func run(c codec, data []byte, n int) (result, error) {
	sum := xxHash32.Checksum(data, 0)
	res := result{codec: c.name}
	for i := 0; i < max(n, 1); i++ {
		start := time.Now()
		compressed, err := c.compress(data)
		if err != nil {
			return res, errors.Wrap(err, "compress")
		}
		ct := time.Since(start)

		start = time.Now()
		out, err := c.decompress(compressed)
		if err != nil {
			return res, errors.Wrap(err, "decompress")
		}
		dt := time.Since(start)

		if xxHash32.Checksum(out, 0) != sum {
			return res, errors.New("round trip checksum mismatch")
		}
		if i == 0 || ct < res.compress {
			res.compress = ct
		}
		if i == 0 || dt < res.decompress {
			res.decompress = dt
		}
		res.size = len(compressed)
	}
	return res, nil
}

func speed(n int, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(float64(n)/d.Seconds())) + "/s"
}

var benchCmd = &cobra.Command{
	Use:          "bench FILE...",
	Short:        "Compare LZFSE with other codecs",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("bench.iterations")
		only := viper.GetStringSlice("bench.codec")

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, humanize.Bytes(uint64(len(data))))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "CODEC\tSIZE\tRATIO\tCOMPRESS\tDECOMPRESS\t")
			list, err := codecs()
			if err != nil {
				return err
			}
			for _, c := range list {
				if len(only) > 0 && !slices.Contains(only, c.name) {
					continue
				}
				res, err := run(c, data, n)
				if err != nil {
					return errors.Wrapf(err, "%s: %s", path, c.name)
				}
				log.WithFields(log.Fields{
					"codec":      res.codec,
					"compress":   res.compress,
					"decompress": res.decompress,
				}).Debug("Benchmarked")
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t\n", res.codec, res.size,
					ratio(int64(len(data)), int64(res.size)),
					speed(len(data), res.compress), speed(len(data), res.decompress))
			}
			w.Flush()
		}
		return nil
	},
}
