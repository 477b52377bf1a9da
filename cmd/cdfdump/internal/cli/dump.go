package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scigolib/cdf/lib/format/cdf"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print a CDF file's variable and attribute structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		content, err := cdf.Open(f, info.Size())
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		logger.Info("opened CDF", "path", path, "version", content.Version, "release", content.Release)
		printContent(content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func printContent(c *cdf.CdfContent) {
	fmt.Printf("encoding: %d  row-major: %t\n", c.Encoding, c.RowMajor)

	fmt.Printf("\nglobal attributes (%d):\n", len(c.GlobalAttributes))
	for _, a := range c.GlobalAttributes {
		fmt.Printf("  %s: %d entries\n", a.Name, len(a.Entries))
	}

	fmt.Printf("\nr-variables (%d):\n", len(c.RVariables))
	printVariables(c.RVariables)

	fmt.Printf("\nz-variables (%d):\n", len(c.ZVariables))
	printVariables(c.ZVariables)
}

func printVariables(vars []cdf.Variable) {
	for _, v := range vars {
		class := v.ShapeClass()
		shape := "scalar"
		if class.Array {
			shape = "array"
		}
		fmt.Printf("  %-24s %-16s dims=%v recordVariance=%t maxRec=%d (%s)\n",
			v.Name(), v.DataType(), v.DimSizes(), v.RecordVariance(), v.MaxRec(), shape)
	}
}
