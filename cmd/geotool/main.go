package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/pkg/geospatial"
)

var (
	thresholdMeters float64
	outputJSON      bool
)

var rootCmd = &cobra.Command{
	Use:   "geotool",
	Short: "Distance, bounding box and marker grouping helpers",
	Long:  `Runs the map's geospatial primitives from the command line, for checking marker behaviour against real coordinates.`,
}

// distance and bbox parse their own flags so negative coordinates such as
// -2.93 are read as numbers rather than shorthand flags.
var distanceCmd = &cobra.Command{
	Use:                "distance LAT1 LON1 LAT2 LON2",
	Short:              "Great-circle distance between two points in meters",
	DisableFlagParsing: true,
	RunE:               runDistance,
}

var bboxCmd = &cobra.Command{
	Use:                "bbox LAT LON SIZE_METERS",
	Short:              "Square bounding box of the given edge length around a point",
	DisableFlagParsing: true,
	RunE:               runBBox,
}

var groupCmd = &cobra.Command{
	Use:   "group FILE",
	Short: "Group the points in a JSON file into map markers",
	Long: `Reads a JSON array of {"id","lat","lon"} objects ("-" for stdin) and prints the
groups that would be rendered as single markers.`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
	groupCmd.Flags().Float64VarP(&thresholdMeters, "threshold", "t", 3, "Grouping threshold in meters")

	rootCmd.AddCommand(distanceCmd, bboxCmd, groupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// coordArgs picks --json and --help out of args and parses the remaining n
// positional numbers. ok is false when help was printed instead.
func coordArgs(cmd *cobra.Command, args []string, n int) (v []float64, ok bool, err error) {
	var rest []string
	for _, a := range args {
		switch {
		case a == "-h" || a == "--help":
			return nil, false, cmd.Help()
		case a == "--json":
			outputJSON = true
		case strings.HasPrefix(a, "--json="):
			b, err := strconv.ParseBool(strings.TrimPrefix(a, "--json="))
			if err != nil {
				return nil, false, fmt.Errorf("invalid --json value %q", a)
			}
			outputJSON = b
		case a == "--":
		default:
			rest = append(rest, a)
		}
	}
	if len(rest) != n {
		return nil, false, fmt.Errorf("accepts %d arg(s), received %d", n, len(rest))
	}
	v, err = parseFloats(rest)
	return v, err == nil, err
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not a number", i+1, a)
		}
		out[i] = v
	}
	return out, nil
}

func runDistance(cmd *cobra.Command, args []string) error {
	v, ok, err := coordArgs(cmd, args, 4)
	if !ok {
		return err
	}
	a := domain.GeoPoint{Lat: v[0], Lon: v[1]}
	b := domain.GeoPoint{Lat: v[2], Lon: v[3]}
	d := geospatial.Distance(a, b)

	if outputJSON {
		return printJSON(cmd, map[string]float64{"meters": d})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.3f m\n", d)
	return nil
}

func runBBox(cmd *cobra.Command, args []string) error {
	v, ok, err := coordArgs(cmd, args, 3)
	if !ok {
		return err
	}
	box := geospatial.NewBoundingBox(domain.GeoPoint{Lat: v[0], Lon: v[1]}, v[2])

	if outputJSON {
		return printJSON(cmd, box)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "south-west: %.6f, %.6f\nnorth-east: %.6f, %.6f\n",
		box.SouthWest.Lat, box.SouthWest.Lon, box.NorthEast.Lat, box.NorthEast.Lon)
	return nil
}

// point ids may be JSON strings or numbers and are echoed back unchanged.
type point struct {
	ID  json.RawMessage `json:"id"`
	Lat float64         `json:"lat"`
	Lon float64         `json:"lon"`
}

func (p point) label() string {
	var s string
	if err := json.Unmarshal(p.ID, &s); err == nil {
		return s
	}
	return string(p.ID)
}

func runGroup(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var points []point
	if err := json.NewDecoder(in).Decode(&points); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}

	groups := geospatial.GroupByProximity(points, thresholdMeters, func(p point) domain.GeoPoint {
		return domain.GeoPoint{Lat: p.Lat, Lon: p.Lon}
	})

	if outputJSON {
		return printJSON(cmd, groups)
	}
	out := cmd.OutOrStdout()
	for i, g := range groups {
		fmt.Fprintf(out, "%d. %s (%.6f, %.6f) x%d:", i+1, g[0].label(), g[0].Lat, g[0].Lon, len(g))
		for _, p := range g {
			fmt.Fprintf(out, " %s", p.label())
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
