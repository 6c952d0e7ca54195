// Package cmd implements the himawaripy command line interface.
package cmd

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironjr/himawaripy/internal/encode"
	"github.com/ironjr/himawaripy/internal/geo"
	"github.com/ironjr/himawaripy/internal/postprocess"
	"github.com/ironjr/himawaripy/internal/power"
	"github.com/ironjr/himawaripy/internal/remap"
	"github.com/ironjr/himawaripy/internal/tile"
	"github.com/ironjr/himawaripy/internal/wallpaper"
)

var version = "3.0.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "himawaripy",
	Short: "Set a near-realtime picture of Earth as your desktop background",
	Long: `himawaripy fetches the latest full-disk image of Earth taken by the
Himawari-8 geostationary satellite, optionally reprojects it around a point
of interest, and sets it as your desktop background.

Examples:
  # Fetch the latest full disk and set it as the wallpaper
  himawaripy

  # Higher detail, cropped for a 16:9 screen
  himawaripy --level 8 --screen-ratio 16:9

  # Lambert azimuthal projection centered on Seoul, 20 km per pixel
  himawaripy --level 8 --scale 20 --center 37.5665,126.9780 --width 2560 --height 1440

  # Only a sub-grid of tiles, saved without changing the wallpaper
  himawaripy --level 16 --tiles 3,2,12,11 --dont-change --output-dir ~/Pictures`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          run,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()

	f.IntP("level", "l", 4, "tile grid detail, one of 4, 8, 16, 20")
	f.StringP("tiles", "t", "", "tile box to fetch as 'x1,y1,x2,y2' (default: full disk)")
	f.IntP("offset", "o", 10, "UTC offset in hours, between -12 and +10")
	f.Bool("auto-offset", false, "derive the UTC offset from the local time zone")
	f.String("screen-ratio", "", "crop the composite to a screen ratio, e.g. '16:9'")
	f.Float64("scale", 0, "km per output pixel for the projected view (0 disables projection)")
	f.String("center", "", "projection center as 'lat,lon' in degrees")
	f.Float64("sat-lon", geo.DefaultSatelliteLonDeg, "sub-satellite longitude in degrees")
	f.Int("width", 1920, "output width in pixels")
	f.Int("height", 1080, "output height in pixels")
	f.String("edge", "transparent", "out-of-frame handling for the projected view (transparent|clamp)")
	f.IntP("deadline", "d", 6, "deadline in minutes for the whole run, 0 to disable")
	f.String("output-dir", "", "directory for the downloaded background (default: user cache dir)")
	f.StringP("format", "f", "png", "output format (png|jpeg|webp)")
	f.Int("quality", 85, "quality for lossy output formats, 1-100")
	f.Int("concurrency", 0, "maximum parallel tile downloads (0: one per tile)")
	f.Bool("dont-change", false, "download only, don't change the wallpaper")
	f.Bool("save-battery", false, "skip refreshing while discharging")
	f.BoolP("verbose", "v", false, "log progress detail")

	rootCmd.MarkFlagsMutuallyExclusive("offset", "auto-offset")

	cobra.CheckErr(viper.BindPFlags(f))
	viper.SetEnvPrefix("himawaripy")
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, args []string) error {
	verbose := viper.GetBool("verbose")
	logf := func(format string, a ...any) {
		if verbose {
			log.Printf(format, a...)
		}
	}

	level := viper.GetInt("level")
	switch level {
	case 4, 8, 16, 20:
	default:
		return &geo.ConfigError{Field: "level", Reason: "must be one of 4, 8, 16, 20"}
	}

	box, err := tile.ParseBox(viper.GetString("tiles"), level)
	if err != nil {
		return err
	}
	ratio, err := postprocess.ParseRatio(viper.GetString("screen-ratio"))
	if err != nil {
		return err
	}
	edge, err := remap.ParseEdgePolicy(viper.GetString("edge"))
	if err != nil {
		return err
	}
	enc, err := encode.NewEncoder(viper.GetString("format"), viper.GetInt("quality"))
	if err != nil {
		return err
	}
	deadline := viper.GetInt("deadline")
	if deadline < 0 {
		return &geo.ConfigError{Field: "deadline", Reason: "must be zero or positive"}
	}
	width := viper.GetInt("width")
	height := viper.GetInt("height")

	scale := viper.GetFloat64("scale")
	var mapper *geo.Mapper
	if scale != 0 {
		mapper, err = geo.NewMapper(level, box.X1, box.Y1, scale,
			viper.GetString("center"), viper.GetFloat64("sat-lon"))
		if err != nil {
			return err
		}
	}

	utcOffset := viper.GetInt("offset")
	if viper.GetBool("auto-offset") {
		utcOffset = tile.AutoOffset(time.Now())
		fmt.Fprintf(cmd.ErrOrStderr(), "Detected offset: UTC%+03d:00\n", utcOffset)
	}
	if err := tile.ValidateOffset(utcOffset); err != nil {
		return err
	}

	outputDir := viper.GetString("output-dir")
	if outputDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("locating cache dir: %w", err)
		}
		outputDir = filepath.Join(cacheDir, "himawaripy")
	}

	if viper.GetBool("save-battery") {
		discharging, err := power.Discharging()
		if err != nil {
			return err
		}
		if discharging {
			fmt.Fprintln(cmd.ErrOrStderr(), "Discharging, skipping refresh.")
			return nil
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(deadline)*time.Minute)
		defer cancel()
	}

	client := tile.NewClient(30*time.Second, 10, 5)
	latest, err := client.Latest(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Latest version: %s GMT\n", latest.Format("2006/01/02 15:04:05"))

	ts := tile.OffsetTime(latest, utcOffset)
	if !ts.Equal(latest) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Offset version: %s GMT\n", ts.Format("2006/01/02 15:04:05"))
	}

	assembler := &tile.Assembler{
		Source:       client,
		Concurrency:  viper.GetInt("concurrency"),
		ShowProgress: true,
	}
	comp, err := assembler.Assemble(ctx, level, box, ts)
	if err != nil {
		return err
	}
	logf("assembled %dx%d composite from %d tiles", comp.Image.Rect.Dx(), comp.Image.Rect.Dy(), box.Count())

	var out *image.RGBA
	if mapper != nil {
		out, err = remap.Render(comp.Image, mapper, width, height, edge)
		if err != nil {
			return err
		}
		logf("projected to %dx%d at %g km/px", width, height, scale)
	} else {
		out = postprocess.CropRatio(comp.Image, ratio)
		// The crop path keeps native tile resolution unless an output size
		// was asked for explicitly.
		if cmd.Flags().Changed("width") || cmd.Flags().Changed("height") {
			out = postprocess.Scale(out, width, height)
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	old, err := filepath.Glob(filepath.Join(outputDir, "himawari-*"))
	if err != nil {
		return err
	}
	for _, f := range old {
		if err := os.Remove(f); err != nil {
			return err
		}
	}

	data, err := enc.Encode(out)
	if err != nil {
		return err
	}
	outputFile := filepath.Join(outputDir, "himawari-"+ts.Format("20060102T150405")+enc.FileExtension())
	fmt.Fprintf(cmd.ErrOrStderr(), "Saving to '%s'...\n", outputFile)
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return err
	}

	if viper.GetBool("dont-change") {
		fmt.Fprintln(cmd.ErrOrStderr(), "Not changing your wallpaper as requested.")
		return nil
	}
	if err := wallpaper.Set(outputFile); err != nil {
		return err
	}
	logf("wallpaper set for %q", wallpaper.Environment())
	return nil
}
