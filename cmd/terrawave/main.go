package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/terrawave/internal/audio"
	"github.com/linuxmatters/terrawave/internal/cli"
	"github.com/linuxmatters/terrawave/internal/config"
	"github.com/linuxmatters/terrawave/internal/export"
	"github.com/linuxmatters/terrawave/internal/heightfield"
	"github.com/linuxmatters/terrawave/internal/progress"
	"github.com/linuxmatters/terrawave/internal/renderer"
	"github.com/linuxmatters/terrawave/internal/ui"
	"github.com/mattn/go-isatty"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// versionFlag prints the version and exits as soon as it is parsed
type versionFlag bool

func (v versionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(vars["version"])
	app.Exit(0)
	return nil
}

// Globals are flags shared by every command
type Globals struct {
	Debug   bool        `help:"Log diagnostics to stderr"`
	Version versionFlag `help:"Show version information" env:"-"`
}

// Logger returns the diagnostics logger selected by --debug
func (g *Globals) Logger() *slog.Logger {
	return cli.NewLogger(os.Stderr, g.Debug)
}

// CLI is the command line of terrawave
type CLI struct {
	Globals

	Sample SampleCmd `cmd:"" help:"Sample an audio file into vertex heights."`
	Info   InfoCmd   `cmd:"" help:"Show audio properties, tags and spectrum."`
}

// SampleCmd samples an audio file into one height per vertex
type SampleCmd struct {
	Input string `arg:"" name:"input" help:"Input audio file (WAV, MP3, FLAC or Ogg Vorbis)"`

	Vertices      int     `help:"Number of vertices; overrides the subdivisions"`
	SubdivisionsX int     `name:"subdivisions-x" help:"Plane subdivisions along X" default:"${subdivisions}"`
	SubdivisionsY int     `name:"subdivisions-y" help:"Plane subdivisions along Y" default:"${subdivisions}"`
	Height        float64 `help:"Height of the loudest vertex" default:"${height}"`
	Dips          bool    `help:"Keep negative averages as dips below the plane"`
	Reverse       bool    `help:"Map the end of the song to the first vertex"`
	Format        string  `help:"Output format: text, csv or json" default:"${format}"`
	Output        string  `short:"o" help:"Write heights to this file instead of stdout" type:"path"`
	Heightmap     string  `help:"Also render a PNG heightmap to this path" type:"path"`
	Clipboard     bool    `help:"Copy the heights to the clipboard, one per line"`
	NoProgress    bool    `help:"Disable the progress display"`
}

// InfoCmd describes an audio file
type InfoCmd struct {
	Input string `arg:"" name:"input" help:"Input audio file (WAV, MP3, FLAC or Ogg Vorbis)"`
	Bars  int    `help:"Number of spectrum bands" default:"${bars}"`
}

func main() {
	if err := config.LoadEnv(); err != nil {
		cli.PrintWarning(fmt.Sprintf("ignoring %s: %v", config.EnvFile, err))
	}

	var c CLI
	parser := kong.Must(&c, options()...)
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(&c.Globals); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// options configures the kong parser
func options() []kong.Option {
	return []kong.Option{
		kong.Name("terrawave"),
		kong.Description(cli.AppTagline),
		kong.Vars{
			"version":      version,
			"subdivisions": strconv.Itoa(config.DefaultSubdivisions),
			"height":       strconv.FormatFloat(config.DefaultHeight, 'g', -1, 64),
			"format":       config.DefaultFormat,
			"bars":         strconv.Itoa(config.SpectrumBars),
		},
		kong.DefaultEnvars(config.EnvPrefix),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	}
}

// layout resolves the vertex count and grid shape from the flags
func (c *SampleCmd) layout() (cols, rows, vertices int, err error) {
	if c.Vertices > 0 {
		cols, rows = heightfield.Layout(c.Vertices)
		return cols, rows, c.Vertices, nil
	}
	if c.Vertices < 0 {
		return 0, 0, 0, fmt.Errorf("--vertices must be positive, got %d", c.Vertices)
	}

	cols, rows, err = heightfield.FromSubdivisions(c.SubdivisionsX, c.SubdivisionsY)
	if err != nil {
		return 0, 0, 0, err
	}
	return cols, rows, cols * rows, nil
}

// Run samples the input and writes every requested output
func (c *SampleCmd) Run(g *Globals) error {
	log := g.Logger()

	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	cols, rows, vertices, err := c.layout()
	if err != nil {
		return err
	}
	log.Debug("sampling", "input", c.Input, "vertices", vertices, "grid", fmt.Sprintf("%dx%d", cols, rows),
		"height", c.Height, "dips", c.Dips)

	showProgress := !c.NoProgress && isatty.IsTerminal(os.Stderr.Fd())

	var done ui.SampleDone
	if showProgress {
		done, err = c.sampleWithUI(vertices)
		if err != nil {
			return err
		}
	} else {
		done = c.sample(vertices, log)
	}
	if done.Err != nil {
		return fmt.Errorf("sampling %s: %w", c.Input, done.Err)
	}
	log.Debug("sampled", "elapsed", done.Elapsed)

	heights := done.Heights
	if c.Reverse {
		heights = audio.Reverse(heights)
	}

	result := export.Result{
		Source:   c.Input,
		Vertices: vertices,
		Height:   c.Height,
		Dips:     c.Dips,
		Reversed: c.Reverse,
		Values:   heights,
	}
	if err := c.writeResult(format, result); err != nil {
		return err
	}

	if c.Heightmap != "" {
		if err := c.writeHeightmap(heights, cols); err != nil {
			return err
		}
		cli.PrintSuccess(fmt.Sprintf("Heightmap written to %s", c.Heightmap))
	}

	if c.Clipboard {
		var buf bytes.Buffer
		if err := export.Write(&buf, export.FormatText, result); err != nil {
			return err
		}
		if err := clipboard.WriteAll(buf.String()); err != nil {
			cli.PrintWarning(fmt.Sprintf("could not copy to clipboard: %v", err))
		} else {
			cli.PrintSuccess("Heights copied to the clipboard")
		}
	}

	if c.Output != "" || showProgress {
		cli.PrintSampleSummary(filepath.Base(c.Input), vertices, slices.Min(heights), slices.Max(heights), done.Elapsed)
	}
	return nil
}

// sample runs the sampler inline, logging progress at debug level
func (c *SampleCmd) sample(vertices int, log *slog.Logger) ui.SampleDone {
	sink := progress.SinkFunc(func(m progress.Message) {
		if m.Kind != progress.KindStep {
			log.Debug("progress", "stage", m.Stage, "total", m.Total)
		}
	})

	start := time.Now()
	heights, err := audio.Heights(c.Input, vertices, c.Height, c.Dips, sink)
	return ui.SampleDone{Heights: heights, Err: err, Elapsed: time.Since(start)}
}

// sampleWithUI runs the sampler on a goroutine while the progress UI
// consumes its messages through a queue
func (c *SampleCmd) sampleWithUI(vertices int) (ui.SampleDone, error) {
	model := ui.NewModel(filepath.Base(c.Input), vertices)
	p := tea.NewProgram(model, tea.WithOutput(os.Stderr))

	q := progress.NewQueue()
	var done ui.SampleDone

	go func() {
		start := time.Now()
		heights, err := audio.Heights(c.Input, vertices, c.Height, c.Dips, q)
		done = ui.SampleDone{Heights: heights, Err: err, Elapsed: time.Since(start)}
		q.Close()
	}()

	go func() {
		ui.Forward(q, p.Send)
		// The queue is closed only after done is set
		p.Send(done)
	}()

	if _, err := p.Run(); err != nil {
		return ui.SampleDone{}, fmt.Errorf("running UI: %w", err)
	}

	result := model.Result()
	if result == nil {
		return ui.SampleDone{}, errors.New("interrupted")
	}
	return *result, nil
}

// writeResult writes the heights to --output or stdout
func (c *SampleCmd) writeResult(format export.Format, result export.Result) error {
	if c.Output == "" {
		if err := export.Write(os.Stdout, format, result); err != nil {
			return fmt.Errorf("writing heights: %w", err)
		}
		return nil
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	return writeAndClose(f, format, result)
}

// writeAndClose writes the heights to w and closes it, reporting a failed
// close as a failed write
func writeAndClose(w io.WriteCloser, format export.Format, result export.Result) error {
	defer w.Close()

	if err := export.Write(w, format, result); err != nil {
		return fmt.Errorf("writing heights: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing heights: %w", err)
	}
	return nil
}

// writeHeightmap renders the heights on their grid, captioned with the
// song title
func (c *SampleCmd) writeHeightmap(heights []float64, cols int) error {
	grid, err := heightfield.NewGrid(heights, cols)
	if err != nil {
		return err
	}

	opts := renderer.DefaultOptions()
	opts.Caption = audio.ReadMetadata(c.Input).Title
	if err := renderer.SaveHeightmap(c.Heightmap, grid, opts); err != nil {
		return fmt.Errorf("writing heightmap: %w", err)
	}
	return nil
}

// Run prints the properties of the input
func (c *InfoCmd) Run(g *Globals) error {
	log := g.Logger()

	s, err := audio.Open(c.Input)
	if err != nil {
		return err
	}
	defer s.Close()

	md := audio.ReadMetadata(c.Input)
	log.Debug("metadata", "title", md.Title, "artist", md.Artist, "album", md.Album)

	cli.PrintBanner()
	cli.PrintInfo("Title", md.Title)
	if md.Artist != "" {
		cli.PrintInfo("Artist", md.Artist)
	}
	if md.Album != "" {
		cli.PrintInfo("Album", md.Album)
	}

	cli.PrintSection("Audio")
	if fi, err := os.Stat(c.Input); err == nil {
		cli.PrintInfo("File size", cli.FormatBytes(fi.Size()))
	}
	cli.PrintInfo("Channels", strconv.Itoa(s.NumChannels()))
	cli.PrintInfo("Sample width", fmt.Sprintf("%d bytes", s.SampleWidth()))
	cli.PrintInfo("Sample size", fmt.Sprintf("%d bits", s.SampleSizeBits()))
	cli.PrintInfo("Frame rate", fmt.Sprintf("%d Hz", s.FrameRate()))
	cli.PrintInfo("Frames", strconv.FormatInt(s.NumFrames(), 10))
	cli.PrintInfo("Length", fmt.Sprintf("%.3fs (%s)", s.SongLength(), s.SongLengthTime()))
	cli.PrintInfo("Max amplitude", strconv.Itoa(s.MaxAmplitude()))

	bars, err := s.Spectrum(c.Bars)
	if err != nil {
		return err
	}
	cli.PrintSection("Spectrum")
	fmt.Println(cli.RenderProfile(bars, len(bars)))
	return nil
}
