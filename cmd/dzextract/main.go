package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/bodgit/dzextract"
	"github.com/bodgit/dzextract/catalog"
	"github.com/bodgit/dzextract/config"
	"github.com/bodgit/dzextract/container"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// appUsage prints the application help to standard error and returns an
// error that exits with status 1
func appUsage(c *cli.Context) error {
	c.App.Writer = c.App.ErrWriter
	cli.ShowAppHelp(c)
	return cli.NewExitError("", 1)
}

func commandUsage(c *cli.Context) error {
	c.App.Writer = c.App.ErrWriter
	cli.ShowCommandHelp(c, c.Command.Name)
	return cli.NewExitError("", 1)
}

func exitError(err error) error {
	if errors.Is(err, container.ErrUnsupported) {
		return cli.NewExitError(err, 2)
	}
	return cli.NewExitError(err, 1)
}

// setup builds the Extractor from the global flags. The returned function
// closes the catalog, if one was opened
func setup(c *cli.Context) (*dzextract.Extractor, func(), error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	var options []dzextract.Option
	if c.Bool("progress") {
		options = append(options, dzextract.WithProgress(os.Stderr))
	}
	if c.Bool("thumbnail") {
		options = append(options, dzextract.WithThumbnail())
	}

	closer := func() {}
	if db := c.String("db"); db != "" {
		cat, err := catalog.Open(db)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, dzextract.WithCatalog(cat))
		closer = func() { cat.Close() }
	}

	return dzextract.New(cfg, logger, options...), closer, nil
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "dzextract"
	app.Usage = "Convert pyramidal tiled TIFF channel files into a Deep Zoom pyramid"
	app.Version = "1.0.0"
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"DZEXTRACT_CONFIG"},
			Usage:   "path to YAML configuration",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"DZEXTRACT_DB"},
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "show a progress bar",
		},
		&cli.BoolFlag{
			Name:  "thumbnail",
			Usage: "write a thumbnail of the lowest level",
		},
	}

	app.ArgsUsage = "SOURCE-DIR DEST-DIR"
	app.Action = func(c *cli.Context) error {
		if c.NArg() < 2 || !isDir(c.Args().Get(0)) {
			return appUsage(c)
		}

		e, closer, err := setup(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer closer()

		if _, err := e.Extract(c.Args().Get(0), c.Args().Get(1)); err != nil {
			if errors.Is(err, dzextract.ErrNothingToDo) {
				fmt.Fprintln(c.App.Writer, "Nothing to do")
				return nil
			}
			return exitError(err)
		}

		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:        "batch",
			Usage:       "Convert every slide directory below a root",
			Description: "",
			ArgsUsage:   "SOURCE-ROOT DEST-ROOT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: dzextract.DefaultWorkers,
					Usage: "number of concurrent conversions",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 || !isDir(c.Args().Get(0)) {
					return commandUsage(c)
				}

				e, closer, err := setup(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := e.Batch(c.Args().Get(0), c.Args().Get(1), c.Int("workers")); err != nil {
					return exitError(err)
				}

				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List the conversions recorded in the catalog",
			Description: "",
			Action: func(c *cli.Context) error {
				if c.String("db") == "" {
					return commandUsage(c)
				}

				cat, err := catalog.Open(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer cat.Close()

				slides, err := cat.Slides()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, s := range slides {
					fmt.Fprintf(c.App.Writer, "%s\t%dx%d\t%d tiles\tlevels %d-%d\t%s\t%s\n", s.Name, s.Width, s.Height, s.Tiles, s.MinLevel, s.MaxLevel, s.Policy, s.Destination)
				}

				return nil
			},
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
