package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ironsheep/starfinder-mcp/internal/config"
	"github.com/ironsheep/starfinder-mcp/internal/imaging"
	"github.com/ironsheep/starfinder-mcp/internal/server"
	"github.com/ironsheep/starfinder-mcp/internal/web"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("starfinder-mcp - interactive star finder for FITS images")
	fmt.Println()
	fmt.Println("Usage: starfinder-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println("  --config PATH      YAML configuration file")
	fmt.Println("  --image PATH       FITS image shown by the web viewer")
	fmt.Println("  --http ADDR        Serve the web viewer on ADDR (e.g. :8080)")
	fmt.Println("  --demo             Use a generated star field as the image")
	fmt.Println("  --write-config PATH  Write the effective configuration and exit")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  STARFINDER_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println("  STARFINDER_IMAGE, STARFINDER_HTTP_ADDR, STARFINDER_UNIT, ...")
	fmt.Println("  Variables may also be set in ./.env")
	fmt.Println()
	fmt.Println("The MCP server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("starfinder-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	fs := flag.NewFlagSet("starfinder-mcp", flag.ExitOnError)
	fs.Usage = usage
	configPath := fs.String("config", "", "YAML configuration file")
	imagePath := fs.String("image", "", "FITS image shown by the web viewer")
	httpAddr := fs.String("http", "", "web viewer listen address")
	demo := fs.Bool("demo", false, "use a generated star field")
	writeConfig := fs.String("write-config", "", "write the effective configuration to a YAML file and exit")
	fs.Parse(os.Args[1:])

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *imagePath != "" {
		cfg.Image = *imagePath
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if *demo {
		path, err := writeDemoField()
		if err != nil {
			log.Fatalf("Demo error: %v", err)
		}
		cfg.Image = path
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *writeConfig != "" {
		if err := config.SaveConfig(cfg, *writeConfig); err != nil {
			log.Fatalf("Config error: %v", err)
		}
		log.Printf("Configuration written to %s", *writeConfig)
		return
	}

	if cfg.Debug() {
		log.Printf("Starfinder MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	server.Version = Version
	srv := server.New(cfg)

	httpErr := make(chan error, 1)
	if cfg.HTTP.Addr != "" {
		if cfg.Image == "" {
			log.Fatalf("The web viewer needs an image: pass --image, --demo or set STARFINDER_IMAGE")
		}
		sess, err := srv.Session(cfg.Image)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", cfg.Image, err)
		}
		viewer := web.New(sess, cfg.Debug())
		defer viewer.Close()

		log.Printf("Web viewer for %s listening on %s", cfg.Image, cfg.HTTP.Addr)
		go func() {
			httpErr <- http.ListenAndServe(cfg.HTTP.Addr, viewer.Handler(os.Stderr))
		}()
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	// Keep the viewer up after the MCP client goes away
	if cfg.HTTP.Addr != "" {
		if err := <-httpErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}
}

// writeDemoField saves a generated star field to the temp directory and
// returns its path.
func writeDemoField() (string, error) {
	img := imaging.SyntheticField(imaging.FieldOptions{
		Width:      256,
		Height:     256,
		Background: 500,
		Noise:      12,
		Seed:       1,
		Unit:       imaging.DefaultUnit,
		Stars: []imaging.Star{
			{X: 40.3, Y: 52.8, Amplitude: 4200, FWHM: 3},
			{X: 71.6, Y: 190.2, Amplitude: 1800, FWHM: 3},
			{X: 128.4, Y: 127.7, Amplitude: 6500, FWHM: 3.2},
			{X: 160.9, Y: 33.1, Amplitude: 900, FWHM: 2.8},
			{X: 201.2, Y: 220.6, Amplitude: 2600, FWHM: 3},
			{X: 222.7, Y: 98.4, Amplitude: 350, FWHM: 3},
			{X: 95.1, Y: 101.9, Amplitude: 1200, FWHM: 3.1},
			{X: 18.8, Y: 231.5, Amplitude: 3100, FWHM: 2.9},
		},
	})
	path := filepath.Join(os.TempDir(), "starfinder-demo.fits")
	if err := imaging.SaveFITS(path, img); err != nil {
		return "", err
	}
	return path, nil
}
