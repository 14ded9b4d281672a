// Command overlaydemo composites a few overlay surfaces into a PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/config"
	"github.com/gogpu/overlay/render"
)

func main() {
	var (
		width      = flag.Int("width", 800, "screen width")
		height     = flag.Int("height", 600, "screen height")
		output     = flag.String("output", "overlays.png", "output file")
		configPath = flag.String("config", "", "optional YAML config file")
		verbose    = flag.Bool("v", false, "log compositor activity")
	)
	flag.Parse()

	if *verbose {
		overlay.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var cfg *config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFromPath(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		*width = cfg.Screen.Width
		*height = cfg.Screen.Height
	}

	backend := "pixmap"
	if cfg != nil && cfg.Backend != "" {
		backend = cfg.Backend
	}

	reg := overlay.NewRegistry(
		overlay.WithScreenSize(*width, *height),
		overlay.WithBackend(backend),
	)
	defer reg.ShutdownAll()

	if cfg != nil {
		if err := applyConfig(reg, cfg); err != nil {
			log.Fatalf("Failed to apply config: %v", err)
		}
	} else {
		createDemoOverlays(reg, *width, *height)
	}

	paintOverlays(reg)

	dst := image.NewRGBA(image.Rect(0, 0, *width, *height))
	if err := reg.Composite(render.NewSoftwareDrawer(dst)); err != nil {
		log.Fatalf("Failed to composite: %v", err)
	}

	if err := savePNG(*output, dst); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Composited %d overlays to %s (%dx%d)\n", reg.Len(), *output, *width, *height)
}

func applyConfig(reg *overlay.Registry, cfg *config.Config) error {
	for _, o := range cfg.Overlays {
		err := reg.Create(o.ID, overlay.CreateParams{
			X:       o.X,
			Y:       o.Y,
			Width:   o.Width,
			Height:  o.Height,
			Hidden:  o.Hidden,
			Backend: o.Backend,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func createDemoOverlays(reg *overlay.Registry, w, h int) {
	must := func(id string, p overlay.CreateParams) {
		if err := reg.Create(id, p); err != nil {
			log.Fatalf("Failed to create %s: %v", id, err)
		}
	}

	must("background", overlay.CreateParams{Width: w, Height: h})
	must("hud", overlay.CreateParams{X: 20, Y: 20, Width: w - 40, Height: 80})
	must("chat", overlay.CreateParams{X: 20, Y: h - 260, Width: 320, Height: 240})
	must("tooltip", overlay.CreateParams{X: w/2 - 100, Y: h/2 - 40, Width: 200, Height: 80})

	// The tooltip was created last so it draws on top; pull the chat
	// panel above the background anyway.
	reg.BringToFront("chat")
	reg.BringToFront("tooltip")
}

var palette = []color.RGBA{
	{R: 30, G: 34, B: 42, A: 230},
	{R: 66, G: 135, B: 245, A: 200},
	{R: 52, G: 168, B: 83, A: 200},
	{R: 251, G: 188, B: 4, A: 220},
	{R: 234, G: 67, B: 53, A: 220},
}

func paintOverlays(reg *overlay.Registry) {
	for i, d := range reg.Drawables() {
		pix, ok := d.Target.(*render.PixmapTarget)
		if !ok {
			continue
		}
		c := palette[i%len(palette)]
		pix.Fill(c)
		drawBorder(pix.Image(), color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
}

func drawBorder(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetRGBA(x, b.Min.Y, c)
		img.SetRGBA(x, b.Max.Y-1, c)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(b.Min.X, y, c)
		img.SetRGBA(b.Max.X-1, y, c)
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
