package display

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// DefaultOLEDAddress is the I2C address of the SSD1306 module.
const DefaultOLEDAddress = 0x3C

// Drawer is the part of an SSD1306 device the OLED display uses.
type Drawer interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// OLEDConfig describes the attached panel.
type OLEDConfig struct {
	// Bus is the I2C bus name ("" selects the first bus, "1" is /dev/i2c-1).
	Bus string

	Address uint16
	Width   int
	Height  int

	FontPath string
	FontSize float64
}

// OLED shows text on an SSD1306 panel.
type OLED struct {
	canvas *Canvas

	mu     sync.Mutex
	dev    Drawer
	closer io.Closer
}

var _ Display = (*OLED)(nil)

// NewOLED draws on dev through canvas.
func NewOLED(dev Drawer, canvas *Canvas) *OLED {
	return &OLED{dev: dev, canvas: canvas}
}

// OpenOLED initializes the host, opens the I2C bus and the panel.
func OpenOLED(cfg OLEDConfig) (*OLED, error) {
	if cfg.Address != 0 && cfg.Address != DefaultOLEDAddress {
		return nil, fmt.Errorf("display: ssd1306 driver supports address %#x only, got %#x", DefaultOLEDAddress, cfg.Address)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("display: open i2c bus %q: %w", cfg.Bus, err)
	}

	opts := ssd1306.DefaultOpts
	if cfg.Width > 0 {
		opts.W = cfg.Width
	}
	if cfg.Height > 0 {
		opts.H = cfg.Height
	}
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("display: open ssd1306: %w", err)
	}

	face, err := LoadFace(cfg.FontPath, cfg.FontSize)
	if err != nil {
		bus.Close()
		return nil, err
	}
	o := NewOLED(dev, NewCanvas(opts.W, opts.H, face))
	o.closer = bus
	return o, nil
}

func (o *OLED) draw(lines []string) error {
	img := o.canvas.Render(lines)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dev == nil {
		return errors.New("display: oled closed")
	}
	if err := o.dev.Draw(img.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("display: draw: %w", err)
	}
	return nil
}

func (o *OLED) ShowText(text string) error { return o.draw([]string{text}) }
func (o *OLED) ShowLines(lines ...string) error { return o.draw(lines) }
func (o *OLED) ShowMode(label, status string) error { return o.draw(ModeLines(label, status)) }
func (o *OLED) Clear() error { return o.draw(nil) }

// Close blanks and halts the panel and releases the bus.
func (o *OLED) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dev == nil {
		return nil
	}
	err := o.dev.Halt()
	o.dev = nil
	if o.closer != nil {
		err = errors.Join(err, o.closer.Close())
	}
	return err
}
