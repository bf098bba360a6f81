package personalize

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	ledongpdf "github.com/ledongthuc/pdf"

	"schoolpress-backend/internal/shared/config"
	"schoolpress-backend/internal/shared/telemetry"
)

const (
	mmToPt = 72.0 / 25.4

	headerPadPt       = 10.0
	logoGapPt         = 8.0
	nameFontSize      = 14.0
	watermarkFontSize = 48.0
	watermarkAngle    = 45.0
)

// Engine overlays a header band and diagonal watermark onto a canonical
// worksheet PDF. The source file is never mutated; output is a fresh
// document with every original page imported underneath the overlay.
type Engine struct {
	Cfg config.Personalization
}

// NewEngine constructs an Engine.
func NewEngine(cfg config.Personalization) *Engine {
	return &Engine{Cfg: cfg}
}

type logoImage struct {
	name    string
	imgType string
	width   float64
	height  float64
	data    []byte
}

// Personalize renders the branded copy of the PDF at canonicalPath and
// returns its bytes. Logo problems degrade to "no logo"; any other
// failure propagates so the caller can fall back to the original file.
func (e *Engine) Personalize(canonicalPath string, branding Branding) (out []byte, err error) {
	// The import layer panics on some malformed inputs; surface those as
	// ordinary errors so the orchestrator's fallback applies.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("personalize %s: %v", filepath.Base(canonicalPath), rec)
		}
	}()

	totalPages, err := countPages(canonicalPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(canonicalPath), err)
	}
	if totalPages == 0 {
		return os.ReadFile(canonicalPath)
	}

	// MaxPages is a cost ceiling: a value of zero or less brands nothing.
	pagesToProcess := e.Cfg.MaxPages
	if pagesToProcess < 0 {
		pagesToProcess = 0
	}
	if pagesToProcess > totalPages {
		pagesToProcess = totalPages
	}

	schoolName := branding.SchoolName
	if schoolName == "" {
		schoolName = e.Cfg.DefaultSchoolName
	}

	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	translate := doc.UnicodeTranslatorFromDescriptor("")

	logo := e.embedLogo(doc, branding.LogoPath)

	importer := gofpdi.NewImporter()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		tplID := importer.ImportPage(doc, canonicalPath, pageNum, "/MediaBox")
		pageW, pageH := templateSize(importer, pageNum)

		doc.AddPageFormat("P", gofpdf.SizeType{Wd: pageW, Ht: pageH})
		importer.UseImportedTemplate(doc, tplID, 0, 0, pageW, pageH)

		if pageNum <= pagesToProcess {
			e.drawHeader(doc, translate, pageW, logo, schoolName)
			e.drawWatermark(doc, translate, pageW, pageH, schoolName, branding.Opacity)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", filepath.Base(canonicalPath), err)
	}
	return buf.Bytes(), nil
}

// drawHeader paints the band background, the navy border outlining it,
// and the accent rule beneath it, then the logo, school name and divider.
// Later draws sit on top, so the order here is load-bearing.
func (e *Engine) drawHeader(doc *gofpdf.Fpdf, translate func(string) string, pageW float64, logo *logoImage, schoolName string) {
	headerH := e.Cfg.HeaderHeightMm * mmToPt

	doc.SetFillColor(248, 249, 252)
	doc.Rect(0, 0, pageW, headerH, "F")

	doc.SetDrawColor(20, 33, 61)
	doc.SetLineWidth(1.2)
	doc.Rect(0, 0, pageW, headerH, "D")

	doc.SetDrawColor(231, 111, 81)
	doc.SetLineWidth(1.6)
	doc.Line(0, headerH+2, pageW, headerH+2)

	textX := headerPadPt
	if logo != nil {
		logoW, logoH := e.fitLogo(logo)
		doc.ImageOptions(logo.name, headerPadPt, (headerH-logoH)/2, logoW, logoH, false,
			gofpdf.ImageOptions{ImageType: logo.imgType, ReadDpi: false}, 0, "")
		textX = headerPadPt + logoW + logoGapPt
	}

	doc.SetFont("Helvetica", "B", nameFontSize)
	doc.SetTextColor(20, 33, 61)
	name := translate(schoolName)
	nameY := headerH/2 + nameFontSize*0.35
	if logo != nil {
		doc.Text(textX, nameY, name)
	} else {
		doc.Text((pageW-doc.GetStringWidth(name))/2, nameY, name)
	}

	doc.SetDrawColor(20, 33, 61)
	doc.SetLineWidth(0.4)
	doc.Line(textX, headerH-4, pageW-headerPadPt, headerH-4)
}

// drawWatermark stamps the school name diagonally across the page body
// below the header band.
func (e *Engine) drawWatermark(doc *gofpdf.Fpdf, translate func(string) string, pageW, pageH float64, schoolName string, opacity float64) {
	headerH := e.Cfg.HeaderHeightMm * mmToPt
	centerX := pageW / 2
	centerY := headerH + (pageH-headerH)/2

	doc.SetFont("Helvetica", "B", watermarkFontSize)
	doc.SetTextColor(110, 120, 140)
	doc.SetAlpha(opacity, "Normal")

	name := translate(schoolName)
	doc.TransformBegin()
	doc.TransformRotate(watermarkAngle, centerX, centerY)
	doc.Text(centerX-doc.GetStringWidth(name)/2, centerY+watermarkFontSize*0.35, name)
	doc.TransformEnd()

	doc.SetAlpha(1, "Normal")
}

// embedLogo probes and registers the logo image. Extension picks the
// first decode attempt; the other format is tried on failure. Returns
// nil, with a log line, when the image cannot be used.
func (e *Engine) embedLogo(doc *gofpdf.Fpdf, logoPath string) *logoImage {
	if logoPath == "" {
		return nil
	}

	data, err := os.ReadFile(logoPath)
	if err != nil {
		telemetry.Warn("personalize.logo_unreadable", map[string]any{
			"logo":  filepath.Base(logoPath),
			"error": err.Error(),
		})
		return nil
	}

	order := []string{"PNG", "JPEG"}
	if ext := strings.ToLower(filepath.Ext(logoPath)); ext == ".jpg" || ext == ".jpeg" {
		order = []string{"JPEG", "PNG"}
	}

	for _, imgType := range order {
		var width, height int
		var decodeErr error
		switch imgType {
		case "PNG":
			cfg, err := png.DecodeConfig(bytes.NewReader(data))
			width, height, decodeErr = cfg.Width, cfg.Height, err
		default:
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
			width, height, decodeErr = cfg.Width, cfg.Height, err
		}
		if decodeErr != nil || width <= 0 || height <= 0 {
			continue
		}

		logo := &logoImage{
			name:    "branding-logo",
			imgType: imgType,
			width:   float64(width),
			height:  float64(height),
			data:    data,
		}
		opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: false}

		// gofpdf's image parser can panic or error on data that passed the
		// config probe, and its error state is sticky. Register on a
		// scratch document first so a bad logo never poisons the real one.
		if regErr := registerScratch(logo.name, opts, data); regErr != nil {
			telemetry.Warn("personalize.logo_unusable", map[string]any{
				"logo":  filepath.Base(logoPath),
				"type":  imgType,
				"error": regErr.Error(),
			})
			continue
		}

		doc.RegisterImageOptionsReader(logo.name, opts, bytes.NewReader(data))
		return logo
	}

	telemetry.Warn("personalize.logo_unsupported", map[string]any{
		"logo": filepath.Base(logoPath),
	})
	return nil
}

// registerScratch runs gofpdf's full image parse on a throwaway document,
// converting panics to errors.
func registerScratch(name string, opts gofpdf.ImageOptions, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse image: %v", rec)
		}
	}()
	scratch := gofpdf.New("P", "pt", "A4", "")
	scratch.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if scratch.Err() {
		return scratch.Error()
	}
	return nil
}

// fitLogo scales the logo to the configured max height, aspect
// preserved, with width capped at twice the height bound.
func (e *Engine) fitLogo(logo *logoImage) (w, h float64) {
	maxH := e.Cfg.LogoMaxHeightMm * mmToPt
	maxW := 2 * maxH

	scale := maxH / logo.height
	if logo.width*scale > maxW {
		scale = maxW / logo.width
	}
	return logo.width * scale, logo.height * scale
}

func countPages(path string) (int, error) {
	f, reader, err := ledongpdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return reader.NumPage(), nil
}

func templateSize(importer *gofpdi.Importer, pageNum int) (w, h float64) {
	// A4 fallback keeps rendering alive when the media box is missing.
	w, h = 595.28, 841.89
	sizes := importer.GetPageSizes()
	if dims, ok := sizes[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			if mb["w"] > 0 && mb["h"] > 0 {
				w, h = mb["w"], mb["h"]
			}
		}
	}
	return w, h
}
