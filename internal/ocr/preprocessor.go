package ocr

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// Preprocessor cleans up scanned pages before they reach a vision
// provider. Field scans of settlements arrive photographed on truck
// dashboards and fax-quality faxes, so contrast and sharpening buy
// real accuracy downstream.
type Preprocessor struct{}

// NewPreprocessor creates an image preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Enhance applies the standard cleanup pipeline via ImageMagick:
// resize, grayscale, normalize, contrast, denoise, sharpen. On any
// failure the original bytes come back untouched so a missing
// ImageMagick never blocks processing.
func (p *Preprocessor) Enhance(imageData []byte) []byte {
	out, err := p.run(imageData, []string{
		"-resize", "2000x2000>",
		"-colorspace", "Gray",
		"-normalize",
		"-contrast-stretch", "2%x1%",
		"-despeckle",
		"-sharpen", "0x1",
		"-unsharp", "0x0.5+0.5+0",
		"-quality", "95",
	})
	if err != nil {
		log.Printf("[Preprocessor] ImageMagick failed, using original image: %v", err)
		return imageData
	}
	return out
}

// EnhanceDotMatrix applies a heavier pipeline for dot-matrix printed
// settlements, where digits break apart under light sharpening.
func (p *Preprocessor) EnhanceDotMatrix(imageData []byte) []byte {
	out, err := p.run(imageData, []string{
		"-resize", "2500x2500>",
		"-colorspace", "Gray",
		"-lat", "50x50+10%",
		"-contrast-stretch", "5%x2%",
		"-despeckle",
		"-despeckle",
		"-sharpen", "0x2",
		"-quality", "95",
	})
	if err != nil {
		return p.Enhance(imageData)
	}
	return out
}

func (p *Preprocessor) run(imageData []byte, args []string) ([]byte, error) {
	tmpDir := os.TempDir()
	id := uuid.New().String()
	inputFile := filepath.Join(tmpDir, fmt.Sprintf("scan_in_%s.jpg", id))
	outputFile := filepath.Join(tmpDir, fmt.Sprintf("scan_out_%s.jpg", id))

	if err := os.WriteFile(inputFile, imageData, 0644); err != nil {
		return nil, err
	}
	defer os.Remove(inputFile)
	defer os.Remove(outputFile)

	cmdArgs := append([]string{inputFile}, args...)
	cmdArgs = append(cmdArgs, outputFile)

	// 'magick' on ImageMagick 7, 'convert' on 6
	var cmd *exec.Cmd
	if _, err := exec.LookPath("magick"); err == nil {
		cmd = exec.Command("magick", cmdArgs...)
	} else {
		cmd = exec.Command("convert", cmdArgs...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, stderr.String())
	}

	return os.ReadFile(outputFile)
}
