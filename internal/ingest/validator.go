package ingest

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"slidedeck/internal/model"
)

// MaxUploadBytes is the default request body cap.
const MaxUploadBytes int64 = 16 << 20

// Validator checks a stored upload before it enters the pipeline.
type Validator struct {
	maxBytes  int64
	strictPDF bool
	pdfConf   *pdfmodel.Configuration
}

// NewValidator returns a validator capping files at maxBytes (MaxUploadBytes
// when <= 0). With strictPDF, PDFs must also pass structural validation.
func NewValidator(maxBytes int64, strictPDF bool) *Validator {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	v := &Validator{maxBytes: maxBytes, strictPDF: strictPDF}
	if strictPDF {
		api.DisableConfigDir()
		conf := pdfmodel.NewDefaultConfiguration()
		conf.ValidationMode = pdfmodel.ValidationRelaxed
		v.pdfConf = conf
	}
	return v
}

func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

func (v *Validator) Validate(path, extension string) error {
	fileType, ok := model.ParseFileType(extension)
	if !ok {
		return model.UnsupportedFile(extension)
	}

	info, err := os.Stat(path)
	if err != nil {
		return model.Parsing("file not found: "+path, nil)
	}
	if info.Size() > v.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", model.ErrFileTooLarge, info.Size(), v.maxBytes)
	}
	if info.Size() == 0 {
		return model.Parsing("empty file", nil)
	}

	if fileType == model.FileTypePDF && v.strictPDF {
		if err := api.ValidateFile(path, v.pdfConf); err != nil {
			return model.Parsing("invalid pdf structure", err)
		}
	}
	return nil
}
