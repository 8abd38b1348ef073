package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DocumentInfo summarizes a document's structure as seen by pdfcpu
type DocumentInfo struct {
	Pages     int    `json:"pages"`
	Version   string `json:"version,omitempty"`
	Encrypted bool   `json:"encrypted"`
	Size      int64  `json:"size"`
}

// Inspector reads document structure with pdfcpu in relaxed validation mode
type Inspector struct {
	conf *model.Configuration
}

// NewInspector creates an inspector with pdfcpu's default configuration
func NewInspector() *Inspector {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Inspector{conf: conf}
}

// Inspect returns page count, header version and encryption state
func (i *Inspector) Inspect(data []byte) (*DocumentInfo, error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), i.conf)
	if err != nil {
		// pdfcpu refuses documents it cannot decrypt with an empty user password
		if strings.Contains(strings.ToLower(err.Error()), "password") {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	info := &DocumentInfo{
		Pages:     ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
		Size:      int64(len(data)),
	}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}
	return info, nil
}
