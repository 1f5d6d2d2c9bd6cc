package docling

// conversionOptions is the options document sent with every submission.
// The values match the pipeline configuration the service is deployed
// with; changing them here without changing the deployment produces
// inconsistent OCR results.
type conversionOptions struct {
	PdfBackend      string          `json:"pdf_backend"`
	Pipeline        string          `json:"pipeline"`
	PipelineOptions pipelineOptions `json:"pipeline_options"`
}

type pipelineOptions struct {
	DoOcr      bool       `json:"do_ocr"`
	OcrOptions ocrOptions `json:"ocr_options"`
	PdfOptions pdfOptions `json:"pdf_options"`
}

type ocrOptions struct {
	Kind             string   `json:"kind"`
	Lang             []string `json:"lang"`
	Dpi              int      `json:"dpi"`
	ForceFullPageOcr bool     `json:"force_full_page_ocr"`
}

type pdfOptions struct {
	ExtractImages bool `json:"extract_images"`
	ProcessImages bool `json:"process_images"`
}

func defaultConversionOptions() conversionOptions {
	return conversionOptions{
		PdfBackend: "dlparse_v4",
		Pipeline:   "standard",
		PipelineOptions: pipelineOptions{
			DoOcr: true,
			OcrOptions: ocrOptions{
				Kind:             "TESSERACT",
				Lang:             []string{"eng"},
				Dpi:              300,
				ForceFullPageOcr: true,
			},
			PdfOptions: pdfOptions{
				ExtractImages: true,
				ProcessImages: true,
			},
		},
	}
}
