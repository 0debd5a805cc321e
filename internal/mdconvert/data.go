package mdconvert

// Representation

type ConversionResult struct {
	markdownContent string
}

func NewConversionResult(markdownContent string) ConversionResult {
	return ConversionResult{
		markdownContent: markdownContent,
	}
}

func (c *ConversionResult) GetMarkdownContent() string {
	return c.markdownContent
}
