package mdconvert

import (
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
	"golang.org/x/net/html"
)

/*
Conversion Rules
- The fragment is sanitized before conversion; scripts, styles and event
  attributes never reach the output
- Paragraphs, emphasis, lists, quotes and line breaks map to CommonMark
- Relative links are made absolute against the catalog base URL
- DOM order preserved

An empty fragment converts to an empty string, not an error.
*/

// ConvertRule turns a catalog-authored HTML fragment (a work summary) into
// Markdown.
type ConvertRule interface {
	Convert(fragment *html.Node) (ConversionResult, failure.ClassifiedError)
}

// Compile-time interface check
var _ ConvertRule = (*StrictConversionRule)(nil)

type StrictConversionRule struct {
	metadataSink metadata.MetadataSink
	policy       *bluemonday.Policy
	baseURL      url.URL
	conv         *converter.Converter
}

func NewRule(metadataSink metadata.MetadataSink, baseURL url.URL) *StrictConversionRule {
	return &StrictConversionRule{
		metadataSink: metadataSink,
		policy:       bluemonday.UGCPolicy(),
		baseURL:      baseURL,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

func (s *StrictConversionRule) Convert(
	fragment *html.Node,
) (ConversionResult, failure.ClassifiedError) {
	result, err := s.convert(fragment)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"StrictConversionRule.Convert",
			mapConversionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessage, err.Message),
			},
		)
		return ConversionResult{}, err
	}
	return result, nil
}

func (s *StrictConversionRule) convert(fragment *html.Node) (ConversionResult, *ConversionError) {
	if fragment == nil {
		return ConversionResult{}, &ConversionError{
			Message:   "cannot convert nil HTML node",
			Retryable: false,
			Cause:     ErrCauseNilFragment,
		}
	}

	inner, err := goquery.NewDocumentFromNode(fragment).Html()
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	sanitized := s.policy.Sanitize(inner)
	if strings.TrimSpace(sanitized) == "" {
		return NewConversionResult(""), nil
	}

	markdown, err := s.conv.ConvertString(sanitized, converter.WithDomain(s.baseURL.String()))
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	return NewConversionResult(strings.TrimSpace(markdown)), nil
}
