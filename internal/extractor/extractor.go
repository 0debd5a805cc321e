package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/mdconvert"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
	"github.com/rohmanhakim/fic-roulette/pkg/urlutil"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse a search results page into a DOM tree
- Read the results heading: "0 Found" or "of N Works"
- Turn every work blurb into a catalog.Item

Blurb Rules
- The title link is the first link in the blurb heading and must point at
  /works/<digits>; series, user and external links are skipped
- Authors are every rel=author link in the heading, joined by ", "
- Rating comes from the required tags, words from the stats list with
  thousands separators removed
- The summary, when present, is converted to Markdown

A page with neither a heading count nor a single blurb is not a results page.
*/

var (
	totalWorksPattern = regexp.MustCompile(`of\s+([0-9,]+)\s+Works`)
	zeroFoundPattern  = regexp.MustCompile(`(?:^|[^0-9,])` + regexp.QuoteMeta(zeroFoundMarker))
	workPathPattern   = regexp.MustCompile(`/works/([0-9]+)$`)
)

type PageExtractor struct {
	metadataSink metadata.MetadataSink
	summaryRule  mdconvert.ConvertRule
	baseURL      url.URL
}

func NewPageExtractor(
	metadataSink metadata.MetadataSink,
	summaryRule mdconvert.ConvertRule,
	baseURL url.URL,
) *PageExtractor {
	return &PageExtractor{
		metadataSink: metadataSink,
		summaryRule:  summaryRule,
		baseURL:      baseURL,
	}
}

func (p *PageExtractor) Extract(
	sourceUrl url.URL,
	body []byte,
) (PageData, failure.ClassifiedError) {
	data, err := p.extract(body)
	if err != nil {
		p.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"PageExtractor.Extract",
			mapExtractionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
				metadata.NewAttr(metadata.AttrMessage, err.Message),
			},
		)
		return PageData{}, err
	}
	return data, nil
}

func (p *PageExtractor) extract(body []byte) (PageData, *ExtractionError) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return PageData{}, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseUnparseable,
		}
	}
	doc := goquery.NewDocumentFromNode(root)

	var data PageData
	if countErr := readHeading(doc, &data); countErr != nil {
		return PageData{}, countErr
	}

	doc.Find(selectorBlurb).Each(func(i int, blurb *goquery.Selection) {
		item, ok := p.parseBlurb(blurb)
		if !ok {
			data.Skipped++
			return
		}
		data.Items = append(data.Items, item)
	})

	if !data.HasMarkers() {
		return PageData{}, &ExtractionError{
			Message:   fmt.Sprintf("no results heading and %d unusable blurbs", data.Skipped),
			Retryable: false,
			Cause:     ErrCauseNotAResultsPage,
		}
	}
	return data, nil
}

// readHeading scans the results headings for the zero marker or the total
// count. The first heading that says either wins.
func readHeading(doc *goquery.Document, data *PageData) *ExtractionError {
	var countErr *ExtractionError
	doc.Find(selectorResultsHeading).EachWithBreak(func(i int, heading *goquery.Selection) bool {
		text := strings.TrimSpace(heading.Text())
		if zeroFoundPattern.MatchString(text) {
			data.ZeroFound = true
			data.HasTotal = true
			data.TotalResults = 0
			return false
		}
		match := totalWorksPattern.FindStringSubmatch(text)
		if match == nil {
			return true
		}
		total, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
		if err != nil {
			countErr = &ExtractionError{
				Message:   fmt.Sprintf("count %q: %v", match[1], err),
				Retryable: false,
				Cause:     ErrCauseInvalidCount,
			}
			return false
		}
		data.HasTotal = true
		data.TotalResults = total
		data.ZeroFound = total == 0
		return false
	})
	return countErr
}

func (p *PageExtractor) parseBlurb(blurb *goquery.Selection) (catalog.Item, bool) {
	heading := blurb.Find(selectorBlurbHeading).First()
	if heading.Length() == 0 {
		return catalog.Item{}, false
	}

	link := heading.Find(selectorTitleLink).First()
	href, exists := link.Attr("href")
	if !exists {
		return catalog.Item{}, false
	}
	workURL, ok := p.workURL(href)
	if !ok {
		return catalog.Item{}, false
	}

	var authors []string
	heading.Find(selectorAuthor).Each(func(i int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	item := catalog.Item{
		Title:     strings.TrimSpace(link.Text()),
		Author:    strings.Join(authors, ", "),
		URL:       workURL.String(),
		Rating:    strings.TrimSpace(blurb.Find(selectorRating).First().Text()),
		WordCount: strings.TrimSpace(strings.ReplaceAll(blurb.Find(selectorWords).First().Text(), ",", "")),
		Summary:   p.summary(blurb),
	}
	return item.WithDefaults(), true
}

// summary converts the blurb's summary to Markdown. A summary that fails to
// convert is dropped; the work itself is still usable.
func (p *PageExtractor) summary(blurb *goquery.Selection) string {
	node := blurb.Find(selectorSummary).First()
	if node.Length() == 0 || p.summaryRule == nil {
		return ""
	}
	result, err := p.summaryRule.Convert(node.Get(0))
	if err != nil {
		return ""
	}
	return result.GetMarkdownContent()
}

// workURL resolves href against the catalog and keeps it only when it names
// a work on the catalog's own host. Query and fragment are dropped.
func (p *PageExtractor) workURL(href string) (url.URL, bool) {
	resolved, err := urlutil.Resolve(p.baseURL, strings.TrimSpace(href))
	if err != nil {
		return url.URL{}, false
	}
	base := urlutil.Canonicalize(p.baseURL)
	if resolved.Host != base.Host {
		return url.URL{}, false
	}
	match := workPathPattern.FindStringSubmatch(resolved.Path)
	if match == nil {
		return url.URL{}, false
	}

	workURL := base
	workURL.Path = "/works/" + match[1]
	workURL.RawPath = ""
	workURL.RawQuery = ""
	return workURL, true
}
