package harvest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bluehands/internal/fetcher"
)

// Page is one decoded page of listing results.
type Page struct {
	TotalCount int
	Items      []Item
}

// Source returns one page of listings for a region. Pages are 1-based.
type Source interface {
	ListPage(ctx context.Context, region Region, page int) (*Page, error)
}

// HTTPSource queries the service-network list endpoint through a fetcher.
type HTTPSource struct {
	fetcher fetcher.Fetcher
	url     string
	header  http.Header
}

// NewHTTPSource creates a source for the endpoint at rawURL. The referer is
// sent with every request since the endpoint rejects requests without one.
func NewHTTPSource(f fetcher.Fetcher, rawURL, referer string) *HTTPSource {
	h := http.Header{}
	h.Set("X-Requested-With", "XMLHttpRequest")
	if referer != "" {
		h.Set("Referer", referer)
	}
	return &HTTPSource{fetcher: f, url: rawURL, header: h}
}

type listResponse struct {
	Data struct {
		TotalCount json.Number `json:"totalCount"`
		Result     []Item      `json:"result"`
	} `json:"data"`
}

// PageForm builds the form body for one page of a region.
func PageForm(region Region, page int) url.Values {
	return url.Values{
		"pageNo":                  {strconv.Itoa(page)},
		"searchWord":              {""},
		"snGubunListSearch":       {""},
		"selectBoxCity":           {region.Name},
		"selectBoxCitySearch":     {region.Name},
		"selectBoxTownShipSearch": {""},
		"asnCd":                   {""},
	}
}

// ListPage implements Source.
func (s *HTTPSource) ListPage(ctx context.Context, region Region, page int) (*Page, error) {
	body, err := s.fetcher.PostForm(ctx, s.url, PageForm(region, page), s.header)
	if err != nil {
		return nil, eris.Wrapf(err, "harvest: request %s page %d", region.Alias, page)
	}
	defer body.Close() //nolint:errcheck

	var resp listResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, eris.Wrapf(err, "harvest: decode %s page %d", region.Alias, page)
	}

	total := 0
	if resp.Data.TotalCount != "" {
		n, err := resp.Data.TotalCount.Int64()
		if err != nil {
			f, ferr := resp.Data.TotalCount.Float64()
			if ferr != nil {
				return nil, eris.Wrapf(err, "harvest: parse totalCount %q", resp.Data.TotalCount)
			}
			n = int64(f)
		}
		total = int(n)
	}

	return &Page{TotalCount: total, Items: resp.Data.Result}, nil
}
