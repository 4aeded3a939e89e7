package blog

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"time"

	"github.com/vango-dev/meridian/pkg/endpoint"
	"github.com/vango-dev/meridian/pkg/result"
)

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Link  string    `xml:"link"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

var feed = endpoint.MustNew("feed.xml.go", endpoint.Module{
	"get": func(c *endpoint.Context) (any, error) {
		site := c.Site
		if site == nil {
			site = &url.URL{Scheme: "http", Host: c.Request.Host}
		}

		doc := rss{Version: "2.0", Channel: rssChannel{Title: "Meridian blog", Link: site.String()}}
		for _, p := range Posts {
			doc.Channel.Items = append(doc.Channel.Items, rssItem{
				Title:       p.Title,
				Link:        site.JoinPath("blog", p.Slug).String(),
				Description: p.Summary,
				PubDate:     p.Date.Format(time.RFC1123Z),
			})
		}

		out, err := xml.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return xml.Header + string(out), nil
	},
})

var postJSON = endpoint.MustNew("posts/[slug].json.go", endpoint.Module{
	"get": func(c *endpoint.Context) (any, error) {
		if p, ok := c.Props["post"].(Post); ok {
			return p, nil
		}
		p, ok := Find(c.Params["slug"])
		if !ok {
			return result.Text(http.StatusNotFound, "no such post"), nil
		}
		return p, nil
	},
})
