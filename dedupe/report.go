package dedupe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const reportSkeleton = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Key merge preview</title></head>
<body>
<h1>Key merge preview</h1>
<ul id="summary"></ul>
<table id="groups">
<thead><tr><th>Value</th><th>Canonical key</th><th>Discarded keys</th><th>References</th></tr></thead>
<tbody></tbody>
</table>
<div id="files"></div>
</body>
</html>`

// RenderHTML renders plan as a standalone HTML page.
func RenderHTML(plan *Plan, lang string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(reportSkeleton))
	if err != nil {
		return "", fmt.Errorf("parsing report skeleton: %w", err)
	}

	if lang != "" {
		doc.Find("html").SetAttr("lang", lang)
	}

	summary := doc.Find("#summary")
	for _, item := range []struct {
		label string
		value int
	}{
		{"Groups", plan.Summary.Groups},
		{"Keys saved", plan.Summary.KeysSaved},
		{"Files affected", plan.Summary.FilesAffected},
		{"References", plan.Summary.Occurrences},
	} {
		summary.AppendHtml("<li></li>")
		summary.Find("li").Last().SetText(item.label + ": " + strconv.Itoa(item.value))
	}

	body := doc.Find("#groups tbody")
	for _, g := range plan.Groups {
		body.AppendHtml("<tr><td></td><td></td><td></td><td></td></tr>")
		cells := body.Find("tr").Last().Find("td")
		cells.Eq(0).SetText(g.Value)
		cells.Eq(1).SetText(g.Canonical)
		cells.Eq(2).SetText(strings.Join(g.Discarded, ", "))
		cells.Eq(3).SetText(strconv.Itoa(g.Occurrences))
	}

	files := doc.Find("#files")
	for _, f := range plan.Files {
		files.AppendHtml(`<section class="file"><h2></h2><ul></ul></section>`)
		section := files.Find("section.file").Last()
		section.Find("h2").SetText(f.File)
		list := section.Find("ul")
		for _, o := range f.Occurrences {
			list.AppendHtml(`<li><span class="line"></span> <code></code> <span class="change"></span></li>`)
			li := list.Find("li").Last()
			li.Find(".line").SetText(strconv.Itoa(o.Line))
			li.Find("code").SetText(o.Context)
			li.Find(".change").SetText(o.OldKey + " → " + o.NewKey)
		}
	}

	return doc.Html()
}
