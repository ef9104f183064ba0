package render

// Page templates. Kept inline: the site chrome is deliberately small and
// versioning a template directory for two templates buys nothing.

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} &mdash; {{.SiteTitle}}</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.55; }
pre { padding: 0.75rem; overflow-x: auto; }
pre.literal { background: #f4f4f4; }
code { background: #f4f4f4; padding: 0.1rem 0.25rem; }
figure.code { margin: 1rem 0; }
figcaption { font-style: italic; margin-bottom: 0.25rem; }
img { max-width: 100%; }
.admonition { border-left: 4px solid #888; padding: 0.5rem 1rem; margin: 1rem 0; background: #fafafa; }
.admonition.warning, .admonition.important { border-color: #c0392b; }
.admonition.note, .admonition.tip { border-color: #2980b9; }
.admonition-title { font-weight: bold; margin: 0 0 0.25rem; }
</style>
</head>
<body>
<nav><a href="{{.Home}}">{{.SiteTitle}}</a></nav>
{{range .Doc.Preamble}}{{node .}}{{end}}
{{range .Doc.Sections}}{{template "section" .}}{{end}}
</body>
</html>
{{end}}

{{define "section"}}<section id="{{.Anchor}}">
{{range .Aliases}}<span id="{{.}}"></span>{{end}}{{heading .Depth .Title}}
{{range .Nodes}}{{node .}}{{end}}
{{range .Sections}}{{template "section" .}}{{end}}
</section>
{{end}}`

const indexTemplate = `{{define "index"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.SiteTitle}}</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.55; }
ul.outline { list-style: none; padding-left: 1rem; }
</style>
</head>
<body>
<h1>{{.SiteTitle}}</h1>
<ul class="outline">
{{range .Documents}}{{$doc := .}}<li><a href="{{call $.PagePath $doc.Path}}">{{if $doc.Title}}{{$doc.Title}}{{else}}{{$doc.Path}}{{end}}</a>
{{if $doc.Sections}}<ul class="outline">
{{range $doc.Sections}}<li><a href="{{call $.PagePath $doc.Path}}#{{.Anchor}}">{{.Title}}</a></li>
{{end}}</ul>{{end}}
</li>
{{end}}</ul>
</body>
</html>
{{end}}`
