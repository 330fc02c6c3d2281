package server

import (
	"bytes"
	"html/template"
	"net/http"
)

const playgroundVersion = "1.7.26"

// playground serves the GraphQL Playground pointed at endpoint.
func playground(title, endpoint string) http.Handler {
	var buff bytes.Buffer
	err := page.Execute(&buff, map[string]string{
		"title":    title,
		"endpoint": endpoint,
		"version":  playgroundVersion,
	})
	if err != nil {
		panic(err)
	}
	out := buff.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(out)
	})
}

var page = template.Must(template.New("graphql-playground").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset=utf-8/>
	<meta name="viewport" content="user-scalable=no, initial-scale=1.0, minimum-scale=1.0, maximum-scale=1.0, minimal-ui">
	<link rel="stylesheet" href="//cdn.jsdelivr.net/npm/graphql-playground-react@{{ .version }}/build/static/css/index.css"/>
	<link rel="shortcut icon" href="//cdn.jsdelivr.net/npm/graphql-playground-react@{{ .version }}/build/favicon.png"/>
	<script src="//cdn.jsdelivr.net/npm/graphql-playground-react@{{ .version }}/build/static/js/middleware.js"></script>
	<title>{{ .title }}</title>
</head>
<body>
<style type="text/css">
	html { font-family: "Open Sans", sans-serif; overflow: hidden; }
	body { margin: 0; background: #172a3a; }
</style>
<div id="root"/>
<script type="text/javascript">
	window.addEventListener('load', function (event) {
		const root = document.getElementById('root');
		root.classList.add('playgroundIn');
		GraphQLPlayground.init(root, {
			endpoint: location.protocol + '//' + location.host + '{{ .endpoint }}',
		})
	})
</script>
</body>
</html>
`))
