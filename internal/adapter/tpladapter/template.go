package tpladapter

const defaultTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link href="https://cdnjs.cloudflare.com/ajax/libs/bootstrap/5.3.0/css/bootstrap.min.css" rel="stylesheet">
    <link href="https://cdnjs.cloudflare.com/ajax/libs/bootstrap-icons/1.10.0/font/bootstrap-icons.min.css" rel="stylesheet">
    <style>
        .recipe-header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            border-radius: 10px;
            padding: 2rem;
            margin-bottom: 2rem;
        }
        .step-card {
            border-left: 4px solid #007bff;
            margin-bottom: 1.5rem;
        }
        .step-media img {
            max-height: 400px;
        }
        .config-table td:first-child {
            width: 35%;
            font-weight: 500;
        }
    </style>
</head>
<body class="bg-light">
    <div class="container my-4">
        <div class="recipe-header">
            <h1 class="mb-3">
                <i class="bi bi-journal-text me-2"></i>
                {{.Title}}
            </h1>
            <div class="text-center">
                <span class="badge bg-success fs-6 me-2">
                    <i class="bi bi-tag me-1"></i>
                    {{.Category}}
                </span>
                <span class="badge bg-info fs-6 me-2">
                    <i class="bi bi-list-ol me-1"></i>
                    {{len .Walkthrough}} steps
                </span>
                <span class="badge bg-secondary fs-6">
                    <i class="bi bi-eye me-1"></i>
                    <span id="view-count">{{.Views}}</span> views
                </span>
            </div>
        </div>

        {{if .Prerequisites}}
        <div class="card mb-4">
            <div class="card-body">
                <h5 class="card-title">
                    <i class="bi bi-check2-square me-2"></i>
                    Prerequisites
                </h5>
                <ul class="mb-0">
                    {{range .Prerequisites}}
                    <li>{{.}}</li>
                    {{end}}
                </ul>
            </div>
        </div>
        {{end}}

        {{if .Versions}}
        <div class="mb-4">
            <small class="text-muted me-2">Tested with:</small>
            {{range .Versions}}
            <span class="badge bg-light text-dark border">{{.}}</span>
            {{end}}
        </div>
        {{end}}

        {{range $i, $step := .Walkthrough}}
        <div class="card step-card">
            <div class="card-header bg-white">
                <h5 class="mb-0">
                    <span class="badge bg-primary me-2">{{inc $i}}</span>
                    {{$step.Step}}
                </h5>
            </div>
            <div class="card-body">
                {{if $step.Description}}
                <div class="card-text mb-3">
                    {{desc $step.Description}}
                </div>
                {{end}}

                {{if $step.Config}}
                <table class="table table-sm table-bordered config-table mb-3">
                    <tbody>
                        {{range $step.Config}}
                        <tr>
                            <td>{{.Field}}</td>
                            <td><code>{{.Value}}</code></td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{end}}

                {{if $step.Media}}
                <div class="step-media">
                    {{range $step.Media}}
                    {{media $.ID .}}
                    {{end}}
                </div>
                {{end}}
            </div>
        </div>
        {{end}}

        {{if .DownloadExecutables}}
        <div class="card mb-4">
            <div class="card-header bg-primary text-white">
                <h5 class="mb-0">
                    <i class="bi bi-file-earmark-arrow-down me-2"></i>
                    Downloads
                </h5>
            </div>
            <div class="card-body">
                {{range .DownloadExecutables}}
                <a href="/media/{{$.ID}}/{{.FilePath}}" class="btn btn-outline-primary btn-sm me-2">
                    <i class="bi bi-download me-1"></i>
                    {{.FilePath}}
                </a>
                {{end}}
            </div>
        </div>
        {{end}}

        {{if .RelatedRecipes}}
        <div class="card mb-4">
            <div class="card-body">
                <h5 class="card-title">
                    <i class="bi bi-link-45deg me-2"></i>
                    Related recipes
                </h5>
                {{range .RelatedRecipes}}
                <a href="{{$.URL}}/share/{{.}}" class="badge bg-light text-dark border text-decoration-none me-1">{{.}}</a>
                {{end}}
            </div>
        </div>
        {{end}}

    </div>

    <script src="https://cdnjs.cloudflare.com/ajax/libs/bootstrap/5.3.0/js/bootstrap.bundle.min.js"></script>
    <script>
        // The page itself is cacheable, the view counter is not.
        async function loadViewCount() {
            try {
                const response = await fetch('{{.URL}}/share/{{.ID}}/info');
                const data = await response.json();
                document.getElementById('view-count').innerHTML = data.views || 0;
            } catch (error) {
                console.error('Failed to load view count:', error);
            }
        }

        document.addEventListener('DOMContentLoaded', loadViewCount);
    </script>
</body>
</html>

{{define "MEDIA"}}
{{if eq .Type "image"}}
<figure class="figure d-block mb-3">
    <img src="{{.Src}}" alt="{{.Alt}}" class="figure-img img-fluid rounded border">
    {{if .Alt}}<figcaption class="figure-caption">{{.Alt}}</figcaption>{{end}}
</figure>
{{else if eq .Type "video"}}
<a href="{{.Src}}" class="btn btn-outline-secondary btn-sm d-inline-block mb-3">
    <i class="bi bi-play-circle me-1"></i>
    {{if .Alt}}{{.Alt}}{{else}}Watch video{{end}}
</a>
{{else if eq .Type "document"}}
<a href="{{.Src}}" class="btn btn-outline-secondary btn-sm d-inline-block mb-3">
    <i class="bi bi-file-earmark-text me-1"></i>
    {{if .Alt}}{{.Alt}}{{else}}{{.Src}}{{end}}
</a>
{{else}}
<a href="{{.Src}}" class="d-inline-block mb-3">
    <i class="bi bi-box-arrow-up-right me-1"></i>
    {{if .Alt}}{{.Alt}}{{else}}{{.Src}}{{end}}
</a>
{{end}}
{{end}}
`
