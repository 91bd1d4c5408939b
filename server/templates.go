package server

import (
	"html/template"
	"net/http"

	"github.com/oauthlab/oidc-sandbox/oauthmodel"
	"github.com/oauthlab/oidc-sandbox/registry"
	"github.com/rs/zerolog/log"
)

// Embedded HTML pages. These are deliberately dependency-free single
// documents so the server stays a single binary with no asset pipeline.

type subjectSelectionData struct {
	AppName    string
	ClientName string
	Params     *oauthmodel.AuthorizationParameters
	Subjects   []*registry.Subject
}

type devicePageData struct {
	AppName    string
	ClientName string
	UserCode   string
	Scope      string
	Subjects   []*registry.Subject
}

type deviceResultData struct {
	AppName string
	Title   string
	Message string
	Success bool
}

const pageStyle = `
  body { font-family: system-ui, sans-serif; background: #f4f4f5; margin: 0;
         display: flex; justify-content: center; padding-top: 8vh; }
  .card { background: #fff; border: 1px solid #d4d4d8; border-radius: 8px;
          padding: 2rem; width: 22rem; }
  h1 { font-size: 1.1rem; margin: 0 0 0.25rem; }
  p.sub { color: #52525b; font-size: 0.85rem; margin: 0 0 1.25rem; }
  button { display: block; width: 100%; margin-bottom: 0.5rem; padding: 0.6rem;
           border: 1px solid #d4d4d8; border-radius: 6px; background: #fafafa;
           font-size: 0.9rem; cursor: pointer; text-align: left; }
  button:hover { background: #f0f0f1; }
  button.deny { color: #b91c1c; }
  input[type=text] { width: 100%; box-sizing: border-box; padding: 0.6rem;
           border: 1px solid #d4d4d8; border-radius: 6px; margin-bottom: 1rem;
           font-size: 1rem; letter-spacing: 0.2em; text-transform: uppercase; }
  .ok { color: #15803d; }
  .err { color: #b91c1c; }
`

var subjectSelectionTemplate = template.Must(template.New("subjectSelection").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sign in - {{.AppName}}</title><style>` + pageStyle + `</style></head>
<body>
  <div class="card">
    <h1>Sign in</h1>
    <p class="sub">Choose a user to continue{{if .ClientName}} to <strong>{{.ClientName}}</strong>{{end}}.</p>
    <form method="POST" action="` + RouteAuthorize + `">
      <input type="hidden" name="client_id" value="{{.Params.ClientID}}">
      <input type="hidden" name="redirect_uri" value="{{.Params.RedirectURI}}">
      <input type="hidden" name="response_type" value="{{.Params.ResponseType}}">
      <input type="hidden" name="scope" value="{{.Params.Scope}}">
      <input type="hidden" name="state" value="{{.Params.State}}">
      <input type="hidden" name="nonce" value="{{.Params.Nonce}}">
      <input type="hidden" name="code_challenge" value="{{.Params.CodeChallenge}}">
      <input type="hidden" name="code_challenge_method" value="{{.Params.CodeChallengeMethod}}">
      {{range .Subjects}}
      <button type="submit" name="sub" value="{{.ID}}">{{.Name}} &lt;{{.Email}}&gt;</button>
      {{end}}
    </form>
  </div>
</body>
</html>
`))

var deviceVerificationTemplate = template.Must(template.New("deviceVerification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Connect a device - {{.AppName}}</title><style>` + pageStyle + `</style></head>
<body>
  <div class="card">
    <h1>Connect a device</h1>
    <p class="sub">Enter the code shown on your device{{if .ClientName}}, then approve <strong>{{.ClientName}}</strong>{{end}}.</p>
    <form method="POST" action="` + RouteDeviceVerification + `">
      <input type="text" name="user_code" value="{{.UserCode}}" placeholder="XXXXXXXX" autocomplete="off" required>
      {{if .Scope}}<p class="sub">Requested access: <code>{{.Scope}}</code></p>{{end}}
      {{range .Subjects}}
      <button type="submit" name="sub" value="{{.ID}}">Approve as {{.Name}}</button>
      {{end}}
      <button type="submit" name="action" value="deny" class="deny">Deny</button>
      <input type="hidden" name="action" value="approve">
    </form>
  </div>
</body>
</html>
`))

var deviceResultTemplate = template.Must(template.New("deviceResult").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}} - {{.AppName}}</title><style>` + pageStyle + `</style></head>
<body>
  <div class="card">
    <h1 class="{{if .Success}}ok{{else}}err{{end}}">{{.Title}}</h1>
    <p class="sub">{{.Message}}</p>
  </div>
</body>
</html>
`))

// renderSubjectSelection shows the user picker for an interactive
// authorization request that carried no login_hint.
func (s *Server) renderSubjectSelection(w http.ResponseWriter, params *oauthmodel.AuthorizationParameters) {
	data := subjectSelectionData{
		AppName:  s.config.GetAppName(),
		Params:   params,
		Subjects: s.registry.Subjects(),
	}
	if client, ok := s.registry.FindClient(params.ClientID); ok {
		data.ClientName = client.Name
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	if err := subjectSelectionTemplate.Execute(w, data); err != nil {
		log.Err(err).Msg("failed to render subject selection page")
	}
}
