// AngelaMos | 2026
// templates.go

package web

import (
	"fmt"
	"html/template"
	"time"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
)

var templateFuncs = template.FuncMap{
	"roleLabel": func(r auth.Role) string {
		switch r {
		case auth.RoleCustomer:
			return "Cliente"
		case auth.RoleRestaurant:
			return "Restaurante"
		case auth.RoleAdmin:
			return "Administrador"
		case auth.RoleCourier:
			return "Repartidor"
		case "":
			return "Sin rol"
		default:
			return string(r)
		}
	},
	"statusLabel": func(s auth.ApprovalStatus) string {
		switch s {
		case auth.ApprovalPending:
			return "Pendiente de revisión"
		case auth.ApprovalApproved:
			return "Aprobado"
		case auth.ApprovalRejected:
			return "Rechazado"
		default:
			return string(s)
		}
	},
	"statusClass": func(s auth.ApprovalStatus) string {
		switch s {
		case auth.ApprovalApproved:
			return "ok"
		case auth.ApprovalRejected:
			return "bad"
		default:
			return "warn"
		}
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Local().Format("02/01/2006 15:04")
	},
}

func parseTemplates() (map[string]*template.Template, error) {
	layout, ok := templates["layout"]
	if !ok {
		return nil, fmt.Errorf("layout template not found")
	}

	pages := make(map[string]*template.Template, len(templates)-1)
	for name, content := range templates {
		if name == "layout" {
			continue
		}

		tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := tmpl.New(name).Parse(content); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} · Food Delivery</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 0; background: #f7f7f5; color: #222; }
        header { background: #d9480f; color: #fff; padding: .75rem 1.5rem; display: flex; align-items: center; gap: 1.5rem; }
        header a { color: #fff; text-decoration: none; }
        header nav { display: flex; gap: 1rem; flex: 1; }
        header form { margin: 0; }
        main { max-width: 56rem; margin: 2rem auto; padding: 0 1rem; }
        .card { background: #fff; border-radius: .5rem; padding: 1.5rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
        .error { background: #ffe3e3; color: #c92a2a; padding: .75rem; border-radius: .25rem; }
        .notice { background: #e6fcf5; color: #087f5b; padding: .75rem; border-radius: .25rem; }
        .ok { color: #2b8a3e; } .warn { color: #e67700; } .bad { color: #c92a2a; }
        label { display: block; margin-top: .75rem; }
        input, select { width: 100%; padding: .5rem; box-sizing: border-box; }
        button { margin-top: 1rem; padding: .5rem 1rem; }
        table { width: 100%; border-collapse: collapse; }
        td, th { padding: .5rem; border-bottom: 1px solid #eee; text-align: left; }
    </style>
</head>
<body>
    <header>
        <a href="/"><strong>Food Delivery</strong></a>
        <nav>
            {{range .Nav}}<a href="{{.Href}}">{{.Label}}</a>{{end}}
        </nav>
        {{with .Identity}}
        <span>{{.Name}} · {{roleLabel .Role}}</span>
        <form method="post" action="/logout"><button type="submit">Salir</button></form>
        {{else}}
        <a href="/login">Entrar</a>
        <a href="/registro">Registrarse</a>
        {{end}}
    </header>
    <main>
        {{template "content" .}}
    </main>
</body>
</html>`,

	"home": `{{define "content"}}
<div class="card">
    <h1>Comida a domicilio</h1>
    {{with .Identity}}
    <p>Has iniciado sesión como <strong>{{.Username}}</strong>, pero tu cuenta no tiene un área asignada.</p>
    {{else}}
    <p>Pide a tus restaurantes favoritos o gestiona tu local.</p>
    <p><a href="/login">Iniciar sesión</a> · <a href="/registro">Crear cuenta</a></p>
    {{end}}
</div>
{{end}}`,

	"login": `{{define "content"}}
<div class="card">
    <h1>Iniciar sesión</h1>
    {{with .Notice}}<p class="notice">{{.}}</p>{{end}}
    {{with .Error}}<p class="error" role="alert">{{.}}</p>{{end}}
    <form method="post" action="/login">
        <label>Usuario <input name="username" value="{{.Username}}" autocomplete="username" required></label>
        <label>Contraseña <input type="password" name="password" autocomplete="current-password" required></label>
        <button type="submit">Entrar</button>
    </form>
    <p>¿No tienes cuenta? <a href="/registro">Regístrate</a></p>
</div>
{{end}}`,

	"register": `{{define "content"}}
<div class="card">
    <h1>Crear cuenta</h1>
    {{with .Error}}<p class="error" role="alert">{{.}}</p>{{end}}
    <form method="post" action="/registro">
        <label>Usuario <input name="username" value="{{.Form.Username}}" required></label>
        <label>Contraseña <input type="password" name="password" required></label>
        <label>Nombre <input name="nombre" value="{{.Form.Name}}" required></label>
        <label>Email <input type="email" name="email" value="{{.Form.Email}}" required></label>
        <label>Teléfono <input name="telefono" value="{{.Form.Phone}}"></label>
        <label>Tipo de cuenta
            <select name="rol">
                {{range .Roles}}<option value="{{.}}" {{if eq . $.Form.Role}}selected{{end}}>{{roleLabel .}}</option>{{end}}
            </select>
        </label>
        <button type="submit">Registrarse</button>
    </form>
</div>
{{end}}`,

	"dashboard": `{{define "content"}}
<div class="card">
    {{with .Identity}}
    <h1>Hola, {{.Name}}</h1>
    <p>Área de {{roleLabel .Role}}. La sesión caduca: {{formatTimePtr .ExpiresAt}}.</p>
    {{end}}
    <ul>
        {{range .Nav}}<li><a href="{{.Href}}">{{.Label}}</a></li>{{end}}
    </ul>
</div>
{{end}}`,

	"section": `{{define "content"}}
<div class="card">
    <h1>{{.Title}}</h1>
    <p>{{.Description}}</p>
</div>
{{end}}`,

	"profile": `{{define "content"}}
<div class="card">
    <h1>Mi perfil</h1>
    {{if .Fallback}}<p class="notice">No se pudo consultar el perfil completo. Se muestran los datos de la sesión.</p>{{end}}
    {{with .Profile}}
    <table>
        <tr><th>Usuario</th><td>{{.Username}}</td></tr>
        <tr><th>Nombre</th><td>{{.Name}}</td></tr>
        <tr><th>Email</th><td>{{.Email}}</td></tr>
        <tr><th>Teléfono</th><td>{{if .Phone}}{{.Phone}}{{else}}-{{end}}</td></tr>
    </table>
    {{end}}
</div>
{{end}}`,

	"approval": `{{define "content"}}
<div class="card">
    <h1>Estado de tu restaurante</h1>
    {{if .Unavailable}}
    <p class="error">No se pudo consultar el estado en este momento.</p>
    {{else}}{{with .State}}
    <p>Estado: <strong class="{{statusClass .Status}}" data-estado="{{.Status}}">{{statusLabel .Status}}</strong></p>
    {{if .Reason}}<p>Motivo: {{.Reason}}</p>{{end}}
    {{if .Approved}}<p><a href="/restaurante">Ir al panel</a></p>
    {{else}}<p>Podrás gestionar tu restaurante cuando un administrador apruebe la solicitud.</p>{{end}}
    {{else}}
    <p>No hay ninguna solicitud registrada para tu cuenta.</p>
    {{end}}{{end}}
</div>
{{end}}`,

	"restaurants": `{{define "content"}}
<div class="card">
    <h1>Restaurantes</h1>
    {{with .Notice}}<p class="notice">{{.}}</p>{{end}}
    {{with .Error}}<p class="error" role="alert">{{.}}</p>{{end}}
    <table>
        <tr><th>Usuario</th><th>Nombre</th><th>Estado</th><th>Decisión</th></tr>
        {{range .Restaurants}}
        <tr>
            <td>{{.Username}}</td>
            <td>{{.Name}}</td>
            <td class="{{statusClass .Status}}">{{statusLabel .Status}}{{with .Reason}} ({{.}}){{end}}</td>
            <td>
                <form method="post" action="/admin/restaurantes/{{.Username}}/estado">
                    <select name="estado">
                        {{$current := .Status}}{{range $.Statuses}}<option value="{{.}}" {{if eq . $current}}selected{{end}}>{{statusLabel .}}</option>{{end}}
                    </select>
                    <input name="motivoRechazo" placeholder="Motivo del rechazo" value="{{.Reason}}">
                    <button type="submit">Guardar</button>
                </form>
            </td>
        </tr>
        {{else}}
        <tr><td colspan="4">No hay restaurantes registrados.</td></tr>
        {{end}}
    </table>
</div>
{{end}}`,

	"error": `{{define "content"}}
<div class="card">
    <h1>Algo salió mal</h1>
    <p class="error">{{.Message}}</p>
    <p><a href="/">Volver al inicio</a></p>
</div>
{{end}}`,
}
