package mailer

import "github.com/spec-kit/agency-admin/internal/events"

type builtin struct {
	subject string
	body    string
}

const layoutHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { color: white; padding: 20px; text-align: center; }
.content { padding: 20px; background: #f9fafb; }
.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
`

const layoutFoot = `<div class="footer">
<p>&copy; {{year}} Andorinha Digital. Todos os direitos reservados.</p>
</div>
</div>
</body>
</html>
`

var builtins = map[events.EmailKind]builtin{
	events.EmailWelcome: {
		subject: "Bem-vindo à Andorinha Digital",
		body: layoutHead + `<div class="header" style="background:#2563eb"><h1>Bem-vindo à Andorinha Digital!</h1></div>
<div class="content">
<p>Olá <strong>{{name}}</strong>,</p>
<p>Sua conta foi criada com sucesso! Estamos felizes em tê-lo(a) conosco.</p>
<p>Seu acesso: <strong>{{email}}</strong></p>
<p><a href="{{adminUrl}}">Acessar Painel</a></p>
<p>Se você tiver alguma dúvida, não hesite em nos contatar.</p>
</div>
` + layoutFoot,
	},
	events.EmailPasswordChanged: {
		subject: "Senha alterada com sucesso",
		body: layoutHead + `<div class="header" style="background:#10b981"><h1>Senha Alterada</h1></div>
<div class="content">
<p>Olá <strong>{{name}}</strong>,</p>
<p>Sua senha foi alterada com sucesso.</p>
<p><strong>Você não fez esta alteração?</strong> Entre em contato com nossa equipe imediatamente.</p>
<p>Data e hora: {{changedAt}}</p>
</div>
` + layoutFoot,
	},
	events.EmailRoleChanged: {
		subject: "Suas permissões foram atualizadas",
		body: layoutHead + `<div class="header" style="background:#8b5cf6"><h1>Permissões Atualizadas</h1></div>
<div class="content">
<p>Olá <strong>{{name}}</strong>,</p>
<p>Suas permissões no painel foram alteradas.</p>
<p>{{oldRole}} &rarr; {{newRole}}</p>
<p><a href="{{adminUrl}}">Acessar Painel</a></p>
</div>
` + layoutFoot,
	},
	events.EmailPasswordReset: {
		subject: "Redefinição de senha",
		body: layoutHead + `<div class="header" style="background:#f59e0b"><h1>Redefinir Senha</h1></div>
<div class="content">
<p>Olá <strong>{{name}}</strong>,</p>
<p>Recebemos uma solicitação para redefinir sua senha.</p>
<p><a href="{{resetUrl}}">Redefinir Senha</a></p>
<p>O link expira em {{expiresIn}} minutos. Se você não fez esta solicitação, ignore este email.</p>
</div>
` + layoutFoot,
	},
}
