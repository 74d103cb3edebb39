package mailer

// Template names
const (
	TemplateInvite   = "invite"
	TemplateRecovery = "recovery"
	TemplateSignup   = "signup"
)

// LinkData data passed to every built-in template
type LinkData struct {
	Email string
	Code  string
	Link  string
}

var builtinTemplates = map[string]string{
	TemplateInvite: `<p>You have been invited to administer e-lapor.</p>
<p><a href="{{.Link}}">Accept the invitation</a> and choose a password.</p>
<p>Or enter this code for {{.Email}}: <strong>{{.Code}}</strong></p>`,

	TemplateRecovery: `<p>A password reset was requested for {{.Email}}.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>Code: <strong>{{.Code}}</strong>. Ignore this mail if you did not ask for it.</p>`,

	TemplateSignup: `<p>Confirm your e-lapor account {{.Email}}.</p>
<p><a href="{{.Link}}">Confirm</a> or enter the code <strong>{{.Code}}</strong>.</p>`,
}
