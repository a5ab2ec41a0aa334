package mailer

import (
	"html/template"
	"strconv"
	"strings"
	"time"
)

var (
	resetPasswordTmpl = template.Must(template.New("reset").Parse(`<!doctype html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 40px 20px;">
  <div style="max-width: 600px; margin: auto; background: #ffffff; border-radius: 8px; padding: 30px;">
    <h2 style="color: #333333;">Reset Your Password</h2>
    <p>Hi {{.Name}},</p>
    <p>We received a request to reset your password. Click the button below to set a new password.</p>
    <p>This password reset link will expire in <strong>{{.TTL}}</strong>.</p>
    <p style="margin: 24px 0;">
      <a href="{{.ResetURL}}" style="background: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Reset Password</a>
    </p>
    <p>If you did not request a password reset, you can safely ignore this email.</p>
  </div>
</body>
</html>`))

	resetSuccessTmpl = template.Must(template.New("success").Parse(`<!doctype html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 40px 20px;">
  <div style="max-width: 600px; margin: auto; background: #ffffff; border-radius: 8px; padding: 30px;">
    <h2 style="color: #333333;">Password Reset Successful</h2>
    <p>Hi {{.Name}},</p>
    <p>Your password has been reset. You can now sign in with your new password.</p>
    <p style="margin: 24px 0;">
      <a href="{{.LoginURL}}" style="background: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Sign In</a>
    </p>
    <p>If this wasn't you, contact an administrator immediately.</p>
  </div>
</body>
</html>`))

	passwordUpdatedTmpl = template.Must(template.New("updated").Parse(`<!doctype html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 40px 20px;">
  <div style="max-width: 600px; margin: auto; background: #ffffff; border-radius: 8px; padding: 30px;">
    <h2 style="color: #333333;">Password Update Successful</h2>
    <p>Hi {{.Name}},</p>
    <p>Your password was just changed. You have been signed out everywhere and need to sign in again.</p>
    <p style="margin: 24px 0;">
      <a href="{{.LoginURL}}" style="background: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Sign In</a>
    </p>
    <p>If this wasn't you, contact an administrator immediately.</p>
  </div>
</body>
</html>`))

	userCreatedTmpl = template.Must(template.New("created").Parse(`<!doctype html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 40px 20px;">
  <div style="max-width: 600px; margin: auto; background: #ffffff; border-radius: 8px; padding: 30px;">
    <h2 style="color: #333333;">Welcome, {{.Name}}</h2>
    <p>An account has been created for you.</p>
    <p>Email: <strong>{{.Email}}</strong><br>
    Temporary password: <strong>{{.Password}}</strong></p>
    <p>Sign in and change this password as soon as possible.</p>
    <p style="margin: 24px 0;">
      <a href="{{.LoginURL}}" style="background: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Sign In</a>
    </p>
  </div>
</body>
</html>`))
)

func ResetPasswordEmail(name, resetURL string, ttl time.Duration) (string, error) {
	return render(resetPasswordTmpl, map[string]any{
		"Name":     name,
		"ResetURL": resetURL,
		"TTL":      formatTTL(ttl),
	})
}

func ResetSuccessEmail(name, loginURL string) (string, error) {
	return render(resetSuccessTmpl, map[string]any{
		"Name":     name,
		"LoginURL": loginURL,
	})
}

func PasswordUpdatedEmail(name, loginURL string) (string, error) {
	return render(passwordUpdatedTmpl, map[string]any{
		"Name":     name,
		"LoginURL": loginURL,
	})
}

func UserCreatedEmail(name, email, password, loginURL string) (string, error) {
	return render(userCreatedTmpl, map[string]any{
		"Name":     name,
		"Email":    email,
		"Password": password,
		"LoginURL": loginURL,
	})
}

func render(tmpl *template.Template, data map[string]any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatTTL(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		hours := int(ttl / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return strconv.Itoa(hours) + " hours"
	}
	minutes := int(ttl / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return strconv.Itoa(minutes) + " minutes"
}
