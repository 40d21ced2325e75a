// internal/service/email/templates.go
package email

import (
	"fmt"
	"html"
	"strings"

	"mohandz-service/internal/pkg/i18n"
)

// RecoveryEmail builds the password recovery message in lang.
func RecoveryEmail(lang i18n.Lang, fullName, link string) (subject, body string) {
	name := html.EscapeString(strings.TrimSpace(fullName))
	href := html.EscapeString(link)

	if lang == i18n.English {
		if name == "" {
			name = "there"
		}
		subject = "Reset your Mohandz password"
		body = fmt.Sprintf(`
			<h2>Password reset</h2>
			<p>Hello %s,</p>
			<p>We received a request to reset the password of your Mohandz account.</p>
			<p><a href="%s" class="button">Set a new password</a></p>
			<p>Or open this link: <a href="%s">%s</a></p>
			<p>The link expires in 30 minutes. If you did not ask for it, ignore this email.</p>
		`, name, href, href, href)
		return subject, layout(lang, body)
	}

	subject = "إعادة تعيين كلمة المرور - مهندز"
	body = fmt.Sprintf(`
		<h2>إعادة تعيين كلمة المرور</h2>
		<p>مرحباً %s،</p>
		<p>تلقينا طلباً لإعادة تعيين كلمة المرور لحسابك في مهندز.</p>
		<p><a href="%s" class="button">تعيين كلمة مرور جديدة</a></p>
		<p>أو افتح هذا الرابط: <a href="%s">%s</a></p>
		<p>ينتهي الرابط خلال 30 دقيقة. إذا لم تطلب ذلك فتجاهل هذه الرسالة.</p>
	`, name, href, href, href)
	return subject, layout(lang, body)
}

func layout(lang i18n.Lang, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s" dir="%s">
<head>
	<meta charset="utf-8" />
	<title>Mohandz</title>
	<style>
		body { font-family: Tahoma, Arial, sans-serif; background-color: #f6f8fa; padding: 30px; }
		.container { max-width: 600px; margin: auto; background: #fff; border-radius: 10px; overflow: hidden; }
		.header { background: #0b3d91; color: white; text-align: center; padding: 20px; font-size: 22px; font-weight: bold; }
		.body { padding: 25px; color: #333; line-height: 1.6; }
		a.button { display: inline-block; background: #0b3d91; color: white; padding: 10px 20px; border-radius: 5px; text-decoration: none; }
	</style>
</head>
<body>
<div class="container">
	<div class="header">Mohandz</div>
	<div class="body">%s</div>
</div>
</body>
</html>`, lang, i18n.Dir(lang), strings.TrimSpace(content))
}
