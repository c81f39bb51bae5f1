package mail

import "html/template"

var (
	welcomeTmpl       = template.Must(template.New("welcome").Parse(welcomeHTML))
	passwordResetTmpl = template.Must(template.New("password_reset").Parse(passwordResetHTML))
)

const welcomeHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Welcome to TaskFlow</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #667eea; color: white; padding: 30px; text-align: center;">
    <h1>Welcome to TaskFlow!</h1>
    <p>Your journey to better productivity starts here</p>
  </div>
  <div style="padding: 30px;">
    <h2>Hello {{.Name}}!</h2>
    <p>Welcome to TaskFlow, the task management platform that helps you stay organized and productive.</p>
    <ul>
      <li>Create and organize tasks with priorities and categories</li>
      <li>Find tasks quickly with search and filtering</li>
      <li>Track your progress with completion analytics</li>
    </ul>
    <p style="text-align: center;">
      <a href="{{.DashboardURL}}" style="display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px;">Start Managing Tasks</a>
    </p>
  </div>
  <div style="background: #f8f9fa; padding: 20px; text-align: center; color: #666; font-size: 14px;">
    <p>This is an automated message, please do not reply to this email.</p>
  </div>
</body>
</html>`

const passwordResetHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Password Reset - TaskFlow</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #667eea; color: white; padding: 30px; text-align: center;">
    <h1>Password Reset Request</h1>
    <p>TaskFlow - Task Management System</p>
  </div>
  <div style="padding: 30px;">
    <p>We received a request to reset the password for your TaskFlow account.</p>
    <p style="text-align: center;">
      <a href="{{.ResetURL}}" style="display: inline-block; background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px;">Reset My Password</a>
    </p>
    <div style="background: #fff3cd; border: 1px solid #ffeaa7; padding: 15px; border-radius: 5px; color: #856404;">
      <strong>Important:</strong>
      <ul>
        <li>This link will expire in 10 minutes</li>
        <li>If you didn't request this reset, please ignore this email</li>
        <li>Never share this link with anyone</li>
      </ul>
    </div>
    <p>If the button doesn't work, copy and paste this link into your browser:</p>
    <p style="word-break: break-all; color: #667eea;">{{.ResetURL}}</p>
  </div>
  <div style="background: #f8f9fa; padding: 20px; text-align: center; color: #666; font-size: 14px;">
    <p>This is an automated message, please do not reply to this email.</p>
  </div>
</body>
</html>`
