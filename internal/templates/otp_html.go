package templates

import (
	"bytes"
	"html/template"
	"strconv"
)

type OTPEmailData struct {
	Code						string
	ValidMinutes		int
	SupportEmail		string
}

const OTPSubject = "Your SINEVA OTP Code"

const otpHTML = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8"/>
  <title>SINEVA OTP</title>
  <style>
    body {
      margin: 0;
      padding: 0;
      font-family: Arial, sans-serif;
      background-color: #f9f9f9;
      color: #333;
    }
    .email-container {
      max-width: 600px;
      margin: auto;
      padding: 20px;
    }
    .header {
      background-color: #000;
      color: #fff;
      padding: 20px;
      text-align: center;
    }
    .content {
      background: #fff;
      padding: 30px;
      border-radius: 8px;
      margin-top: 20px;
      text-align: center;
    }
    .code {
      font-size: 20px;
      font-weight: bold;
      margin: 20px 0;
      letter-spacing: 4px;
    }
    .footer {
      font-size: 12px;
      color: #777;
      text-align: center;
      margin-top: 30px;
    }
  </style>
</head>
<body>
  <div class="email-container">
    <div class="header">
      <h1 style="margin: 0;">SINEVA</h1>
      <p>Your Style. Your Story.</p>
    </div>

    <div class="content">
      <h2>Your One-Time Password (OTP)</h2>
      <p class="code">{{.Code}}</p>
      <p>This OTP is valid for <strong>{{.ValidMinutes}} minutes</strong>. Please do not share it with anyone.</p>
    </div>

    {{if .SupportEmail}}
    <p class="footer">
      Need help? Contact us at <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a>
    </p>
    {{end}}
  </div>
</body>
</html>
`

var otpTemplate = template.Must(template.New("otp").Parse(otpHTML))

func RenderOTPHTML(data OTPEmailData) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderOTPText(data OTPEmailData) string {
	return "Your SINEVA one-time password is " + data.Code + ". It is valid for " +
		strconv.Itoa(data.ValidMinutes) + " minutes. Please do not share it with anyone."
}
