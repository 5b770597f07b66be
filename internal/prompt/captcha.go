package prompt

import (
	"context"
	"vkposter/internal/assert"
	"vkposter/internal/telemetry"
	"vkposter/internal/vkapi"
)

const report_captcha_solve = "captcha.solve"

// CaptchaSolver shows the captcha image URL to the operator and reads back the answer.
type CaptchaSolver struct {
	prompter Prompter
	tel      telemetry.API
}

func NewCaptchaSolver(prompter Prompter, tel telemetry.API) CaptchaSolver {
	assert.NotNil(prompter)
	assert.NotNil(tel)
	return CaptchaSolver{
		prompter: prompter,
		tel:      telemetry.NewScopedAPI("prompt", tel),
	}
}

func (s CaptchaSolver) Solve(ctx context.Context, challenge vkapi.Challenge) (string, error) {
	s.tel.ReportWarning(report_captcha_solve, "captcha required, open the image and type its text", challenge.Image)
	return s.prompter.Prompt(ctx, "Enter captcha code")
}
