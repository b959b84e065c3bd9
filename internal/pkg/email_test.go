package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMail(t *testing.T) {
	data := MailData{Username: "cat", Token: "tok", BaseURL: "http://localhost:8080"}

	for _, tpl := range []string{TemplateConfirm, TemplateResetPassword, TemplateChangeEmail} {
		t.Run(tpl, func(t *testing.T) {
			body, err := RenderMail(tpl, data)
			require.NoError(t, err)
			assert.Contains(t, body, "cat")
			assert.Contains(t, body, "http://localhost:8080/auth/")
			assert.Contains(t, body, "tok")
		})
	}

	_, err := RenderMail("nope", data)
	assert.Error(t, err)
}
