package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core"
)

type testLogger struct{ errors []string }

func (l *testLogger) Debug(string, ...interface{})       {}
func (l *testLogger) Info(string, ...interface{})        {}
func (l *testLogger) Warn(string, ...interface{})        {}
func (l *testLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }
func (l *testLogger) Fatal(string, ...interface{})       {}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	ResetSentMessages()
	logger := &testLogger{}
	svc := NewConsoleServiceMock(core.NewTestConfig(), logger)
	to := []mail.Address{{Name: "Bob", Address: "bob@test.cd"}}

	svc.SendMessages(
		&core.EmailMessage{
			To:           to,
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: map[string]interface{}{"Name": "Bob", "Username": "bobby", "Path": "/password-reset-confirm?uid=x&token=y"},
		},
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"},
		&core.EmailMessage{To: to, Subject: "missing data", TemplateName: "welcome", TemplateData: map[string]interface{}{}},
		&core.EmailMessage{To: to, Subject: "unknown", TemplateName: "nope"},
	)

	msgs := GetSentMessages()
	require.Len(t, msgs, 2)

	reset := msgs[0]
	assert.True(t, strings.Contains(reset.TextContent, "http://localhost:8080/password-reset-confirm?uid=x&token=y"))
	assert.True(t, strings.Contains(reset.TextContent, "bobby"))
	assert.True(t, strings.Contains(reset.HTMLContent, "http://localhost:8080/password-reset-confirm?uid=x"))

	assert.Equal(t, "hello", msgs[1].TextContent)
	assert.Empty(t, msgs[1].HTMLContent)

	assert.Len(t, logger.errors, 2)
}
